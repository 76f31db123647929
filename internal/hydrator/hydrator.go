// Package hydrator attaches full article text to selected articles.
package hydrator

import (
	"context"
	"sync"
	"time"

	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
	"github.com/samvad-hq/samvad-feed-sampler/internal/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers = 8
	defaultTimeout = 15 * time.Second
)

// Options tunes the hydration pool.
type Options struct {
	Workers       int
	Timeout       time.Duration
	RatePerSecond float64
}

// Report summarizes one Hydrate call.
type Report struct {
	Requested int `json:"requested"`
	Extracted int `json:"extracted"`
	Failed    int `json:"failed"`
}

// Hydrator fetches article bodies on a bounded worker pool.
type Hydrator struct {
	extractor Extractor
	workers   int
	timeout   time.Duration
	limiter   *rate.Limiter
	log       logger.Logger
}

// New builds a Hydrator around extractor.
func New(extractor Extractor, opts Options, log logger.Logger) *Hydrator {
	if extractor == nil {
		extractor = NewHTMLExtractor(nil, nil)
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	h := &Hydrator{
		extractor: extractor,
		workers:   opts.Workers,
		timeout:   opts.Timeout,
		log:       logger.Ensure(log),
	}
	if opts.RatePerSecond > 0 {
		h.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}
	return h
}

type job struct {
	url  string
	lang string
}

// Hydrate extracts text for every article and assigns it once per article. A failed
// extraction yields empty content for that article only.
func (h *Hydrator) Hydrate(ctx context.Context, articles []domain.Article) Report {
	jobs := make([]job, 0, len(articles))
	queued := make(map[string]struct{}, len(articles))
	for _, a := range articles {
		if _, ok := queued[a.URL]; ok {
			continue
		}
		queued[a.URL] = struct{}{}
		jobs = append(jobs, job{url: a.URL, lang: a.LanguageHint()})
	}

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(jobs))
		failed  int
	)

	var g errgroup.Group
	g.SetLimit(h.workers)
	for _, j := range jobs {
		g.Go(func() error {
			text, ok := h.fetchOne(ctx, j)
			mu.Lock()
			results[j.url] = text
			if !ok {
				failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	for i := range articles {
		if text, ok := results[articles[i].URL]; ok {
			articles[i].SetContent(text)
		}
	}

	report := Report{Requested: len(jobs), Extracted: len(jobs) - failed, Failed: failed}
	h.log.InfoObj("hydration completed", "hydration_report", report)
	return report
}

func (h *Hydrator) fetchOne(ctx context.Context, j job) (string, bool) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			h.warn(j, err)
			return "", false
		}
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	text, err := h.extractor.Extract(ctx, j.url, j.lang)
	if err != nil {
		h.warn(j, err)
		return "", false
	}
	return text, true
}

func (h *Hydrator) warn(j job, err error) {
	h.log.WarnObj("article extraction failed", "extraction_error", map[string]any{
		"url":   j.url,
		"lang":  j.lang,
		"error": err.Error(),
	})
}
