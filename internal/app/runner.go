package app

import (
	"context"
	"time"

	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
	"github.com/samvad-hq/samvad-feed-sampler/internal/hydrator"
	"github.com/samvad-hq/samvad-feed-sampler/internal/logger"
	"github.com/samvad-hq/samvad-feed-sampler/internal/sampler"
	"github.com/samvad-hq/samvad-feed-sampler/internal/storage"
	"github.com/samvad-hq/samvad-feed-sampler/pkg/feeds"
	"github.com/samvad-hq/samvad-feed-sampler/pkg/publishers"
)

// RegistrySource yields the current feed registry.
type RegistrySource interface {
	Fetch(ctx context.Context) ([]domain.FeedDescriptor, error)
}

// RegistryFile reads the registry from a local JSON or YAML file.
type RegistryFile string

// Fetch loads the file on every call.
func (f RegistryFile) Fetch(context.Context) ([]domain.FeedDescriptor, error) {
	return feeds.LoadRegistryFile(string(f))
}

// CandidateSampler selects fresh articles from a registry.
type CandidateSampler interface {
	Sample(ctx context.Context, req sampler.Request, registry []domain.FeedDescriptor) ([]domain.Article, sampler.Stats, error)
}

// ContentHydrator attaches article bodies in place.
type ContentHydrator interface {
	Hydrate(ctx context.Context, articles []domain.Article) hydrator.Report
}

// EventPublisher delivers one event to every configured sink.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// RunnerOptions tune a Runner.
type RunnerOptions struct {
	RunTimeout           time.Duration
	Items                ItemOptions
	EnforceMinPostLength bool
}

// EmitReport summarizes one Emit call.
type EmitReport struct {
	Emitted int `json:"emitted"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Runner executes one sample-hydrate-emit pass.
type Runner struct {
	registry  RegistrySource
	sampler   CandidateSampler
	hydrator  ContentHydrator
	publisher EventPublisher
	store     storage.Store
	opts      RunnerOptions
	log       logger.Logger
}

// NewRunner wires a Runner. A nil store disables cross-run deduplication.
func NewRunner(registry RegistrySource, s CandidateSampler, h ContentHydrator, pub EventPublisher, store storage.Store, opts RunnerOptions, log logger.Logger) *Runner {
	if store == nil {
		store, _ = storage.NewStore("none", "", storage.Options{})
	}
	return &Runner{
		registry:  registry,
		sampler:   s,
		hydrator:  h,
		publisher: pub,
		store:     store,
		opts:      opts,
		log:       logger.Ensure(log),
	}
}

// Collect runs registry fetch, sampling and hydration and returns the resulting items.
// It never fails: any error is logged and yields an empty result.
func (r *Runner) Collect(ctx context.Context, p Parameters) []domain.Item {
	if r.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.RunTimeout)
		defer cancel()
	}

	registry, err := r.registry.Fetch(ctx)
	if err != nil {
		r.log.ErrorObj("feed registry unavailable", "registry_error", map[string]any{
			"error": err.Error(),
		})
		return nil
	}
	r.log.InfoObj("feed registry loaded", "registry_meta", map[string]any{
		"feeds": len(registry),
	})

	articles, stats, err := r.sampler.Sample(ctx, p.Request(), registry)
	if err != nil {
		r.log.ErrorObj("sampling failed", "sampling_error", map[string]any{
			"error": err.Error(),
		})
		return nil
	}
	if len(articles) == 0 {
		r.log.InfoObj("no fresh articles found", "sampling_stats", stats)
		return nil
	}

	r.hydrator.Hydrate(ctx, articles)

	itemOpts := r.opts.Items
	itemOpts.MinPostLength = 0
	if r.opts.EnforceMinPostLength {
		itemOpts.MinPostLength = p.MinPostLength
	}
	items := BuildItems(articles, itemOpts)
	r.log.InfoObj("collection completed", "collect_meta", map[string]any{
		"parameters":  p,
		"articles":    len(articles),
		"items":       len(items),
		"termination": stats.Termination,
	})
	return items
}

// Emit publishes items one at a time. A failed item is logged and skipped; items
// already emitted by an earlier run are skipped.
func (r *Runner) Emit(ctx context.Context, items []domain.Item) EmitReport {
	var report EmitReport
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}

		evt := publishers.NewEvent(item)
		seen, err := r.store.Emitted(evt.ArticleID)
		if err != nil {
			r.log.WarnObj("emitted store lookup failed", "storage_error", map[string]any{
				"url":   item.URL,
				"error": err.Error(),
			})
		}
		if seen {
			report.Skipped++
			r.log.DebugObj("item already emitted", "item_skip", map[string]any{"url": item.URL})
			continue
		}

		delivered, err := r.publisher.Publish(ctx, evt)
		if err != nil {
			r.log.WarnObj("item publish failed", "publish_error", map[string]any{
				"url":       item.URL,
				"delivered": delivered,
				"error":     err.Error(),
			})
			if delivered == 0 {
				report.Failed++
				continue
			}
		}

		report.Emitted++
		if err := r.store.MarkEmitted(evt.ArticleID); err != nil {
			r.log.WarnObj("emitted store update failed", "storage_error", map[string]any{
				"url":   item.URL,
				"error": err.Error(),
			})
		}
	}

	r.log.InfoObj("emission completed", "emit_report", report)
	return report
}

// RunOnce collects with p and emits the result.
func (r *Runner) RunOnce(ctx context.Context, p Parameters) EmitReport {
	return r.Emit(ctx, r.Collect(ctx, p))
}
