package sampler

import (
	"context"

	"github.com/samvad-hq/samvad-feed-sampler/internal/dates"
	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
)

type state int

const (
	stateDrawing state = iota
	stateScanning
	stateAccepted
	stateBudgetExhausted
	stateDone
)

// run holds the mutable state of one Sample call. Every transition goes through step.
type run struct {
	s        *Sampler
	req      Request
	registry []domain.FeedDescriptor

	accepted           []domain.Article
	seen               map[string]struct{}
	totalTries         int
	consecutiveRejects int

	feed   domain.FeedDescriptor
	links  []domain.LinkRecord
	cursor int

	stats Stats
}

func newRun(s *Sampler, req Request, registry []domain.FeedDescriptor) *run {
	capHint := req.TargetCount
	if capHint < 0 {
		capHint = 0
	}
	return &run{
		s:        s,
		req:      req,
		registry: registry,
		accepted: make([]domain.Article, 0, capHint),
		seen:     make(map[string]struct{}, capHint),
		stats:    Stats{Now: s.now().UTC()},
	}
}

func (r *run) loop(ctx context.Context) {
	st := stateDrawing
	for st != stateDone {
		st = r.step(ctx, st)
	}
	r.stats.Tries = r.totalTries
	r.stats.Accepted = len(r.accepted)
}

func (r *run) step(ctx context.Context, st state) state {
	switch st {
	case stateDrawing:
		return r.draw(ctx)
	case stateScanning:
		return r.scan()
	case stateAccepted:
		if len(r.accepted) >= r.req.TargetCount {
			return r.finish(TerminationTargetReached)
		}
		return stateScanning
	case stateBudgetExhausted:
		return r.finish(TerminationBudgetExhausted)
	default:
		return stateDone
	}
}

func (r *run) finish(reason Termination) state {
	r.stats.Termination = reason
	return stateDone
}

// draw picks the next feed and snapshots it. The budget is checked only here, so a
// feed already being scanned is never cut short by it.
func (r *run) draw(ctx context.Context) state {
	if len(r.accepted) >= r.req.TargetCount {
		return r.finish(TerminationTargetReached)
	}
	if r.totalTries > r.req.MaxTries {
		return stateBudgetExhausted
	}
	if ctx.Err() != nil {
		return r.finish(TerminationCancelled)
	}

	r.feed = r.registry[r.s.rng.IntN(len(r.registry))]
	r.links = r.s.snapshots.Snapshot(ctx, r.feed, dates.DefaultWindow())
	r.cursor = 0
	r.stats.Draws++

	if len(r.links) == 0 {
		// An empty feed still costs one try so that a registry of dead feeds terminates.
		r.totalTries++
		return stateDrawing
	}
	return stateScanning
}

// scan evaluates the next entry of the current feed. The reject counter carries over
// between draws; only an acceptance or a burst abort clears it.
func (r *run) scan() state {
	if r.cursor >= len(r.links) {
		return stateDrawing
	}
	link := r.links[r.cursor]
	r.cursor++

	r.totalTries++
	r.consecutiveRejects++
	if r.consecutiveRejects > r.s.maxConsecutiveRejects {
		r.consecutiveRejects = 0
		r.stats.BurstAborts++
		r.s.log.DebugObj("feed abandoned after reject burst", "burst_abort", map[string]any{
			"feed_url":  r.feed.URL,
			"remaining": len(r.links) - r.cursor,
			"tries":     r.totalTries,
		})
		return stateDrawing
	}

	if !dates.WithinMaxAge(r.stats.Now, link.PublishedAt, r.req.MaxAge) {
		return stateScanning
	}
	if _, dup := r.seen[link.URL]; dup {
		return stateScanning
	}

	r.consecutiveRejects = 0
	r.seen[link.URL] = struct{}{}
	r.accepted = append(r.accepted, domain.NewArticle(r.feed, link))
	r.s.log.InfoObj("article accepted", "article", map[string]any{
		"source":       r.feed.Source,
		"url":          link.URL,
		"title":        link.Title,
		"published_at": dates.Format(link.PublishedAt),
	})
	return stateAccepted
}
