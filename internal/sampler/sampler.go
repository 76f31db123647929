// Package sampler draws fresh, distinct article links from a registry of feeds of
// unknown freshness under a global retry budget.
package sampler

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
	"github.com/samvad-hq/samvad-feed-sampler/internal/logger"
	"github.com/samvad-hq/samvad-feed-sampler/pkg/feeds"
)

// DefaultMaxConsecutiveRejects is the burst size after which a feed is abandoned.
const DefaultMaxConsecutiveRejects = 5

// Request describes one sampling run.
type Request struct {
	TargetCount int
	MaxAge      time.Duration
	MaxTries    int
}

// Termination names the reason a run stopped.
type Termination string

const (
	TerminationTargetReached   Termination = "target_reached"
	TerminationBudgetExhausted Termination = "budget_exhausted"
	TerminationCancelled       Termination = "cancelled"
)

// Stats summarizes a run.
type Stats struct {
	Draws       int         `json:"draws"`
	Tries       int         `json:"tries"`
	BurstAborts int         `json:"burst_aborts"`
	Accepted    int         `json:"accepted"`
	Termination Termination `json:"termination"`
	Now         time.Time   `json:"now"`
}

// Sampler selects candidate articles. A Sampler is not safe for concurrent Sample calls
// because it owns its random source.
type Sampler struct {
	snapshots             feeds.Snapshotter
	rng                   *rand.Rand
	now                   func() time.Time
	maxConsecutiveRejects int
	log                   logger.Logger
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithRand sets the random source used to draw feeds.
func WithRand(rng *rand.Rand) Option {
	return func(s *Sampler) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithClock sets the clock read once at the start of each run.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxConsecutiveRejects overrides the burst-abort threshold.
func WithMaxConsecutiveRejects(n int) Option {
	return func(s *Sampler) {
		if n > 0 {
			s.maxConsecutiveRejects = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Sampler) {
		s.log = logger.Ensure(log)
	}
}

// New builds a Sampler that snapshots feeds through snapshots.
func New(snapshots feeds.Snapshotter, opts ...Option) *Sampler {
	s := &Sampler{
		snapshots:             snapshots,
		rng:                   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:                   time.Now,
		maxConsecutiveRejects: DefaultMaxConsecutiveRejects,
		log:                   logger.NopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample draws feeds uniformly at random, with replacement, until req.TargetCount
// distinct fresh articles are accepted or the retry budget is spent. Fewer articles
// than requested is a normal outcome. An empty registry fails fast.
//
// Every scanned entry costs one try. A draw whose snapshot is empty also costs one
// try, so Stats.Tries can exceed the number of entries scanned and a registry of
// unreachable feeds still exhausts the budget.
func (s *Sampler) Sample(ctx context.Context, req Request, registry []domain.FeedDescriptor) ([]domain.Article, Stats, error) {
	if len(registry) == 0 {
		return nil, Stats{}, domain.ErrEmptyRegistry
	}

	r := newRun(s, req, registry)
	r.loop(ctx)

	s.log.InfoObj("sampling completed", "sampling_stats", map[string]any{
		"target_count": req.TargetCount,
		"max_age_s":    int64(req.MaxAge / time.Second),
		"max_tries":    req.MaxTries,
		"feeds":        len(registry),
		"draws":        r.stats.Draws,
		"tries":        r.stats.Tries,
		"burst_aborts": r.stats.BurstAborts,
		"accepted":     r.stats.Accepted,
		"termination":  r.stats.Termination,
		"now":          r.stats.Now,
	})

	return r.accepted, r.stats, nil
}
