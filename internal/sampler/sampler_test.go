package sampler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-feed-sampler/internal/dates"
	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
)

var fixedNow = time.Date(2023, 6, 8, 19, 30, 0, 0, time.UTC)

// fakeSnapshotter serves preset link records per feed URL and counts draws. A feed
// listed in sequence returns its snapshots in order, then nothing.
type fakeSnapshotter struct {
	links    map[string][]domain.LinkRecord
	sequence map[string][][]domain.LinkRecord
	calls    map[string]int
	total    int
}

func (f *fakeSnapshotter) Snapshot(_ context.Context, feed domain.FeedDescriptor, _ dates.Window) []domain.LinkRecord {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	n := f.calls[feed.URL]
	f.calls[feed.URL]++
	f.total++
	if seq, ok := f.sequence[feed.URL]; ok {
		if n < len(seq) {
			return seq[n]
		}
		return nil
	}
	return f.links[feed.URL]
}

func link(url string, age time.Duration) domain.LinkRecord {
	return domain.LinkRecord{Title: "title " + url, URL: url, PublishedAt: fixedNow.Add(-age)}
}

func newTestSampler(snap *fakeSnapshotter, seed uint64) *Sampler {
	return New(snap,
		WithRand(rand.New(rand.NewPCG(seed, seed+1))),
		WithClock(func() time.Time { return fixedNow }),
	)
}

func TestSampleSingleFeedReturnsOnlyFreshEntries(t *testing.T) {
	feed := domain.FeedDescriptor{Source: "Wire", Language: "en-US", URL: "https://wire.example/rss"}
	snap := &fakeSnapshotter{links: map[string][]domain.LinkRecord{
		feed.URL: {
			link("https://wire.example/now", 0),
			link("https://wire.example/ten", 10*time.Second),
			link("https://wire.example/old", 1000*time.Second),
		},
	}}

	articles, stats, err := newTestSampler(snap, 1).Sample(context.Background(), Request{
		TargetCount: 5,
		MaxAge:      60 * time.Second,
		MaxTries:    50,
	}, []domain.FeedDescriptor{feed})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(articles))
	}
	if articles[0].URL != "https://wire.example/now" || articles[1].URL != "https://wire.example/ten" {
		t.Fatalf("unexpected articles %#v", articles)
	}
	if articles[0].Source != "Wire" || articles[0].Language != "en-US" || articles[0].Content != nil {
		t.Fatalf("article not built from feed and link: %#v", articles[0])
	}
	if stats.Termination != TerminationBudgetExhausted {
		t.Fatalf("Termination = %s", stats.Termination)
	}
	if stats.Tries <= 50 {
		t.Fatalf("expected tries past the budget when stopping, got %d", stats.Tries)
	}
}

func TestSampleStopsWhenTargetReachedMidFeed(t *testing.T) {
	feed := domain.FeedDescriptor{URL: "https://wire.example/rss"}
	links := make([]domain.LinkRecord, 0, 5)
	for i := 0; i < 5; i++ {
		links = append(links, link(fmt.Sprintf("https://wire.example/%d", i), 0))
	}
	snap := &fakeSnapshotter{links: map[string][]domain.LinkRecord{feed.URL: links}}

	articles, stats, err := newTestSampler(snap, 2).Sample(context.Background(), Request{
		TargetCount: 2,
		MaxAge:      time.Minute,
		MaxTries:    10,
	}, []domain.FeedDescriptor{feed})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(articles) != 2 || stats.Tries != 2 || stats.Draws != 1 {
		t.Fatalf("expected early stop, got %d articles stats=%+v", len(articles), stats)
	}
	if stats.Termination != TerminationTargetReached {
		t.Fatalf("Termination = %s", stats.Termination)
	}
}

func TestSampleAbandonsFeedAfterRejectBurst(t *testing.T) {
	feed := domain.FeedDescriptor{URL: "https://stale.example/rss"}
	links := make([]domain.LinkRecord, 0, 7)
	for i := 0; i < 6; i++ {
		links = append(links, link(fmt.Sprintf("https://stale.example/%d", i), time.Hour))
	}
	links = append(links, link("https://stale.example/fresh", 0))
	snap := &fakeSnapshotter{links: map[string][]domain.LinkRecord{feed.URL: links}}

	articles, stats, err := newTestSampler(snap, 3).Sample(context.Background(), Request{
		TargetCount: 1,
		MaxAge:      time.Minute,
		MaxTries:    5,
	}, []domain.FeedDescriptor{feed})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(articles) != 0 {
		t.Fatalf("fresh entry after the burst must not be reached, got %#v", articles)
	}
	if stats.Tries != 6 || stats.BurstAborts != 1 || stats.Draws != 1 {
		t.Fatalf("expected abandonment after exactly 6 rejects, stats=%+v", stats)
	}
}

func TestSampleAcceptsEntryBeforeBurstLimit(t *testing.T) {
	feed := domain.FeedDescriptor{URL: "https://mixed.example/rss"}
	links := make([]domain.LinkRecord, 0, 5)
	for i := 0; i < 4; i++ {
		links = append(links, link(fmt.Sprintf("https://mixed.example/%d", i), time.Hour))
	}
	links = append(links, link("https://mixed.example/fresh", 0))
	snap := &fakeSnapshotter{links: map[string][]domain.LinkRecord{feed.URL: links}}

	articles, stats, err := newTestSampler(snap, 4).Sample(context.Background(), Request{
		TargetCount: 1,
		MaxAge:      time.Minute,
		MaxTries:    100,
	}, []domain.FeedDescriptor{feed})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(articles) != 1 || articles[0].URL != "https://mixed.example/fresh" {
		t.Fatalf("unexpected articles %#v", articles)
	}
	if stats.BurstAborts != 0 || stats.Tries != 5 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestSampleBurstCounterCarriesAcrossDraws(t *testing.T) {
	feed := domain.FeedDescriptor{URL: "https://wire.example/rss"}
	snap := &fakeSnapshotter{sequence: map[string][][]domain.LinkRecord{
		feed.URL: {
			{
				link("https://wire.example/old-1", time.Hour),
				link("https://wire.example/old-2", time.Hour),
				link("https://wire.example/old-3", time.Hour),
			},
			{
				link("https://wire.example/old-4", time.Hour),
				link("https://wire.example/old-5", time.Hour),
				link("https://wire.example/fresh", 0),
			},
		},
	}}

	articles, stats, err := newTestSampler(snap, 5).Sample(context.Background(), Request{
		TargetCount: 1,
		MaxAge:      time.Minute,
		MaxTries:    6,
	}, []domain.FeedDescriptor{feed})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(articles) != 0 {
		t.Fatalf("fresh entry is the sixth consecutive reject and must be skipped, got %#v", articles)
	}
	if stats.BurstAborts != 1 {
		t.Fatalf("expected a burst abort on the second draw, stats=%+v", stats)
	}
	if stats.Draws != 3 || stats.Tries != 7 || stats.Termination != TerminationBudgetExhausted {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestSampleAcceptanceClearsBurstCounter(t *testing.T) {
	feed := domain.FeedDescriptor{URL: "https://mixed.example/rss"}
	links := make([]domain.LinkRecord, 0, 10)
	for i := 0; i < 4; i++ {
		links = append(links, link(fmt.Sprintf("https://mixed.example/old-a%d", i), time.Hour))
	}
	links = append(links, link("https://mixed.example/fresh-1", 0))
	for i := 0; i < 4; i++ {
		links = append(links, link(fmt.Sprintf("https://mixed.example/old-b%d", i), time.Hour))
	}
	links = append(links, link("https://mixed.example/fresh-2", 0))
	snap := &fakeSnapshotter{links: map[string][]domain.LinkRecord{feed.URL: links}}

	articles, stats, err := newTestSampler(snap, 6).Sample(context.Background(), Request{
		TargetCount: 2,
		MaxAge:      time.Minute,
		MaxTries:    100,
	}, []domain.FeedDescriptor{feed})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(articles) != 2 || stats.BurstAborts != 0 || stats.Draws != 1 {
		t.Fatalf("expected both fresh entries from one draw, got %d articles stats=%+v", len(articles), stats)
	}
}

func TestSampleStopsDrawingOnceBudgetExceeded(t *testing.T) {
	registry := []domain.FeedDescriptor{
		{URL: "https://dead-1.example/rss"},
		{URL: "https://dead-2.example/rss"},
	}
	snap := &fakeSnapshotter{}

	articles, stats, err := newTestSampler(snap, 6).Sample(context.Background(), Request{
		TargetCount: 3,
		MaxAge:      time.Minute,
		MaxTries:    3,
	}, registry)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(articles) != 0 {
		t.Fatalf("expected no articles, got %d", len(articles))
	}
	if snap.total != 4 || stats.Draws != 4 {
		t.Fatalf("expected 4 draws before the budget check fails, got %d (stats=%+v)", snap.total, stats)
	}
	if stats.Termination != TerminationBudgetExhausted {
		t.Fatalf("Termination = %s", stats.Termination)
	}
}

func TestSampleEmptyRegistryFailsFast(t *testing.T) {
	snap := &fakeSnapshotter{}
	_, _, err := newTestSampler(snap, 7).Sample(context.Background(), Request{TargetCount: 1, MaxTries: 1}, nil)
	if !errors.Is(err, domain.ErrEmptyRegistry) {
		t.Fatalf("expected ErrEmptyRegistry, got %v", err)
	}
	if snap.total != 0 {
		t.Fatalf("no feed should be drawn")
	}
}

func TestSampleHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap := &fakeSnapshotter{}
	articles, stats, err := newTestSampler(snap, 8).Sample(ctx, Request{TargetCount: 1, MaxTries: 100}, []domain.FeedDescriptor{{URL: "https://a.example"}})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(articles) != 0 || snap.total != 0 || stats.Termination != TerminationCancelled {
		t.Fatalf("expected cancelled run without draws, stats=%+v", stats)
	}
}

func TestSampleAcceptsFutureDatedEntries(t *testing.T) {
	feed := domain.FeedDescriptor{URL: "https://future.example/rss"}
	snap := &fakeSnapshotter{links: map[string][]domain.LinkRecord{
		feed.URL: {link("https://future.example/a", -time.Hour)},
	}}

	articles, _, err := newTestSampler(snap, 9).Sample(context.Background(), Request{
		TargetCount: 1,
		MaxAge:      time.Second,
		MaxTries:    5,
	}, []domain.FeedDescriptor{feed})
	if err != nil || len(articles) != 1 {
		t.Fatalf("expected future-dated article to be accepted, got %d err=%v", len(articles), err)
	}
}

func TestSampleInvariantsAcrossSeeds(t *testing.T) {
	registry := make([]domain.FeedDescriptor, 0, 6)
	links := make(map[string][]domain.LinkRecord)
	for f := 0; f < 6; f++ {
		url := fmt.Sprintf("https://feed-%d.example/rss", f)
		registry = append(registry, domain.FeedDescriptor{URL: url})
		for i := 0; i < 8; i++ {
			// Shared URLs across feeds exercise deduplication.
			shared := fmt.Sprintf("https://news.example/%d", (f+i)%10)
			links[url] = append(links[url], link(shared, time.Duration(i*40)*time.Second))
		}
	}
	maxAge := 2 * time.Minute

	for seed := uint64(0); seed < 25; seed++ {
		snap := &fakeSnapshotter{links: links}
		target := int(seed%7) + 1

		articles, stats, err := newTestSampler(snap, seed).Sample(context.Background(), Request{
			TargetCount: target,
			MaxAge:      maxAge,
			MaxTries:    int(seed % 20),
		}, registry)
		if err != nil {
			t.Fatalf("seed %d: Sample: %v", seed, err)
		}
		if len(articles) > target {
			t.Fatalf("seed %d: %d articles exceed target %d", seed, len(articles), target)
		}
		seen := make(map[string]bool)
		for _, a := range articles {
			if seen[a.URL] {
				t.Fatalf("seed %d: duplicate url %s", seed, a.URL)
			}
			seen[a.URL] = true
			if fixedNow.Sub(a.PublishedAt) > maxAge {
				t.Fatalf("seed %d: stale article %s", seed, a.URL)
			}
		}
		if stats.Accepted != len(articles) {
			t.Fatalf("seed %d: stats.Accepted = %d", seed, stats.Accepted)
		}
	}
}
