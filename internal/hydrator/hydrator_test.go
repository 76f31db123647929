package hydrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
)

// fakeExtractor returns canned text per URL and tracks concurrency.
type fakeExtractor struct {
	mu       sync.Mutex
	texts    map[string]string
	failURL  string
	block    bool
	langs    map[string]string
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeExtractor) Extract(ctx context.Context, url, lang string) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	if f.langs == nil {
		f.langs = make(map[string]string)
	}
	f.langs[url] = lang
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	time.Sleep(5 * time.Millisecond)
	if url == f.failURL {
		return "", errors.New("boom")
	}
	return f.texts[url], nil
}

func TestHydrateAssignsContentByURL(t *testing.T) {
	ext := &fakeExtractor{
		texts: map[string]string{
			"https://a.example": "body a",
			"https://b.example": "body b",
		},
		failURL: "https://c.example",
	}
	articles := []domain.Article{
		{URL: "https://a.example", Language: "en-US"},
		{URL: "https://b.example", Language: "fr"},
		{URL: "https://c.example", Language: "de-DE"},
	}

	report := New(ext, Options{Workers: 2}, nil).Hydrate(context.Background(), articles)

	if got := articles[0].ContentText(); got != "body a" {
		t.Fatalf("article a content = %q", got)
	}
	if got := articles[1].ContentText(); got != "body b" {
		t.Fatalf("article b content = %q", got)
	}
	if articles[2].Content == nil || *articles[2].Content != "" {
		t.Fatalf("failed article must get empty content, got %#v", articles[2].Content)
	}
	if report.Requested != 3 || report.Extracted != 2 || report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if ext.langs["https://a.example"] != "en" || ext.langs["https://c.example"] != "de" {
		t.Fatalf("unexpected language hints %#v", ext.langs)
	}
}

func TestHydrateRespectsWorkerLimit(t *testing.T) {
	ext := &fakeExtractor{texts: map[string]string{}}
	articles := make([]domain.Article, 0, 12)
	for i := 0; i < 12; i++ {
		articles = append(articles, domain.Article{URL: "https://example.com/" + string(rune('a'+i))})
	}

	New(ext, Options{Workers: 3}, nil).Hydrate(context.Background(), articles)

	if peak := ext.peak.Load(); peak > 3 {
		t.Fatalf("expected at most 3 concurrent extractions, saw %d", peak)
	}
}

func TestHydrateTimesOutSlowArticles(t *testing.T) {
	ext := &fakeExtractor{block: true}
	articles := []domain.Article{{URL: "https://slow.example"}}

	start := time.Now()
	report := New(ext, Options{Workers: 1, Timeout: 20 * time.Millisecond}, nil).Hydrate(context.Background(), articles)

	if time.Since(start) > 2*time.Second {
		t.Fatalf("hydration did not honour the per-article timeout")
	}
	if report.Failed != 1 || articles[0].ContentText() != "" {
		t.Fatalf("expected timed out article to be empty, report=%+v", report)
	}
}

func TestHydrateWithRateLimiter(t *testing.T) {
	ext := &fakeExtractor{texts: map[string]string{"https://a.example": "a", "https://b.example": "b"}}
	articles := []domain.Article{{URL: "https://a.example"}, {URL: "https://b.example"}}

	report := New(ext, Options{Workers: 2, RatePerSecond: 100}, nil).Hydrate(context.Background(), articles)
	if report.Extracted != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
}
