package feeds

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/samvad-hq/samvad-feed-sampler/internal/dates"
	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
	"github.com/samvad-hq/samvad-feed-sampler/pkg/httpclient"
)

const (
	defaultFeedTimeout = 10 * time.Second
	maxFeedBodyBytes   = 4 << 20 // 4 MiB
)

// Snapshotter produces the current link records of one feed.
type Snapshotter interface {
	Snapshot(ctx context.Context, feed domain.FeedDescriptor, window dates.Window) []domain.LinkRecord
}

// HTTPSnapshotter downloads feeds over HTTP and parses them with gofeed.
type HTTPSnapshotter struct {
	client   httpclient.Client
	identity *httpclient.IdentityPicker
	timeout  time.Duration
	log      Logger
}

// NewHTTPSnapshotter builds a snapshotter. Nil arguments fall back to defaults.
func NewHTTPSnapshotter(client httpclient.Client, identity *httpclient.IdentityPicker, timeout time.Duration, log Logger) *HTTPSnapshotter {
	if client == nil {
		client = httpclient.NewRestyClient(timeout)
	}
	if identity == nil {
		identity = httpclient.NewIdentityPicker(nil)
	}
	if timeout <= 0 {
		timeout = defaultFeedTimeout
	}
	return &HTTPSnapshotter{
		client:   client,
		identity: identity,
		timeout:  timeout,
		log:      ensureLogger(log),
	}
}

// Snapshot returns the feed's dated, titled, linked entries inside window, in feed
// order. A feed that cannot be fetched or parsed yields an empty list.
func (s *HTTPSnapshotter) Snapshot(ctx context.Context, feed domain.FeedDescriptor, window dates.Window) []domain.LinkRecord {
	entries, err := s.fetch(ctx, feed)
	if err != nil {
		s.log.WarnObj("feed snapshot failed", "feed_error", map[string]any{
			"feed_url": feed.URL,
			"source":   feed.Source,
			"error":    err.Error(),
		})
		return nil
	}

	links := LinkRecords(entries, window, s.log)
	s.log.DebugObj("feed snapshot completed", "feed_snapshot", map[string]any{
		"feed_url": feed.URL,
		"entries":  len(entries),
		"kept":     len(links),
	})
	return links
}

func (s *HTTPSnapshotter) fetch(ctx context.Context, feed domain.FeedDescriptor) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Get(ctx, feed.URL, s.identity.FeedHeaders())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrFeedFetch, feed.URL, err)
	}
	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d body: %s", domain.ErrFeedFetch, feed.URL, resp.StatusCode(), responseSnippet(body))
	}
	if len(body) > maxFeedBodyBytes {
		return nil, fmt.Errorf("%w: %s body exceeds %d bytes", domain.ErrFeedFetch, feed.URL, maxFeedBodyBytes)
	}

	return ParseEntries(body)
}

// ParseEntries parses an RSS, Atom or JSON feed document into raw entries.
func ParseEntries(body []byte) ([]Entry, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed: %v", domain.ErrFeedFetch, err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entries = append(entries, entryFromItem(item))
	}
	return entries, nil
}

// LinkRecords applies the snapshot skip rules: entries without a parseable date,
// outside window, or missing a title or link are dropped.
func LinkRecords(entries []Entry, window dates.Window, log Logger) []domain.LinkRecord {
	log = ensureLogger(log)

	out := make([]domain.LinkRecord, 0, len(entries))
	for _, e := range entries {
		raw, field, ok := e.RawDate()
		if !ok {
			continue
		}
		published, err := dates.Parse(raw)
		if err != nil {
			log.DebugObj("feed entry date unparseable", "entry_date", map[string]any{
				"link":  e.Link,
				"field": field,
				"error": err.Error(),
			})
			continue
		}
		if !window.Contains(published) {
			continue
		}
		if e.Title == "" || e.Link == "" {
			continue
		}

		out = append(out, domain.LinkRecord{
			Title:       e.Title,
			URL:         e.Link,
			PublishedAt: published,
			Description: e.Description,
		})
	}
	return out
}
