package feeds

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-feed-sampler/internal/dates"
	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
	"github.com/samvad-hq/samvad-feed-sampler/pkg/httpclient"
)

// fakeResponse lets us stub the httpclient.Client interface.
type fakeResponse struct {
	body       []byte
	statusCode int
}

func (f fakeResponse) Body() []byte    { return f.body }
func (f fakeResponse) StatusCode() int { return f.statusCode }

// fakeHTTPClient returns canned responses per URL to avoid network calls.
type fakeHTTPClient struct {
	responses map[string]fakeResponse
	calls     []string
	headers   []map[string]string
}

func (f *fakeHTTPClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	f.calls = append(f.calls, url)
	f.headers = append(f.headers, headers)
	resp, ok := f.responses[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return resp, nil
}

const rssDoc = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <channel>
    <title>Wire</title>
    <link>https://wire.example</link>
    <description>World news</description>
    <item>
      <title>Kept</title>
      <link>https://wire.example/kept</link>
      <description>summary</description>
      <pubDate>Thu, 08 Jun 2023 21:30:00 +0200</pubDate>
    </item>
    <item>
      <title>Undated</title>
      <link>https://wire.example/undated</link>
    </item>
    <item>
      <title>Bad date</title>
      <link>https://wire.example/bad-date</link>
      <pubDate>someday soon</pubDate>
    </item>
    <item>
      <link>https://wire.example/untitled</link>
      <pubDate>Thu, 08 Jun 2023 19:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Ancient</title>
      <link>https://wire.example/ancient</link>
      <pubDate>Fri, 01 Jan 1999 00:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Dublin Core dated</title>
      <link>https://wire.example/dc</link>
      <dc:date>2023-06-08T18:00:00Z</dc:date>
    </item>
  </channel>
</rss>`

const atomDoc = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Wire</title>
  <id>urn:uuid:atom-wire</id>
  <updated>2023-06-08T19:00:00Z</updated>
  <entry>
    <title>Updated only</title>
    <id>urn:uuid:1</id>
    <link href="https://atom.example/updated"/>
    <updated>2023-06-08T19:00:00Z</updated>
  </entry>
</feed>`

func TestSnapshotAppliesSkipRules(t *testing.T) {
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		"https://wire.example/rss": {body: []byte(rssDoc), statusCode: http.StatusOK},
	}}
	s := NewHTTPSnapshotter(client, nil, time.Second, nil)

	window := dates.Window{
		Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	links := s.Snapshot(context.Background(), domain.FeedDescriptor{URL: "https://wire.example/rss"}, window)

	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d: %#v", len(links), links)
	}
	if links[0].URL != "https://wire.example/kept" || links[0].Title != "Kept" || links[0].Description != "summary" {
		t.Fatalf("unexpected first link %#v", links[0])
	}
	if want := time.Date(2023, 6, 8, 19, 30, 0, 0, time.UTC); !links[0].PublishedAt.Equal(want) {
		t.Fatalf("PublishedAt = %v want %v", links[0].PublishedAt, want)
	}
	if links[1].URL != "https://wire.example/dc" {
		t.Fatalf("unexpected second link %#v", links[1])
	}
	if ua := client.headers[0]["User-Agent"]; ua == "" {
		t.Fatalf("expected a browser identity on feed requests")
	}
}

func TestSnapshotDefaultWindowKeepsOldEntries(t *testing.T) {
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		"https://wire.example/rss": {body: []byte(rssDoc), statusCode: http.StatusOK},
	}}
	s := NewHTTPSnapshotter(client, nil, time.Second, nil)

	links := s.Snapshot(context.Background(), domain.FeedDescriptor{URL: "https://wire.example/rss"}, dates.DefaultWindow())
	if len(links) != 3 {
		t.Fatalf("expected 3 links with the default window, got %d", len(links))
	}
}

func TestSnapshotFallsBackToUpdated(t *testing.T) {
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		"https://atom.example/feed": {body: []byte(atomDoc), statusCode: http.StatusOK},
	}}
	s := NewHTTPSnapshotter(client, nil, time.Second, nil)

	links := s.Snapshot(context.Background(), domain.FeedDescriptor{URL: "https://atom.example/feed"}, dates.DefaultWindow())
	if len(links) != 1 || links[0].URL != "https://atom.example/updated" {
		t.Fatalf("unexpected links %#v", links)
	}
}

func TestSnapshotSwallowsFeedFailures(t *testing.T) {
	client := &fakeHTTPClient{responses: map[string]fakeResponse{
		"https://broken.example/rss":  {body: []byte("<html>nope"), statusCode: http.StatusOK},
		"https://missing.example/rss": {body: []byte("gone"), statusCode: http.StatusNotFound},
	}}
	s := NewHTTPSnapshotter(client, nil, time.Second, nil)

	for _, u := range []string{"https://broken.example/rss", "https://missing.example/rss", "https://unreachable.example/rss"} {
		if links := s.Snapshot(context.Background(), domain.FeedDescriptor{URL: u}, dates.DefaultWindow()); len(links) != 0 {
			t.Errorf("%s: expected no links, got %d", u, len(links))
		}
	}
}

func TestEntryRawDatePriority(t *testing.T) {
	e := Entry{Published: " ", PubDate: "Thu, 08 Jun 2023 19:30:00 +0000", Updated: "2023-06-09T00:00:00Z"}
	v, field, ok := e.RawDate()
	if !ok || field != "pubDate" || v != "Thu, 08 Jun 2023 19:30:00 +0000" {
		t.Fatalf("RawDate = %q %q %v", v, field, ok)
	}

	e.Published = "2023-06-01T00:00:00Z"
	if _, field, _ := e.RawDate(); field != "published" {
		t.Fatalf("published must win, got %s", field)
	}

	if _, _, ok := (Entry{}).RawDate(); ok {
		t.Fatalf("expected no date on empty entry")
	}
}
