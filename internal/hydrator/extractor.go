package hydrator

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
	"github.com/samvad-hq/samvad-feed-sampler/pkg/httpclient"
)

const (
	maxHTMLBodyBytes = 2 << 20 // 2 MiB
)

// Extractor downloads one article and returns its plain text.
type Extractor interface {
	Extract(ctx context.Context, url, lang string) (string, error)
}

// HTMLExtractor fetches article pages and extracts paragraph text with goquery.
type HTMLExtractor struct {
	client   httpclient.Client
	identity *httpclient.IdentityPicker
}

// NewHTMLExtractor constructs an extractor with the provided HTTP client (or default).
func NewHTMLExtractor(client httpclient.Client, identity *httpclient.IdentityPicker) *HTMLExtractor {
	if client == nil {
		client = httpclient.NewRestyClient(0)
	}
	if identity == nil {
		identity = httpclient.NewIdentityPicker(nil)
	}
	return &HTMLExtractor{client: client, identity: identity}
}

// Extract downloads url under a random browser identity and returns its body text.
func (e *HTMLExtractor) Extract(ctx context.Context, url, lang string) (string, error) {
	resp, err := e.client.Get(ctx, url, e.identity.BrowserHeaders(lang))
	if err != nil {
		return "", fmt.Errorf("%w: http fetch: %v", domain.ErrArticleExtraction, err)
	}

	if resp.StatusCode() != http.StatusOK {
		snippet := strings.TrimSpace(string(resp.Body()))
		if len(snippet) > 1024 {
			snippet = snippet[:1024]
		}
		return "", fmt.Errorf("%w: status %d body: %s", domain.ErrArticleExtraction, resp.StatusCode(), snippet)
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	text, err := extractText(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrArticleExtraction, err)
	}
	return text, nil
}

// extractText prefers paragraphs inside <article>, then <main>, then the whole page,
// and falls back to the page description when no paragraph carries text.
func extractText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, nav, header, footer, aside, form").Remove()

	for _, sel := range []string{"article p", "main p", "p"} {
		if paragraphs := collectText(doc.Find(sel)); len(paragraphs) > 0 {
			return strings.Join(paragraphs, "\n\n"), nil
		}
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}
	return firstNonEmpty(
		extract(`meta[property="og:description"]`),
		extract(`meta[name="description"]`),
	), nil
}

func collectText(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		if text := strings.Join(strings.Fields(s.Text()), " "); text != "" {
			out = append(out, text)
		}
	})
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
