package domain

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"time"
)

// Domain contains core models and interfaces.

// FeedDescriptor identifies one RSS source from the feed registry. Identity is URL.
type FeedDescriptor struct {
	Source        string
	Description   string
	Language      string
	URL           string
	LastBuildDate string
}

// LinkRecord is one normalized feed entry. PublishedAt is UTC with second precision.
type LinkRecord struct {
	Title       string
	URL         string
	PublishedAt time.Time
	Description string
}

// Article is a selected link bound to the feed it came from.
type Article struct {
	Source            string    `json:"source"`
	SourceDescription string    `json:"source_description"`
	Language          string    `json:"language"`
	Title             string    `json:"title"`
	URL               string    `json:"url"`
	PublishedAt       time.Time `json:"published_at"`
	Description       string    `json:"description,omitempty"`
	Content           *string   `json:"content,omitempty"`
}

// NewArticle binds a link record to its feed.
func NewArticle(feed FeedDescriptor, link LinkRecord) Article {
	return Article{
		Source:            feed.Source,
		SourceDescription: feed.Description,
		Language:          feed.Language,
		Title:             link.Title,
		URL:               link.URL,
		PublishedAt:       link.PublishedAt,
		Description:       link.Description,
	}
}

// SetContent assigns the hydrated body. Only the first call has an effect.
func (a *Article) SetContent(text string) {
	if a == nil || a.Content != nil {
		return
	}
	a.Content = &text
}

// ContentText returns the hydrated body or an empty string.
func (a Article) ContentText() string {
	if a.Content == nil {
		return ""
	}
	return *a.Content
}

// LanguageHint approximates a two-letter ISO code from the feed language tag.
func (a Article) LanguageHint() string {
	if len(a.Language) < 2 {
		return a.Language
	}
	return a.Language[:2]
}

// ID returns a stable identifier derived from the article URL.
func (a Article) ID() string {
	return HashURL(a.URL)
}

// HashURL hashes a URL into a hex id.
func HashURL(u string) string {
	sum := sha1.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}

// Item is the record surfaced to callers once an article is emitted.
type Item struct {
	Content   string `json:"content"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
	Title     string `json:"title"`
	Domain    string `json:"domain"`
	URL       string `json:"url"`
	Language  string `json:"language"`
}
