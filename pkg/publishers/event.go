package publishers

import (
	"time"

	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
)

// Event is the payload published downstream for one emitted item.
type Event struct {
	ArticleID string      `json:"article_id"`
	Item      domain.Item `json:"item"`
	EmittedAt time.Time   `json:"emitted_at"`
}

// NewEvent wraps an item; the id is derived from the item URL.
func NewEvent(item domain.Item) Event {
	return Event{
		ArticleID: domain.HashURL(item.URL),
		Item:      item,
		EmittedAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes attached by queue and topic publishers.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{"article_id": e.ArticleID}
	if e.Item.Author != "" {
		attrs["source"] = e.Item.Author
	}
	if e.Item.Domain != "" {
		attrs["domain"] = e.Item.Domain
	}
	if e.Item.Language != "" {
		attrs["language"] = e.Item.Language
	}
	return attrs
}
