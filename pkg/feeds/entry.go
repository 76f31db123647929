package feeds

import (
	"strings"

	"github.com/mmcdole/gofeed"
)

// Entry is one raw feed item as parsed, before any normalization.
type Entry struct {
	Title       string
	Link        string
	Description string

	// Candidate publish-date fields, looked up in dateFields order.
	Published string
	PubDate   string
	Updated   string
}

// dateFields lists the publish-date fields in priority order.
var dateFields = []struct {
	name string
	get  func(Entry) string
}{
	{name: "published", get: func(e Entry) string { return e.Published }},
	{name: "pubDate", get: func(e Entry) string { return e.PubDate }},
	{name: "updated", get: func(e Entry) string { return e.Updated }},
}

// RawDate returns the first present publish-date value and the field it came from.
func (e Entry) RawDate() (value, field string, ok bool) {
	for _, f := range dateFields {
		if v := strings.TrimSpace(f.get(e)); v != "" {
			return v, f.name, true
		}
	}
	return "", "", false
}

// entryFromItem maps a gofeed item onto Entry. gofeed folds RSS pubDate and Atom
// published into Published; Dublin Core dc:date is surfaced as the pubDate fallback.
func entryFromItem(item *gofeed.Item) Entry {
	if item == nil {
		return Entry{}
	}
	e := Entry{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Description: strings.TrimSpace(item.Description),
		Published:   item.Published,
		Updated:     item.Updated,
	}
	if e.Link == "" && len(item.Links) > 0 {
		e.Link = strings.TrimSpace(item.Links[0])
	}
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Date) > 0 {
		e.PubDate = item.DublinCoreExt.Date[0]
	}
	return e
}
