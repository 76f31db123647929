package app

import (
	"unicode/utf8"

	"github.com/samvad-hq/samvad-feed-sampler/internal/dates"
	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
)

// ItemOptions shape the emitted item records.
type ItemOptions struct {
	Domain           string
	MaxContentLength int
	// DescriptionFallback uses the feed description when extraction found no text.
	DescriptionFallback bool
	// MinPostLength drops items whose content is shorter, when positive.
	MinPostLength int
}

// BuildItems converts hydrated articles into output items, preserving order.
func BuildItems(articles []domain.Article, opts ItemOptions) []domain.Item {
	items := make([]domain.Item, 0, len(articles))
	for _, a := range articles {
		item := toItem(a, opts)
		if opts.MinPostLength > 0 && utf8.RuneCountInString(item.Content) < opts.MinPostLength {
			continue
		}
		items = append(items, item)
	}
	return items
}

func toItem(a domain.Article, opts ItemOptions) domain.Item {
	content := a.ContentText()
	if content == "" && opts.DescriptionFallback {
		content = a.Description
	}
	return domain.Item{
		Content:   truncateRunes(content, opts.MaxContentLength),
		Author:    a.Source,
		CreatedAt: dates.ISO8601(a.PublishedAt),
		Title:     a.Title,
		Domain:    opts.Domain,
		URL:       a.URL,
		Language:  a.LanguageHint(),
	}
}

// truncateRunes cuts s to at most n runes; n <= 0 disables the cut.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
