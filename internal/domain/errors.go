package domain

import "errors"

var (
	// ErrDateParse marks a timestamp that could not be parsed. Callers treat the date as unknown.
	ErrDateParse = errors.New("date parse")
	// ErrFeedFetch marks a network or parse failure on a single feed.
	ErrFeedFetch = errors.New("feed fetch")
	// ErrArticleExtraction marks a download or parse failure on a single article.
	ErrArticleExtraction = errors.New("article extraction")
	// ErrRegistryFetch marks the feed registry as unavailable for the run.
	ErrRegistryFetch = errors.New("registry fetch")
	// ErrEmptyRegistry is returned when there is no feed to draw from.
	ErrEmptyRegistry = errors.New("feed registry is empty")
)
