package publishers

import "github.com/samvad-hq/samvad-feed-sampler/internal/domain"

func sampleEvent() Event {
	return NewEvent(domain.Item{
		Content:   "Full text",
		Author:    "Wire",
		CreatedAt: "2023-06-08T19:28:51.000000Z",
		Title:     "Markets rally",
		Domain:    "news.exorde",
		URL:       "https://wire.example/markets",
		Language:  "en",
	})
}
