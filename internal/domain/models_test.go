package domain

import "testing"

func TestSetContentAssignsOnce(t *testing.T) {
	a := &Article{URL: "https://example.com/a"}
	if a.ContentText() != "" {
		t.Fatalf("expected empty content before hydration")
	}

	a.SetContent("first")
	a.SetContent("second")

	if got := a.ContentText(); got != "first" {
		t.Fatalf("ContentText = %q want first", got)
	}
}

func TestLanguageHint(t *testing.T) {
	cases := map[string]string{
		"en-US": "en",
		"fr":    "fr",
		"d":     "d",
		"":      "",
	}
	for lang, want := range cases {
		if got := (Article{Language: lang}).LanguageHint(); got != want {
			t.Errorf("LanguageHint(%q) = %q want %q", lang, got, want)
		}
	}
}

func TestNewArticleCopiesFeedAndLink(t *testing.T) {
	feed := FeedDescriptor{Source: "Wire", Description: "World news", Language: "en-GB", URL: "https://wire.example/rss"}
	link := LinkRecord{Title: "Headline", URL: "https://wire.example/a", Description: "summary"}

	a := NewArticle(feed, link)
	if a.Source != "Wire" || a.SourceDescription != "World news" || a.Language != "en-GB" {
		t.Fatalf("feed fields not copied: %#v", a)
	}
	if a.Title != "Headline" || a.URL != "https://wire.example/a" || a.Description != "summary" {
		t.Fatalf("link fields not copied: %#v", a)
	}
	if a.Content != nil {
		t.Fatalf("content must be absent until hydrated")
	}
	if a.ID() != HashURL(link.URL) || len(a.ID()) != 40 {
		t.Fatalf("unexpected id %q", a.ID())
	}
}
