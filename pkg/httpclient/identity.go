package httpclient

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Browser identities rotated per request so article hosts see ordinary traffic.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.2478.80",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4.1 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.6367.82 Mobile Safari/537.36",
}

// IdentityPicker hands out randomized browser identities. Safe for concurrent use.
type IdentityPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewIdentityPicker builds a picker; a nil rng uses a randomly seeded source.
func NewIdentityPicker(rng *rand.Rand) *IdentityPicker {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &IdentityPicker{rng: rng}
}

// UserAgent returns one browser User-Agent string.
func (p *IdentityPicker) UserAgent() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return userAgents[p.rng.IntN(len(userAgents))]
}

// BrowserHeaders builds request headers for a random identity. lang, when set, is
// sent as the preferred Accept-Language.
func (p *IdentityPicker) BrowserHeaders(lang string) map[string]string {
	headers := map[string]string{
		"User-Agent": p.UserAgent(),
		"Accept":     "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	}
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang != "" {
		headers["Accept-Language"] = lang + ",en;q=0.5"
	}
	return headers
}

// FeedHeaders builds request headers for fetching RSS/Atom documents.
func (p *IdentityPicker) FeedHeaders() map[string]string {
	return map[string]string{
		"User-Agent": p.UserAgent(),
		"Accept":     "application/rss+xml,application/atom+xml,application/xml;q=0.9,text/xml;q=0.8,*/*;q=0.5",
	}
}
