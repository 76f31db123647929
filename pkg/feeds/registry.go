package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/samvad-hq/samvad-feed-sampler/internal/domain"
	"github.com/samvad-hq/samvad-feed-sampler/pkg/httpclient"
	"gopkg.in/yaml.v3"
)

// Package feeds loads the feed registry and snapshots individual feeds.

// registryEntry is the wire form of one registry object. Required fields are pointers
// so a missing key can be told apart from an empty value.
type registryEntry struct {
	Source        *string `json:"Source" yaml:"Source"`
	Description   *string `json:"Description" yaml:"Description"`
	Language      *string `json:"Language" yaml:"Language"`
	URL           *string `json:"URL" yaml:"URL"`
	LastBuildDate *string `json:"Last_Build_Date,omitempty" yaml:"Last_Build_Date,omitempty"`
}

func (e registryEntry) descriptor() (domain.FeedDescriptor, error) {
	missing := make([]string, 0, 4)
	if e.Source == nil {
		missing = append(missing, "Source")
	}
	if e.Description == nil {
		missing = append(missing, "Description")
	}
	if e.Language == nil {
		missing = append(missing, "Language")
	}
	if e.URL == nil {
		missing = append(missing, "URL")
	}
	if len(missing) > 0 {
		return domain.FeedDescriptor{}, fmt.Errorf("missing required field(s) %s", strings.Join(missing, ", "))
	}

	d := domain.FeedDescriptor{
		Source:      *e.Source,
		Description: *e.Description,
		Language:    *e.Language,
		URL:         *e.URL,
	}
	if e.LastBuildDate != nil {
		d.LastBuildDate = *e.LastBuildDate
	}
	return d, nil
}

func entryFor(d domain.FeedDescriptor) registryEntry {
	e := registryEntry{
		Source:      &d.Source,
		Description: &d.Description,
		Language:    &d.Language,
		URL:         &d.URL,
	}
	if d.LastBuildDate != "" {
		e.LastBuildDate = &d.LastBuildDate
	}
	return e
}

type unmarshalFn func([]byte, any) error

// ParseRegistry decodes a registry document. ext selects the format (".json", ".yaml",
// ".yml"); an empty ext tries JSON then YAML. Any entry missing a required field fails
// the whole call.
func ParseRegistry(data []byte, ext string) ([]domain.FeedDescriptor, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "json", ext: ".json", fn: json.Unmarshal},
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
	}

	var lastErr error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var entries []registryEntry
		if err := d.fn(data, &entries); err != nil {
			lastErr = fmt.Errorf("decode %s registry: %w", d.name, err)
			continue
		}
		return descriptorsFrom(entries)
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("registry format not recognized (expected JSON or YAML)")
}

func descriptorsFrom(entries []registryEntry) ([]domain.FeedDescriptor, error) {
	out := make([]domain.FeedDescriptor, 0, len(entries))
	for i, e := range entries {
		d, err := e.descriptor()
		if err != nil {
			return nil, fmt.Errorf("registry[%d]: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

// MarshalRegistry encodes descriptors in the registry JSON form.
func MarshalRegistry(descs []domain.FeedDescriptor) ([]byte, error) {
	entries := make([]registryEntry, 0, len(descs))
	for _, d := range descs {
		entries = append(entries, entryFor(d))
	}
	return json.Marshal(entries)
}

// LoadRegistryFile reads and parses a local registry file.
func LoadRegistryFile(path string) ([]domain.FeedDescriptor, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: registry file path is empty", domain.ErrRegistryFetch)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open registry file: %v", domain.ErrRegistryFetch, err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read registry file: %v", domain.ErrRegistryFetch, err)
	}

	descs, err := ParseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRegistryFetch, err)
	}
	return descs, nil
}

// RegistryLoader fetches the registry document over HTTP.
type RegistryLoader struct {
	client httpclient.Client
	url    string
}

// NewRegistryLoader builds a loader for url; a nil client uses the default resty client.
func NewRegistryLoader(client httpclient.Client, url string) *RegistryLoader {
	if client == nil {
		client = httpclient.NewRestyClient(0)
	}
	return &RegistryLoader{client: client, url: strings.TrimSpace(url)}
}

// Fetch downloads and parses the registry.
func (l *RegistryLoader) Fetch(ctx context.Context) ([]domain.FeedDescriptor, error) {
	if l == nil || l.url == "" {
		return nil, fmt.Errorf("%w: registry url is empty", domain.ErrRegistryFetch)
	}

	resp, err := l.client.Get(ctx, l.url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", domain.ErrRegistryFetch, l.url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d body: %s", domain.ErrRegistryFetch, l.url, resp.StatusCode(), responseSnippet(resp.Body()))
	}

	// Content type is not trusted; the registry host serves JSON as text/plain.
	descs, err := ParseRegistry(resp.Body(), ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRegistryFetch, err)
	}
	return descs, nil
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
