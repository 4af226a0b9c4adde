package catalog

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	v1 "github.com/salestrack-lab/salestrack/internal/api/v1"
	"gopkg.in/yaml.v3"
)

// Entry is one tracked listing as written in the catalog file.
type Entry struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`

	// SourceID is optional; when empty it is taken from the last numeric path segment of URL.
	SourceID string `yaml:"source_id"`
}

type rawCatalog struct {
	Items []Entry `yaml:"items"`
}

// Catalog is the fixed set of listings the scanner tracks.
// It is loaded once at startup; items removed from the file stay in the store but are no longer reported.
type Catalog struct {
	entries []Entry
	urls    map[string]struct{}
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a Catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return New(raw.Items)
}

// New validates entries and resolves missing source ids.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		urls:    make(map[string]struct{}, len(entries)),
	}

	for i, e := range entries {
		e.Name = strings.TrimSpace(e.Name)
		e.URL = strings.TrimSpace(e.URL)
		e.SourceID = strings.TrimSpace(e.SourceID)

		if e.Name == "" {
			return nil, fmt.Errorf("item %d: name must not be empty", i)
		}
		if e.URL == "" {
			return nil, fmt.Errorf("item %q: url must not be empty", e.Name)
		}
		if _, dup := c.urls[e.URL]; dup {
			return nil, fmt.Errorf("item %q: duplicate url %s", e.Name, e.URL)
		}
		if e.SourceID == "" {
			id, err := SourceIDFromURL(e.URL)
			if err != nil {
				return nil, fmt.Errorf("item %q: %w", e.Name, err)
			}
			e.SourceID = id
		}

		c.urls[e.URL] = struct{}{}
		c.entries = append(c.entries, e)
	}

	return c, nil
}

// SourceIDFromURL extracts the numeric listing id marketplace URLs end with,
// e.g. https://themeforest.net/item/admin-dashboard/23400000.
func SourceIDFromURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}

	last := path.Base(strings.TrimSuffix(u.Path, "/"))
	if last == "" || last == "." || last == "/" || strings.IndexFunc(last, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return "", fmt.Errorf("cannot derive source_id from url %q; set source_id explicitly", raw)
	}
	return last, nil
}

// Items returns the catalog as v1.Item values ready for reconciliation. IDs are left empty.
func (c *Catalog) Items() []v1.Item {
	items := make([]v1.Item, 0, len(c.entries))
	for _, e := range c.entries {
		items = append(items, v1.Item{SourceID: e.SourceID, Name: e.Name, URL: e.URL})
	}
	return items
}

// Tracks reports whether url belongs to the catalog.
func (c *Catalog) Tracks(url string) bool {
	_, ok := c.urls[url]
	return ok
}

// Filter keeps only the items whose URL is in the catalog, preserving order.
func (c *Catalog) Filter(items []v1.Item) []v1.Item {
	out := make([]v1.Item, 0, len(items))
	for _, item := range items {
		if c.Tracks(item.URL) {
			out = append(out, item)
		}
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.entries)
}
