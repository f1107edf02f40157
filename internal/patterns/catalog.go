package patterns

import (
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var catalogTOML []byte

// Entry is the catalog metadata for one rule code.
type Entry struct {
	Code        string `toml:"issue_code"`
	Category    string `toml:"category"`
	Severity    string `toml:"severity"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

// Catalog is the ordered set of rule metadata.
type Catalog struct {
	Rules []Entry `toml:"rule"`
}

// LoadCatalog decodes the embedded rule catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogTOML)
}

// ParseCatalog decodes a TOML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding rule catalog: %w", err)
	}
	seen := make(map[string]bool, len(c.Rules))
	for _, e := range c.Rules {
		if e.Code == "" {
			return nil, fmt.Errorf("rule catalog: entry %q has no issue_code", e.Title)
		}
		if seen[e.Code] {
			return nil, fmt.Errorf("rule catalog: duplicate issue_code %s", e.Code)
		}
		seen[e.Code] = true
	}
	return &c, nil
}

// Lookup returns the entry for code.
func (c *Catalog) Lookup(code string) (Entry, bool) {
	for _, e := range c.Rules {
		if e.Code == code {
			return e, true
		}
	}
	return Entry{}, false
}
