// Package weather turns a location into a forecast report: it resolves the
// location, looks the city up, scrapes its forecast page, and composes the
// text handed back to the conversational agent.
package weather

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// UnknownLabel is returned for codes missing from the catalog, and is also
// the summary used when a page has no current-conditions abstract.
const UnknownLabel = "未知"

//go:embed codes.yaml
var codesYAML []byte

// Catalog maps QWeather icon codes to condition labels. It is read-only after
// construction and safe for concurrent use.
type Catalog struct {
	labels map[string]string
}

type catalogFile struct {
	Codes map[string]string `yaml:"codes"`
}

// NewCatalog parses a catalog document of the form `codes: {"100": 晴}`.
func NewCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing weather code catalog: %w", err)
	}
	if len(f.Codes) == 0 {
		return nil, fmt.Errorf("weather code catalog is empty")
	}
	return &Catalog{labels: f.Codes}, nil
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := NewCatalog(codesYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// DefaultCatalog returns the embedded QWeather catalog.
func DefaultCatalog() *Catalog {
	return defaultCatalog()
}

// Label returns the label for code, or UnknownLabel.
func (c *Catalog) Label(code string) string {
	if label, ok := c.labels[code]; ok {
		return label
	}
	return UnknownLabel
}

// Len returns the number of known codes.
func (c *Catalog) Len() int {
	return len(c.labels)
}
