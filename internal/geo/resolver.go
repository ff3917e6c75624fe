package geo

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed zip_coords.yaml
var zipCoordsYAML []byte

// Coords is a ZIP centroid in degrees.
type Coords struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// Resolver maps ZIP codes to coordinates from a fixed, finite table. ZIPs
// outside the table resolve to "unknown", which callers treat as a degraded
// case rather than an error.
type Resolver struct {
	coords map[string]Coords
}

// NewResolver loads the embedded coordinate table.
func NewResolver() (*Resolver, error) {
	coords := make(map[string]Coords)
	if err := yaml.Unmarshal(zipCoordsYAML, &coords); err != nil {
		return nil, fmt.Errorf("parse zip coordinate table: %w", err)
	}
	return &Resolver{coords: coords}, nil
}

// Lookup resolves a ZIP code; ok is false when the ZIP is not in the table.
func (r *Resolver) Lookup(zip string) (Coords, bool) {
	c, ok := r.coords[zip]
	return c, ok
}

// Size reports how many ZIPs the table covers.
func (r *Resolver) Size() int { return len(r.coords) }
