package types

import (
	"sort"
	"strings"
)

// Dimension is one of the structured filter axes of the catalog.
// Its value is the catalog column the criteria is matched against.
type Dimension string

const (
	DimensionGender   Dimension = "gender"
	DimensionOccasion Dimension = "occasion"
	DimensionRegion   Dimension = "region"
	DimensionFabric   Dimension = "fabric_type"
	DimensionCategory Dimension = "category"
)

// Dimensions lists every dimension in extraction order.
var Dimensions = []Dimension{
	DimensionGender,
	DimensionOccasion,
	DimensionRegion,
	DimensionFabric,
	DimensionCategory,
}

// Valid reports whether d is a known dimension
func (d Dimension) Valid() bool {
	switch d {
	case DimensionGender, DimensionOccasion, DimensionRegion, DimensionFabric, DimensionCategory:
		return true
	}
	return false
}

// ParseDimension maps a dimension name to a Dimension.
// "fabric" is accepted as an alias of fabric_type.
func ParseDimension(name string) (Dimension, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "fabric" {
		return DimensionFabric, true
	}
	d := Dimension(name)
	return d, d.Valid()
}

// Criteria maps a dimension to at most one canonical value.
// A dimension absent from the map is unconstrained.
type Criteria map[Dimension]string

// Get returns the value for a dimension and whether it is set
func (c Criteria) Get(d Dimension) (string, bool) {
	v, ok := c[d]
	return v, ok
}

// Has reports whether a dimension is constrained
func (c Criteria) Has(d Dimension) bool {
	_, ok := c[d]
	return ok
}

// Clone returns an independent copy. A nil Criteria clones to an empty one.
func (c Criteria) Clone() Criteria {
	out := make(Criteria, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Dimensions returns the constrained dimensions in extraction order
func (c Criteria) Dimensions() []Dimension {
	out := make([]Dimension, 0, len(c))
	for _, d := range Dimensions {
		if c.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// String renders the criteria deterministically, e.g. "category=Saree,occasion=Wedding"
func (c Criteria) String() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + c[Dimension(k)]
	}
	return strings.Join(parts, ",")
}

// ToMap converts criteria to a plain string map for JSON output
func (c Criteria) ToMap() map[string]string {
	out := make(map[string]string, len(c))
	for k, v := range c {
		out[string(k)] = v
	}
	return out
}
