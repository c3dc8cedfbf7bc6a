package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Garment is a single catalog row
type Garment struct {
	ID          int64     `json:"id" yaml:"-"`
	Name        string    `json:"name" yaml:"name"`
	Category    string    `json:"category" yaml:"category"`
	FabricType  string    `json:"fabric_type" yaml:"fabric_type"`
	Sizes       string    `json:"sizes" yaml:"sizes"`
	Price       float64   `json:"price" yaml:"price"`
	Available   bool      `json:"available" yaml:"available"`
	Description string    `json:"description,omitempty" yaml:"description"`
	Gender      string    `json:"gender,omitempty" yaml:"gender"`
	Season      string    `json:"season,omitempty" yaml:"season"`
	ImageURL    string    `json:"image_url,omitempty" yaml:"image_url"`
	BuyLink     string    `json:"buy_link,omitempty" yaml:"buy_link"`
	Region      string    `json:"region,omitempty" yaml:"region"`
	Occasion    string    `json:"occasion,omitempty" yaml:"occasion"`
	CreatedAt   time.Time `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt   time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// Validate checks the fields required by the catalog schema
func (g *Garment) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidGarment)
	}
	if strings.TrimSpace(g.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidGarment)
	}
	if strings.TrimSpace(g.FabricType) == "" {
		return fmt.Errorf("%w: fabric_type is required", ErrInvalidGarment)
	}
	if strings.TrimSpace(g.Sizes) == "" {
		return fmt.Errorf("%w: sizes is required", ErrInvalidGarment)
	}
	if g.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidGarment)
	}
	return nil
}

// Value returns the garment's value for a criteria dimension
func (g *Garment) Value(d Dimension) string {
	switch d {
	case DimensionGender:
		return g.Gender
	case DimensionOccasion:
		return g.Occasion
	case DimensionRegion:
		return g.Region
	case DimensionFabric:
		return g.FabricType
	case DimensionCategory:
		return g.Category
	}
	return ""
}

// GarmentPatch describes a partial update of one garment.
// Nil fields are left untouched.
type GarmentPatch struct {
	Name        *string  `json:"name,omitempty"`
	Category    *string  `json:"category,omitempty"`
	FabricType  *string  `json:"fabric_type,omitempty"`
	Sizes       *string  `json:"sizes,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Available   *bool    `json:"available,omitempty"`
	Description *string  `json:"description,omitempty"`
	Gender      *string  `json:"gender,omitempty"`
	Season      *string  `json:"season,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	BuyLink     *string  `json:"buy_link,omitempty"`
	Region      *string  `json:"region,omitempty"`
	Occasion    *string  `json:"occasion,omitempty"`
}

// DecodePatch decodes a JSON object into a patch, rejecting unknown field names
func DecodePatch(data []byte) (*GarmentPatch, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var p GarmentPatch
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	if p.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidPatch)
	}
	return &p, nil
}

// IsEmpty reports whether the patch changes nothing
func (p *GarmentPatch) IsEmpty() bool {
	return p == nil || (p.Name == nil && p.Category == nil && p.FabricType == nil &&
		p.Sizes == nil && p.Price == nil && p.Available == nil && p.Description == nil &&
		p.Gender == nil && p.Season == nil && p.ImageURL == nil && p.BuyLink == nil &&
		p.Region == nil && p.Occasion == nil)
}

// Apply writes the patch onto g and returns the names of the columns whose
// value actually changed
func (p *GarmentPatch) Apply(g *Garment) []string {
	var changed []string
	setString := func(column string, dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = append(changed, column)
		}
	}

	setString("name", &g.Name, p.Name)
	setString("category", &g.Category, p.Category)
	setString("fabric_type", &g.FabricType, p.FabricType)
	setString("sizes", &g.Sizes, p.Sizes)
	if p.Price != nil && g.Price != *p.Price {
		g.Price = *p.Price
		changed = append(changed, "price")
	}
	if p.Available != nil && g.Available != *p.Available {
		g.Available = *p.Available
		changed = append(changed, "available")
	}
	setString("description", &g.Description, p.Description)
	setString("gender", &g.Gender, p.Gender)
	setString("season", &g.Season, p.Season)
	setString("image_url", &g.ImageURL, p.ImageURL)
	setString("buy_link", &g.BuyLink, p.BuyLink)
	setString("region", &g.Region, p.Region)
	setString("occasion", &g.Occasion, p.Occasion)

	return changed
}

// ChatExchange is one recorded user message and assistant reply
type ChatExchange struct {
	ID          int64     `json:"id"`
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Timestamp   time.Time `json:"timestamp"`
}
