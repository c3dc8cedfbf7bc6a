package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validGarment() *Garment {
	return &Garment{
		Name:       "Banarasi Silk Saree",
		Category:   "Saree",
		FabricType: "Silk",
		Sizes:      "Free Size",
		Price:      129.99,
		Available:  true,
		Gender:     "Women",
		Occasion:   "Wedding",
	}
}

func TestGarmentValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(g *Garment)
		wantErr bool
	}{
		{"valid", func(g *Garment) {}, false},
		{"free garment", func(g *Garment) { g.Price = 0 }, false},
		{"missing name", func(g *Garment) { g.Name = "  " }, true},
		{"missing category", func(g *Garment) { g.Category = "" }, true},
		{"missing fabric", func(g *Garment) { g.FabricType = "" }, true},
		{"missing sizes", func(g *Garment) { g.Sizes = "" }, true},
		{"negative price", func(g *Garment) { g.Price = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := validGarment()
			tt.mutate(g)
			err := g.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidGarment)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGarmentValue(t *testing.T) {
	g := validGarment()
	assert.Equal(t, "Women", g.Value(DimensionGender))
	assert.Equal(t, "Wedding", g.Value(DimensionOccasion))
	assert.Equal(t, "Silk", g.Value(DimensionFabric))
	assert.Equal(t, "Saree", g.Value(DimensionCategory))
	assert.Empty(t, g.Value(DimensionRegion))
	assert.Empty(t, g.Value(Dimension("colour")))
}

func TestDecodePatch(t *testing.T) {
	t.Run("known fields", func(t *testing.T) {
		p, err := DecodePatch([]byte(`{"price": 99.5, "available": false, "occasion": "Festival"}`))
		require.NoError(t, err)
		require.NotNil(t, p.Price)
		assert.Equal(t, 99.5, *p.Price)
		require.NotNil(t, p.Available)
		assert.False(t, *p.Available)
		require.NotNil(t, p.Occasion)
		assert.Equal(t, "Festival", *p.Occasion)
		assert.Nil(t, p.Name)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := DecodePatch([]byte(`{"price": 10, "colour": "red"}`))
		assert.ErrorIs(t, err, ErrInvalidPatch)
		assert.Contains(t, err.Error(), "colour")
	})

	t.Run("empty object", func(t *testing.T) {
		_, err := DecodePatch([]byte(`{}`))
		assert.ErrorIs(t, err, ErrInvalidPatch)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := DecodePatch([]byte(`{"price": "cheap"}`))
		assert.ErrorIs(t, err, ErrInvalidPatch)
	})
}

func TestGarmentPatchApply(t *testing.T) {
	g := validGarment()
	price := 149.0
	available := true
	name := g.Name
	region := "North"

	p := &GarmentPatch{Price: &price, Available: &available, Name: &name, Region: &region}
	changed := p.Apply(g)

	assert.Equal(t, []string{"price", "region"}, changed)
	assert.Equal(t, 149.0, g.Price)
	assert.Equal(t, "North", g.Region)

	assert.Empty(t, p.Apply(g), "reapplying changes nothing")
}

func TestGarmentPatchIsEmpty(t *testing.T) {
	var nilPatch *GarmentPatch
	assert.True(t, nilPatch.IsEmpty())
	assert.True(t, (&GarmentPatch{}).IsEmpty())

	sizes := "M"
	assert.False(t, (&GarmentPatch{Sizes: &sizes}).IsEmpty())
}

func TestParseDimension(t *testing.T) {
	tests := []struct {
		in   string
		want Dimension
		ok   bool
	}{
		{"gender", DimensionGender, true},
		{" Occasion ", DimensionOccasion, true},
		{"fabric", DimensionFabric, true},
		{"fabric_type", DimensionFabric, true},
		{"category", DimensionCategory, true},
		{"colour", Dimension("colour"), false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDimension(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCriteria(t *testing.T) {
	c := Criteria{
		DimensionCategory: "Saree",
		DimensionGender:   "Women",
		DimensionFabric:   "Silk",
	}

	assert.Equal(t, "category=Saree,fabric_type=Silk,gender=Women", c.String())
	assert.Equal(t, []Dimension{DimensionGender, DimensionFabric, DimensionCategory}, c.Dimensions())
	assert.True(t, c.Has(DimensionCategory))
	assert.False(t, c.Has(DimensionRegion))

	v, ok := c.Get(DimensionGender)
	assert.True(t, ok)
	assert.Equal(t, "Women", v)

	clone := c.Clone()
	clone[DimensionRegion] = "South"
	assert.False(t, c.Has(DimensionRegion))

	assert.Equal(t, map[string]string{
		"category":    "Saree",
		"gender":      "Women",
		"fabric_type": "Silk",
	}, c.ToMap())

	var empty Criteria
	assert.Empty(t, empty.String())
	assert.NotNil(t, empty.Clone())
}
