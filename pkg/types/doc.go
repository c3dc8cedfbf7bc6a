// Package types provides shared type definitions for the garment finder.
//
// # Core Types
//
// Garment is one catalog row. Name, category, fabric type and sizes are
// required and the price may not be negative:
//
//	garment := &types.Garment{
//	    Name:       "Banarasi Silk Saree",
//	    Category:   "Saree",
//	    FabricType: "Silk",
//	    Sizes:      "Free Size",
//	    Price:      129.99,
//	    Available:  true,
//	    Occasion:   "Wedding",
//	}
//
// Criteria maps a Dimension (gender, occasion, region, fabric_type,
// category) to one canonical value. A dimension missing from the map is
// unconstrained:
//
//	criteria := types.Criteria{
//	    types.DimensionCategory: "Saree",
//	    types.DimensionFabric:   "Silk",
//	}
//	criteria.String() // "category=Saree,fabric_type=Silk"
//
// # Partial Updates
//
// GarmentPatch carries the fields of an update as pointers; nil fields are
// left alone. DecodePatch rejects unknown field names, and Apply reports
// which columns really changed:
//
//	patch, err := types.DecodePatch([]byte(`{"price": 99.5}`))
//	changed := patch.Apply(garment) // ["price"]
package types
