package finder

import (
	"fmt"
	"strings"

	"github.com/dshills/garmentfinder-mcp/internal/llm"
	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

// NoResultsMessage is the plain reply when nothing matched
const NoResultsMessage = "I couldn't find any matching garments in our inventory."

// FormatResults renders garments as a markdown list for chat display
func FormatResults(garments []types.Garment) string {
	if len(garments) == 0 {
		return NoResultsMessage
	}

	var b strings.Builder
	b.WriteString("Here are some items that might interest you:\n\n")

	for _, g := range garments {
		availability := "In Stock"
		if !g.Available {
			availability = "Out of Stock"
		}
		fmt.Fprintf(&b, "• **%s** - %s (%s)\n", g.Name, llm.FormatPrice(g.Price), availability)
		if g.Description != "" {
			fmt.Fprintf(&b, "  %s\n", g.Description)
		}
		if g.Occasion != "" {
			fmt.Fprintf(&b, "  Occasion: %s\n", g.Occasion)
		}
		fmt.Fprintf(&b, "  Sizes: %s\n", g.Sizes)
		if g.BuyLink != "" {
			fmt.Fprintf(&b, "  [View/Buy](%s)\n", g.BuyLink)
		}
		b.WriteString("\n")
	}

	return b.String()
}
