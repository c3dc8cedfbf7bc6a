package llm

import (
	"fmt"
	"strings"

	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

// Fixed answers used when the model cannot help
const (
	NoMatchPrefix    = "No matching items found in our collection, but here's a suggestion...\n\n"
	FallbackResponse = "I apologize, but I couldn't generate a response. Please try rephrasing your question."
	ProductsHeading  = "## Available Products:"
)

func advicePrompt(query string) string {
	return fmt.Sprintf(`You are an expert in Indian ethnic wear fashion.
The user is asking: %q

Please suggest appropriate Indian garments for this situation. Be specific about:
1. The exact type of garment (e.g., Dhoti, Saree, Lehenga, Kurta Pajama, etc.)
2. Why this garment would be appropriate for the occasion/context
3. Any styling tips or accessories that would complement the outfit

Format your response in a conversational way, but make sure to clearly mention specific garment types.`, query)
}

func extractionPrompt(advice string) string {
	return fmt.Sprintf(`From the following fashion advice, extract ONLY the specific Indian garment types mentioned:

%s

Return ONLY a JSON array of strings with the garment types (e.g., ["Dhoti", "Kurta", "Saree"]).
Include only the main garment categories like: Saree, Lehenga, Kurta Pajama, Sherwani, Dhoti, Salwar Kameez, etc.
Do not include accessories or general terms.`, advice)
}

func responsePrompt(query, cleaned string, garments []types.Garment) string {
	return fmt.Sprintf(`You are an expert in Indian ethnic wear fashion.
The original user query was: %q
The cleaned query is: %q

Context: %s

Provide a helpful response that:
1. References the actual garments from our inventory
2. Explains why these options would work well
3. Gives styling tips specific to these items
4. If relevant, suggests occasions where these would be appropriate
5. If the original query had typos or was unclear, acknowledge that you understood what they meant

DO NOT include product images or links in the main response text.
Keep the response natural and conversational.`, query, cleaned, InventoryContext(garments))
}

// FormatPrice renders a catalog price
func FormatPrice(price float64) string {
	return fmt.Sprintf("$%.2f", price)
}

// InventoryContext lists garments as plain text for a prompt
func InventoryContext(garments []types.Garment) string {
	var sb strings.Builder
	sb.WriteString("Based on our available inventory, here are some relevant garments:\n")
	for _, g := range garments {
		fmt.Fprintf(&sb, "- %s (%s) - %s, %s, Available in %s\n", g.Name, g.Category, g.FabricType, FormatPrice(g.Price), g.Sizes)
		fmt.Fprintf(&sb, "  Suitable for: %s occasions, %s region\n", g.Occasion, g.Region)
	}
	return sb.String()
}

// ProductsSection renders the markdown product list appended to answers
func ProductsSection(garments []types.Garment) string {
	var sb strings.Builder
	sb.WriteString("\n\n---\n\n")
	sb.WriteString(ProductsHeading)
	sb.WriteString("\n")
	for _, g := range garments {
		fmt.Fprintf(&sb, "\n### %s\n", g.Name)
		if g.ImageURL != "" {
			fmt.Fprintf(&sb, "![%s](%s)\n", g.Name, g.ImageURL)
		}
		fmt.Fprintf(&sb, "- **Price:** %s\n", FormatPrice(g.Price))
		fmt.Fprintf(&sb, "- **Fabric:** %s\n", g.FabricType)
		fmt.Fprintf(&sb, "- **Sizes:** %s\n", g.Sizes)
		fmt.Fprintf(&sb, "- **Occasion:** %s\n", g.Occasion)
		fmt.Fprintf(&sb, "- **Region:** %s\n", g.Region)
		if g.BuyLink != "" {
			fmt.Fprintf(&sb, "\n[Buy Now](%s)\n", g.BuyLink)
		}
		sb.WriteString("\n---\n")
	}
	return sb.String()
}
