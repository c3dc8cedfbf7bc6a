package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

// findGarmentsTool returns the tool definition for find_garments
func findGarmentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "find_garments",
		Description: "Find traditional garments matching a free-text request such as \"silk saree for a wedding\"",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What the shopper is looking for, in their own words (misspellings are fine)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of garments to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// analyzeQueryTool returns the tool definition for analyze_query
func analyzeQueryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_query",
		Description: "Show how a request is cleaned and which keywords and filter criteria are extracted from it, without searching",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Free-text request to analyze",
				},
			},
			Required: []string{"query"},
		},
	}
}

// browseGarmentsTool returns the tool definition for browse_garments
func browseGarmentsTool() mcp.Tool {
	properties := map[string]interface{}{
		"search": map[string]interface{}{
			"type":        "string",
			"description": "Substring matched against name, category and description. Ignores the other filters.",
		},
	}
	for _, dim := range types.Dimensions {
		properties[string(dim)] = map[string]interface{}{
			"type":        "string",
			"description": "Case-insensitive substring filter on " + string(dim),
		}
	}

	return mcp.Tool{
		Name:        "browse_garments",
		Description: "List catalog garments, optionally filtered by gender, occasion, region, fabric_type and category. Without filters the whole catalog is returned.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: properties,
		},
	}
}

// listCategoriesTool returns the tool definition for list_categories
func listCategoriesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_categories",
		Description: "List the distinct garment categories in the catalog",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// updateGarmentTool returns the tool definition for update_garment
func updateGarmentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "update_garment",
		Description: "Update fields of one catalog garment and report which fields changed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "integer",
					"description": "Garment ID",
					"minimum":     1,
				},
				"fields": map[string]interface{}{
					"type": "object",
					"description": "Field names and new values. Allowed: name, category, fabric_type, sizes, price, " +
						"available, description, gender, season, image_url, buy_link, region, occasion",
				},
			},
			Required: []string{"id", "fields"},
		},
	}
}

// importCatalogTool returns the tool definition for import_catalog
func importCatalogTool() mcp.Tool {
	return mcp.Tool{
		Name:        "import_catalog",
		Description: "Import garments from a YAML catalog file, or the built-in sample catalog when no path is given",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path to a YAML file with a top-level garments list",
				},
				"skip_existing": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, skip garments whose name and category are already in the catalog",
					"default":     true,
				},
				"only_if_empty": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, import nothing when the catalog already has garments",
					"default":     false,
				},
			},
		},
	}
}

// chatHistoryTool returns the tool definition for chat_history
func chatHistoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chat_history",
		Description: "Return the most recent recorded requests and replies, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Number of exchanges to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report catalog statistics and the health of the database, cache and language model",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
