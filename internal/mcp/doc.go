// Package mcp implements the Model Context Protocol (MCP) server for the
// garment finder.
//
// The server exposes these tools to MCP clients:
//   - find_garments: Answer a free-text request with matching garments
//   - analyze_query: Show the cleaned query, keywords and criteria
//   - browse_garments: List garments by filter or substring search
//   - list_categories: List the catalog categories
//   - update_garment: Change fields of one garment
//   - import_catalog: Load garments from a YAML file or the sample catalog
//   - chat_history: Show recently recorded exchanges
//   - get_status: Report catalog statistics and component health
//
// The server speaks JSON-RPC 2.0 over stdio. Logs go to stderr because
// stdout carries the protocol.
//
// # Tool: find_garments
//
//	Request:
//	{
//	  "name": "find_garments",
//	  "arguments": {"query": "cotton kurtha mens", "limit": 5}
//	}
//
//	Response:
//	{
//	  "cleaned_query": "cotton kurta mens",
//	  "keywords": ["cotton", "kurta", "men", "women"],
//	  "criteria": {"category": "Kurta", "fabric_type": "Cotton", "gender": "Men"},
//	  "suggestion_used": false,
//	  "total_matches": 2,
//	  "garments": [{"name": "Cotton Kurta Pajama", ...}, ...],
//	  "message": "Here are some items that might interest you: ..."
//	}
//
// When the request names no category and a language model is configured,
// the model's suggested garment types fill the category before the catalog
// is queried.
//
// # Tool: update_garment
//
//	Request:
//	{
//	  "name": "update_garment",
//	  "arguments": {"id": 3, "fields": {"price": 1499, "available": false}}
//	}
//
//	Response:
//	{
//	  "updated": true,
//	  "changed": ["price", "available"],
//	  "garment": {...}
//	}
//
// Unknown field names are rejected and nothing is written.
//
// # Error Handling
//
// Tool failures are returned as MCPError values:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, model, etc.)
//   - -32001: Garment not found
//   - -32002: Import in progress
//   - -32003: Invalid catalog file
//   - -32004: Empty query
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "garmentfinder": {
//	      "command": "/usr/local/bin/garmentfinder",
//	      "args": ["serve"],
//	      "env": {
//	        "GEMINI_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
package mcp
