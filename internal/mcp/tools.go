package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/garmentfinder-mcp/internal/catalog"
	"github.com/dshills/garmentfinder-mcp/internal/finder"
	"github.com/dshills/garmentfinder-mcp/internal/importer"
	"github.com/dshills/garmentfinder-mcp/internal/storage"
	"github.com/dshills/garmentfinder-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeGarmentNotFound  = -32001 // No garment with the given ID
	ErrorCodeImportInProgress = -32002 // Another import is already running
	ErrorCodeInvalidCatalog   = -32003 // Catalog file cannot be read or parsed
	ErrorCodeEmptyQuery       = -32004 // Query parameter is empty
)

const maxReportedErrors = 5

// handleFindGarments handles the find_garments tool invocation
func (s *Server) handleFindGarments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, err := requireQuery(args)
	if err != nil {
		return nil, err
	}

	limit := getIntDefault(args, "limit", s.app.Config.Finder.DefaultLimit)
	if limit < 1 || limit > finder.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	resp, err := s.app.Finder.Find(ctx, finder.Request{
		Query:  query,
		Limit:  limit,
		Record: s.app.Config.Finder.RecordHistory,
	})
	switch {
	case errors.Is(err, finder.ErrEmptyQuery):
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	case err != nil:
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"request_id":      resp.RequestID,
		"query":           resp.Query,
		"cleaned_query":   resp.CleanedQuery,
		"keywords":        resp.Keywords,
		"criteria":        resp.Criteria.ToMap(),
		"suggestion_used": resp.SuggestionUsed,
		"total_matches":   resp.TotalMatches,
		"returned":        len(resp.Garments),
		"garments":        resp.Garments,
		"message":         resp.Message,
		"duration_ms":     resp.Duration.Milliseconds(),
	}
	if len(resp.Suggestions) > 0 {
		response["suggestions"] = resp.Suggestions
	}
	if resp.Advice != "" {
		response["advice"] = resp.Advice
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAnalyzeQuery handles the analyze_query tool invocation
func (s *Server) handleAnalyzeQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, err := requireQuery(args)
	if err != nil {
		return nil, err
	}

	analysis := s.app.Analyzer.Analyze(query)
	response := map[string]interface{}{
		"query":           analysis.Query,
		"cleaned_query":   analysis.CleanedQuery,
		"keywords":        analysis.Keywords,
		"criteria":        analysis.Criteria.ToMap(),
		"lexicon_version": s.app.Analyzer.Lexicon().Version(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleBrowseGarments handles the browse_garments tool invocation
func (s *Server) handleBrowseGarments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		// No filters at all is a valid browse
		args = map[string]interface{}{}
	}

	var (
		garments []types.Garment
		err      error
		response = map[string]interface{}{}
	)

	if term := strings.TrimSpace(getStringDefault(args, "search", "")); term != "" {
		response["search"] = term
		garments, err = s.app.Catalog.Search(ctx, term)
	} else {
		criteria := types.Criteria{}
		for _, dim := range types.Dimensions {
			if value := strings.TrimSpace(getStringDefault(args, string(dim), "")); value != "" {
				criteria[dim] = value
			}
		}
		response["criteria"] = criteria.ToMap()
		garments, err = s.app.Catalog.ByCriteria(ctx, criteria)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to browse catalog", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response["count"] = len(garments)
	response["garments"] = garments

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListCategories handles the list_categories tool invocation
func (s *Server) handleListCategories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	categories, err := s.app.Catalog.Categories(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list categories", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"count":      len(categories),
		"categories": categories,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleUpdateGarment handles the update_garment tool invocation
func (s *Server) handleUpdateGarment(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id := getIntDefault(args, "id", 0)
	if id < 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "id parameter is required", map[string]interface{}{
			"param":  "id",
			"reason": "missing or not a positive integer",
		})
	}

	fields, ok := args["fields"].(map[string]interface{})
	if !ok || len(fields) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "fields parameter is required", map[string]interface{}{
			"param":  "fields",
			"reason": "missing or empty",
		})
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid fields", map[string]interface{}{
			"param":  "fields",
			"reason": err.Error(),
		})
	}
	patch, err := types.DecodePatch(raw)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid fields", map[string]interface{}{
			"param":  "fields",
			"reason": err.Error(),
		})
	}

	result, err := s.app.Catalog.Update(ctx, int64(id), patch)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return nil, newMCPError(ErrorCodeGarmentNotFound, fmt.Sprintf("no garment found with id %d", id), map[string]interface{}{
			"param": "id",
			"value": id,
		})
	case errors.Is(err, types.ErrInvalidGarment), errors.Is(err, types.ErrInvalidPatch):
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid fields", map[string]interface{}{
			"param":  "fields",
			"reason": err.Error(),
		})
	case err != nil:
		return nil, newMCPError(ErrorCodeInternalError, "update failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"updated": len(result.Changed) > 0,
		"changed": result.Changed,
		"garment": result.Garment,
	}
	if len(result.Changed) == 0 {
		response["message"] = "No fields changed"
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleImportCatalog handles the import_catalog tool invocation
func (s *Server) handleImportCatalog(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	config := &importer.Config{
		SkipExisting: getBoolDefault(args, "skip_existing", true),
		OnlyIfEmpty:  getBoolDefault(args, "only_if_empty", false),
	}

	var (
		stats *importer.Statistics
		err   error
	)
	path := strings.TrimSpace(getStringDefault(args, "path", ""))
	if path != "" {
		stats, err = s.app.Importer.ImportFile(ctx, path, config)
	} else {
		stats, err = s.app.Importer.ImportSample(ctx, config)
	}
	switch {
	case errors.Is(err, importer.ErrImportInProgress):
		return nil, newMCPError(ErrorCodeImportInProgress, "an import is already running", nil)
	case errors.Is(err, importer.ErrInvalidCatalogFile), errors.Is(err, os.ErrNotExist):
		return nil, newMCPError(ErrorCodeInvalidCatalog, "invalid catalog file", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	case err != nil:
		return nil, newMCPError(ErrorCodeInternalError, "import failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	source := "sample"
	if path != "" {
		source = path
	}
	response := map[string]interface{}{
		"source":            source,
		"garments_imported": stats.GarmentsImported,
		"garments_skipped":  stats.GarmentsSkipped,
		"garments_invalid":  stats.GarmentsInvalid,
		"duration_ms":       stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > maxReportedErrors {
			response["errors"] = stats.ErrorMessages[:maxReportedErrors]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleChatHistory handles the chat_history tool invocation
func (s *Server) handleChatHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	limit := getIntDefault(args, "limit", storage.DefaultChatHistoryLimit)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	exchanges, err := s.app.Catalog.RecentExchanges(ctx, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read chat history", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"count":     len(exchanges),
		"exchanges": exchanges,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.app.Catalog.Status(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	statistics := map[string]interface{}{
		"garments_count":   status.GarmentCount,
		"available_count":  status.AvailableCount,
		"categories_count": status.CategoryCount,
		"chats_count":      status.ChatCount,
		"database_size_mb": fmt.Sprintf("%.2f", status.DatabaseSizeMB),
	}
	if !status.LastUpdatedAt.IsZero() {
		statistics["last_updated_at"] = status.LastUpdatedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	response := map[string]interface{}{
		"statistics": statistics,
		"storage": map[string]interface{}{
			"schema_version": status.SchemaVersion,
			"build_mode":     status.BuildMode,
			"driver":         storage.DriverName,
		},
		"cache": map[string]interface{}{
			"driver": s.app.CacheDriver(),
		},
		"language_model": map[string]interface{}{
			"provider": s.app.ModelProvider(),
			"enabled":  s.app.Advisor != nil,
		},
		"lexicon_version": s.app.Analyzer.Lexicon().Version(),
		"health": map[string]interface{}{
			"database_accessible": status.Health.DatabaseAccessible,
			"catalog_seeded":      status.Health.CatalogSeeded,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// requireQuery extracts the mandatory, non-blank query argument
func requireQuery(args map[string]interface{}) (string, error) {
	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return "", newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}
	return query, nil
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
