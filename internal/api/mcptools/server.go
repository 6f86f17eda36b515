// Package mcptools exposes open-day search as Model Context Protocol tools so
// assistants can query the catalogue directly.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jpo-explorer/backend/internal/application/services"
	"github.com/jpo-explorer/backend/internal/domain/entities"
	"github.com/jpo-explorer/backend/internal/infrastructure/observability"
)

const defaultLimit = 10

// Backend is the part of the search service the tools call.
type Backend interface {
	Search(ctx context.Context, req entities.SearchRequest) (*services.SearchResult, error)
	FacetOptions(ctx context.Context) (*entities.FacetOptions, error)
}

// NewServer creates an MCP server with the search tools registered.
func NewServer(backend Backend, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"jpo-explorer",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("Search French higher-education open days (journées portes ouvertes) by free text and facets."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("search_open_days",
			mcp.WithDescription("Rank open days for a free-text query, optionally restricted to an exact region, city, institution or diploma type. Use list_facets for valid facet values."),
			mcp.WithString("query", mcp.Description("Free-text query, e.g. \"licence informatique à Lyon\"")),
			mcp.WithString("region", mcp.Description("Exact region name, or \"all\"")),
			mcp.WithString("city", mcp.Description("Exact city name, or \"all\"")),
			mcp.WithString("institution", mcp.Description("Exact institution name, or \"all\"")),
			mcp.WithString("diploma", mcp.Description("Exact diploma type, or \"all\"")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results to return (default 10)")),
		),
		searchOpenDays(backend),
	)

	s.AddTool(
		mcp.NewTool("list_facets",
			mcp.WithDescription("List the regions, cities, institutions and diploma types that open days can be filtered by."),
		),
		listFacets(backend),
	)

	return s
}

// searchOutput is the bundle with results truncated to the requested limit;
// totalResults still counts every match.
type searchOutput struct {
	*entities.ResultBundle
	Returned int  `json:"returned"`
	Cached   bool `json:"cached"`
}

func searchOpenDays(backend Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		searchReq := entities.SearchRequest{
			Query: req.GetString("query", ""),
			Facets: entities.Facets{
				Region:      req.GetString("region", ""),
				City:        req.GetString("city", ""),
				Institution: req.GetString("institution", ""),
				DiplomaType: req.GetString("diploma", ""),
			},
		}
		limit := req.GetInt("limit", defaultLimit)
		if limit <= 0 {
			limit = defaultLimit
		}

		result, err := backend.Search(ctx, searchReq)
		if err != nil {
			observability.LoggerFromContext(ctx).Error().Err(err).Str("query", searchReq.Query).Msg("mcp search failed")
			return toolError(fmt.Sprintf("search failed: %v", err)), nil
		}

		bundle := *result.Bundle
		if len(bundle.Results) > limit {
			bundle.Results = bundle.Results[:limit]
		}
		return toolJSON(searchOutput{
			ResultBundle: &bundle,
			Returned:     len(bundle.Results),
			Cached:       result.CacheHit,
		})
	}
}

func listFacets(backend Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		options, err := backend.FacetOptions(ctx)
		if err != nil {
			return toolError(fmt.Sprintf("failed to list facets: %v", err)), nil
		}
		return toolJSON(options)
	}
}

func toolJSON(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return toolText(string(data)), nil
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
