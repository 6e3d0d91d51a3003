package controlplane

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cortexindex/indexd/internal/coordinator"
)

type toolHandler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

func argsMap(request mcp.CallToolRequest) (map[string]interface{}, bool) {
	m, ok := request.Params.Arguments.(map[string]interface{})
	return m, ok
}

func stringArg(args map[string]interface{}, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok && v != ""
}

func intArg(args map[string]interface{}, key string, def int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}

func boolArg(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func textResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// AddProjectAddTool registers the project_add tool.
func AddProjectAddTool(s *server.MCPServer, coord *coordinator.Coordinator) {
	tool := mcp.NewTool(
		"project_add",
		mcp.WithDescription("Register a directory as an indexable project, deriving its stable project ID from the absolute path."),
		mcp.WithString("root_path", mcp.Required(), mcp.Description("Absolute path to the project root to register")),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createProjectAddHandler(coord))
}

func createProjectAddHandler(coord *coordinator.Coordinator) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := argsMap(request)
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		root, ok := stringArg(args, "root_path")
		if !ok {
			return mcp.NewToolResultError("root_path parameter is required"), nil
		}
		project, err := coord.AddProject(root)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(project)
	}
}

// AddProjectListTool registers the project_list tool.
func AddProjectListTool(s *server.MCPServer, coord *coordinator.Coordinator) {
	tool := mcp.NewTool(
		"project_list",
		mcp.WithDescription("List every registered project and its lifecycle state."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createProjectListHandler(coord))
}

func createProjectListHandler(coord *coordinator.Coordinator) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(coord.ListProjects())
	}
}

// AddProjectRemoveTool registers the project_remove tool.
func AddProjectRemoveTool(s *server.MCPServer, coord *coordinator.Coordinator) {
	tool := mcp.NewTool(
		"project_remove",
		mcp.WithDescription("Unregister a project and tear down its hash, vector, and graph state."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID returned by project_add or project_list")),
		mcp.WithDestructiveHintAnnotation(true),
	)
	s.AddTool(tool, createProjectRemoveHandler(coord))
}

func createProjectRemoveHandler(coord *coordinator.Coordinator) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := argsMap(request)
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		id, ok := stringArg(args, "project_id")
		if !ok {
			return mcp.NewToolResultError("project_id parameter is required"), nil
		}
		if err := coord.RemoveProject(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("removed"), nil
	}
}

// AddIndexStartTool registers the index_start tool.
func AddIndexStartTool(s *server.MCPServer, coord *coordinator.Coordinator) {
	tool := mcp.NewTool(
		"index_start",
		mcp.WithDescription("Start an incremental indexing run for a registered project. Returns immediately; poll index_status for progress."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID to index")),
		mcp.WithBoolean("vectors_only", mcp.Description("Skip the graph extraction pipeline")),
		mcp.WithBoolean("graph_only", mcp.Description("Skip the embedding pipeline")),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createIndexStartHandler(coord))
}

func createIndexStartHandler(coord *coordinator.Coordinator) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := argsMap(request)
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		id, ok := stringArg(args, "project_id")
		if !ok {
			return mcp.NewToolResultError("project_id parameter is required"), nil
		}
		opts := coordinator.IndexOptions{
			VectorsOnly: boolArg(args, "vectors_only", false),
			GraphOnly:   boolArg(args, "graph_only", false),
		}
		if err := coord.StartIndex(ctx, id, opts); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("started"), nil
	}
}

// AddIndexStopTool registers the index_stop tool.
func AddIndexStopTool(s *server.MCPServer, coord *coordinator.Coordinator) {
	tool := mcp.NewTool(
		"index_stop",
		mcp.WithDescription("Request cooperative cancellation of a project's in-flight indexing run."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID to stop indexing")),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createIndexStopHandler(coord))
}

func createIndexStopHandler(coord *coordinator.Coordinator) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := argsMap(request)
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		id, ok := stringArg(args, "project_id")
		if !ok {
			return mcp.NewToolResultError("project_id parameter is required"), nil
		}
		if err := coord.StopIndex(id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("stopping"), nil
	}
}

// AddIndexStatusTool registers the index_status tool.
func AddIndexStatusTool(s *server.MCPServer, coord *coordinator.Coordinator) {
	tool := mcp.NewTool(
		"index_status",
		mcp.WithDescription("Report a project's current indexing phase and progress counters."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID to report on")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(tool, createIndexStatusHandler(coord))
}

func createIndexStatusHandler(coord *coordinator.Coordinator) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := argsMap(request)
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		id, ok := stringArg(args, "project_id")
		if !ok {
			return mcp.NewToolResultError("project_id parameter is required"), nil
		}
		state, err := coord.Status(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(state)
	}
}

// AddProjectSettingsTool registers the project_settings tool.
func AddProjectSettingsTool(s *server.MCPServer, coord *coordinator.Coordinator) {
	tool := mcp.NewTool(
		"project_settings",
		mcp.WithDescription("Override the embedder, batch size, or debounce/poll interval for one project. Omitted fields clear that override."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID to update")),
		mcp.WithString("embedder_name", mcp.Description("Embedder provider override (omit to clear)")),
		mcp.WithNumber("max_batch_size", mcp.Description("Embedder batch size override (omit to clear)")),
		mcp.WithNumber("debounce_ms", mcp.Description("Watcher debounce/poll interval override in milliseconds (omit to clear)")),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createProjectSettingsHandler(coord))
}

func createProjectSettingsHandler(coord *coordinator.Coordinator) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := argsMap(request)
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		id, ok := stringArg(args, "project_id")
		if !ok {
			return mcp.NewToolResultError("project_id parameter is required"), nil
		}
		embedderName, _ := stringArg(args, "embedder_name")
		settings := coordinator.Settings{
			EmbedderName:     embedderName,
			MaxBatchSize:     intArg(args, "max_batch_size", 0),
			DebounceInterval: time.Duration(intArg(args, "debounce_ms", 0)) * time.Millisecond,
		}
		project, err := coord.UpdateSettings(id, settings)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(project)
	}
}

// AddIndexWatchTool registers the index_watch tool.
func AddIndexWatchTool(s *server.MCPServer, coord *coordinator.Coordinator) {
	tool := mcp.NewTool(
		"index_watch",
		mcp.WithDescription("Start watching a project's files, triggering an incremental indexing run automatically as they change."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID to watch")),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createIndexWatchHandler(coord))
}

func createIndexWatchHandler(coord *coordinator.Coordinator) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := argsMap(request)
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		id, ok := stringArg(args, "project_id")
		if !ok {
			return mcp.NewToolResultError("project_id parameter is required"), nil
		}
		if err := coord.StartWatch(id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("watching"), nil
	}
}

// AddIndexUnwatchTool registers the index_unwatch tool.
func AddIndexUnwatchTool(s *server.MCPServer, coord *coordinator.Coordinator) {
	tool := mcp.NewTool(
		"index_unwatch",
		mcp.WithDescription("Stop watching a project's files for changes."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID to stop watching")),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createIndexUnwatchHandler(coord))
}

func createIndexUnwatchHandler(coord *coordinator.Coordinator) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := argsMap(request)
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		id, ok := stringArg(args, "project_id")
		if !ok {
			return mcp.NewToolResultError("project_id parameter is required"), nil
		}
		if err := coord.StopWatch(id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("unwatched"), nil
	}
}

// AddEmbedderListTool registers the embedder_list tool.
func AddEmbedderListTool(s *server.MCPServer, coord *coordinator.Coordinator) {
	tool := mcp.NewTool(
		"embedder_list",
		mcp.WithDescription("List every embedding provider registered with the pool."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)
	s.AddTool(tool, createEmbedderListHandler(coord))
}

func createEmbedderListHandler(coord *coordinator.Coordinator) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(coord.ListEmbedders())
	}
}

// AddSearchTool registers the search tool (vector similarity).
func AddSearchTool(s *server.MCPServer, coord *coordinator.Coordinator) {
	tool := mcp.NewTool(
		"search",
		mcp.WithDescription("Semantic search over a project's indexed chunks, ranked by embedding similarity."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID to search")),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural language search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results to return (default: 10)")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(tool, createSearchHandler(coord))
}

func createSearchHandler(coord *coordinator.Coordinator) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := argsMap(request)
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		id, ok := stringArg(args, "project_id")
		if !ok {
			return mcp.NewToolResultError("project_id parameter is required"), nil
		}
		query, ok := stringArg(args, "query")
		if !ok {
			return mcp.NewToolResultError("query parameter is required"), nil
		}
		limit := intArg(args, "limit", 10)
		results, err := coord.Search(ctx, id, query, coordinator.SearchOptions{Limit: limit})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(results)
	}
}

// AddRelatedTool registers the related tool (graph traversal).
func AddRelatedTool(s *server.MCPServer, coord *coordinator.Coordinator) {
	tool := mcp.NewTool(
		"related",
		mcp.WithDescription("Walk the code graph from a node (a file, function, or type ID) to its callers, callees, and dependencies within a bounded depth."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID to query")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Graph node ID, e.g. \"internal/foo/bar.go::Run\"")),
		mcp.WithNumber("max_depth", mcp.Description("Maximum traversal depth (default: 2)")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(tool, createRelatedHandler(coord))
}

func createRelatedHandler(coord *coordinator.Coordinator) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, ok := argsMap(request)
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}
		id, ok := stringArg(args, "project_id")
		if !ok {
			return mcp.NewToolResultError("project_id parameter is required"), nil
		}
		nodeID, ok := stringArg(args, "node_id")
		if !ok {
			return mcp.NewToolResultError("node_id parameter is required"), nil
		}
		maxDepth := intArg(args, "max_depth", 2)
		results, err := coord.RelatedTo(ctx, id, nodeID, maxDepth)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return textResult(results)
	}
}
