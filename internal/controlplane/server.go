// Package controlplane exposes the index coordination engine over MCP
// (Model Context Protocol), the way agent tooling talks to it: register
// or inspect a project, kick off an indexing run, run a similarity
// search, or walk the code graph from a node.
//
// The lifecycle — build every tool up front, hand them to one
// server.NewMCPServer, serve on stdio with signal-driven graceful
// shutdown — is adapted from the teacher's internal/mcp/server.go,
// trading its per-tool searcher/watcher wiring for a single shared
// *coordinator.Coordinator every tool handler closes over.
package controlplane

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/cortexindex/indexd/internal/coordinator"
)

// Server manages the MCP server lifecycle.
type Server struct {
	coord *coordinator.Coordinator
	mcp   *server.MCPServer
}

// New builds an MCP server with every tool registered against coord.
func New(coord *coordinator.Coordinator) *Server {
	mcpServer := server.NewMCPServer(
		"indexd-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	AddProjectAddTool(mcpServer, coord)
	AddProjectListTool(mcpServer, coord)
	AddProjectRemoveTool(mcpServer, coord)
	AddProjectSettingsTool(mcpServer, coord)
	AddIndexStartTool(mcpServer, coord)
	AddIndexStopTool(mcpServer, coord)
	AddIndexStatusTool(mcpServer, coord)
	AddIndexWatchTool(mcpServer, coord)
	AddIndexUnwatchTool(mcpServer, coord)
	AddEmbedderListTool(mcpServer, coord)
	AddSearchTool(mcpServer, coord)
	AddRelatedTool(mcpServer, coord)

	return &Server{coord: coord, mcp: mcpServer}
}

// Serve starts the MCP server on stdio and blocks until a shutdown
// signal arrives or the server errors out.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[controlplane] starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("mcp server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("[controlplane] received shutdown signal, stopping gracefully")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the underlying coordinator.
func (s *Server) Close() error {
	return s.coord.Close()
}
