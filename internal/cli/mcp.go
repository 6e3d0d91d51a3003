package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cortexindex/indexd/internal/config"
	"github.com/cortexindex/indexd/internal/controlplane"
	"github.com/cortexindex/indexd/internal/daemon"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for agent-driven indexing and search",
	Long: `Start the Model Context Protocol (MCP) server that lets coding
assistants register projects, trigger indexing runs, and query the
vector and graph stores over stdio.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	globalCfg, err := config.LoadGlobalConfig()
	if err != nil {
		return fmt.Errorf("failed to load global configuration: %w", err)
	}

	singleton := daemon.NewSingletonDaemon("mcp", globalCfg.Daemon.SocketPath)
	won, err := singleton.EnforceSingleton()
	if err != nil {
		return fmt.Errorf("singleton check failed: %w", err)
	}
	if !won {
		fmt.Fprintln(os.Stderr, "indexd mcp is already running")
		return nil
	}
	defer singleton.Release()

	coord, err := buildCoordinator(ctx)
	if err != nil {
		return err
	}

	srv := controlplane.New(coord)
	defer srv.Close()

	if err := srv.Serve(ctx); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}
