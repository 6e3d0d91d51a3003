package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cortexindex/indexd/internal/coordinator"
)

var (
	vectorsOnlyFlag bool
	graphOnlyFlag   bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Indexing run commands",
}

var indexStartCmd = &cobra.Command{
	Use:   "start <project-id>",
	Short: "Start an incremental indexing run and wait for it to finish",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexStart,
}

var indexStopCmd = &cobra.Command{
	Use:   "stop <project-id>",
	Short: "Request cooperative cancellation of an in-flight indexing run",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexStop,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status <project-id>",
	Short: "Show a project's current indexing phase and progress",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexStatus,
}

var indexWatchCmd = &cobra.Command{
	Use:   "watch <project-id>",
	Short: "Watch a project's files and reindex incrementally as they change",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexWatch,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexStartCmd, indexStopCmd, indexStatusCmd, indexWatchCmd)

	indexStartCmd.Flags().BoolVar(&vectorsOnlyFlag, "vectors-only", false, "Skip the graph extraction pipeline")
	indexStartCmd.Flags().BoolVar(&graphOnlyFlag, "graph-only", false, "Skip the embedding pipeline")
}

func runIndexStart(cmd *cobra.Command, args []string) error {
	projectID := args[0]

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	coord, err := buildCoordinator(ctx)
	if err != nil {
		return err
	}
	defer coord.Close()

	// Each CLI invocation subscribes under its own ID so concurrent
	// `index start` runs (or an MCP client watching the same project)
	// never steal each other's progress channel.
	subscriberID := uuid.NewString()
	events := coord.SubscribeProgress(projectID, subscriberID)
	defer coord.UnsubscribeProgress(projectID, subscriberID)

	opts := coordinator.IndexOptions{VectorsOnly: vectorsOnlyFlag, GraphOnly: graphOnlyFlag}
	if err := coord.StartIndex(ctx, projectID, opts); err != nil {
		return fmt.Errorf("failed to start indexing: %w", err)
	}

	fmt.Println("Indexing started, waiting for completion...")
	var bar *progressbar.ProgressBar
	for {
		var state coordinator.ProjectState
		select {
		case <-ctx.Done():
			coord.StopIndex(projectID)
			return fmt.Errorf("interrupted")
		case ev, ok := <-events:
			if !ok {
				return fmt.Errorf("progress channel closed before indexing completed")
			}
			state = ev.State
		}

		if state.FilesTotal > 0 {
			if bar == nil {
				bar = progressbar.NewOptions(state.FilesTotal,
					progressbar.OptionSetDescription("Indexing files"),
					progressbar.OptionSetWidth(40),
					progressbar.OptionShowCount(),
					progressbar.OptionShowIts(),
					progressbar.OptionSetItsString("files/s"),
					progressbar.OptionThrottle(65*time.Millisecond),
					progressbar.OptionShowElapsedTimeOnFinish(),
				)
			}
			bar.Set(state.FilesDone)
		}

		switch state.Phase {
		case coordinator.PhaseComplete:
			if bar != nil {
				bar.Finish()
				fmt.Println()
			}
			fmt.Printf("Indexing complete: %d files, %d chunks\n", state.FilesDone, state.ChunksIndexed)
			return nil
		case coordinator.PhasePartial:
			if bar != nil {
				bar.Finish()
				fmt.Println()
			}
			return fmt.Errorf("indexing finished with %d failed file(s): %s", state.FailedFiles, state.LastError)
		case coordinator.PhaseError:
			return fmt.Errorf("indexing failed: %s", state.LastError)
		}
	}
}

func runIndexWatch(cmd *cobra.Command, args []string) error {
	projectID := args[0]

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	coord, err := buildCoordinator(ctx)
	if err != nil {
		return err
	}
	defer coord.Close()

	subscriberID := uuid.NewString()
	events := coord.SubscribeProgress(projectID, subscriberID)
	defer coord.UnsubscribeProgress(projectID, subscriberID)

	if err := coord.StartWatch(projectID); err != nil {
		return fmt.Errorf("failed to start watching: %w", err)
	}
	defer coord.StopWatch(projectID)

	fmt.Println("Watching for changes, press Ctrl-C to stop...")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.State.Phase {
			case coordinator.PhaseComplete:
				fmt.Printf("Reindexed: %d files, %d chunks\n", ev.State.FilesDone, ev.State.ChunksIndexed)
			case coordinator.PhaseError:
				fmt.Printf("Reindex failed: %s\n", ev.State.LastError)
			}
		}
	}
}

func runIndexStop(cmd *cobra.Command, args []string) error {
	coord, err := buildCoordinator(cmd.Context())
	if err != nil {
		return err
	}
	defer coord.Close()

	if err := coord.StopIndex(args[0]); err != nil {
		return fmt.Errorf("failed to stop indexing: %w", err)
	}
	fmt.Println("Stop requested")
	return nil
}

func runIndexStatus(cmd *cobra.Command, args []string) error {
	coord, err := buildCoordinator(cmd.Context())
	if err != nil {
		return err
	}
	defer coord.Close()

	state, err := coord.Status(args[0])
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}
	fmt.Printf("Phase:   %s\n", state.Phase)
	fmt.Printf("Files:   %d/%d\n", state.FilesDone, state.FilesTotal)
	fmt.Printf("Chunks:  %d\n", state.ChunksIndexed)
	if state.CurrentFile != "" {
		fmt.Printf("Current: %s\n", state.CurrentFile)
	}
	if state.LastError != "" {
		fmt.Printf("Error:   %s\n", state.LastError)
	}
	return nil
}
