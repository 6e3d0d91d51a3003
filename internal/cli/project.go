package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/cortexindex/indexd/internal/coordinator"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage registered projects",
}

var projectAddCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Register a directory as an indexable project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectAdd,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered project",
	RunE:  runProjectList,
}

var projectRemoveCmd = &cobra.Command{
	Use:   "rm <project-id>",
	Short: "Unregister a project and tear down its stores",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectRemove,
}

var (
	settingsEmbedderFlag   string
	settingsMaxBatchFlag   int
	settingsDebounceMsFlag int
)

var projectSettingsCmd = &cobra.Command{
	Use:   "settings <project-id>",
	Short: "Override the embedder, batch size, or debounce/poll interval for one project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectSettings,
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectAddCmd, projectListCmd, projectRemoveCmd, projectSettingsCmd)

	projectSettingsCmd.Flags().StringVar(&settingsEmbedderFlag, "embedder", "", "embedder provider override (empty keeps the coordinator default)")
	projectSettingsCmd.Flags().IntVar(&settingsMaxBatchFlag, "max-batch-size", 0, "embedder batch size override (0 keeps the pool default)")
	projectSettingsCmd.Flags().IntVar(&settingsDebounceMsFlag, "debounce-ms", 0, "watcher debounce/poll interval override in milliseconds (0 keeps the default)")
}

func runProjectAdd(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve project path: %w", err)
	}

	coord, err := buildCoordinator(cmd.Context())
	if err != nil {
		return err
	}
	defer coord.Close()

	project, err := coord.AddProject(abs)
	if err != nil {
		return fmt.Errorf("failed to register project: %w", err)
	}
	fmt.Printf("Registered project %s (%s)\n", project.ID, project.RootPath)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	coord, err := buildCoordinator(cmd.Context())
	if err != nil {
		return err
	}
	defer coord.Close()

	projects := coord.ListProjects()
	if len(projects) == 0 {
		fmt.Println("No projects registered")
		return nil
	}
	for _, p := range projects {
		fmt.Printf("%s  %-10s  %s\n", p.ID, p.State, p.RootPath)
	}
	return nil
}

func runProjectSettings(cmd *cobra.Command, args []string) error {
	coord, err := buildCoordinator(cmd.Context())
	if err != nil {
		return err
	}
	defer coord.Close()

	settings := coordinator.Settings{
		EmbedderName:     settingsEmbedderFlag,
		MaxBatchSize:     settingsMaxBatchFlag,
		DebounceInterval: time.Duration(settingsDebounceMsFlag) * time.Millisecond,
	}
	project, err := coord.UpdateSettings(args[0], settings)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	fmt.Printf("Updated settings for %s (%s)\n", project.ID, project.RootPath)
	return nil
}

func runProjectRemove(cmd *cobra.Command, args []string) error {
	coord, err := buildCoordinator(cmd.Context())
	if err != nil {
		return err
	}
	defer coord.Close()

	if err := coord.RemoveProject(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove project: %w", err)
	}
	fmt.Printf("Removed project %s\n", args[0])
	return nil
}
