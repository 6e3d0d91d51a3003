package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cortexindex/indexd/internal/coordinator"
)

var (
	searchLimit    int
	searchMinScore float32
)

var searchCmd = &cobra.Command{
	Use:   "search <project-id> <query>",
	Short: "Semantic search over a project's indexed chunks",
	Args:  cobra.ExactArgs(2),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")
	searchCmd.Flags().Float32Var(&searchMinScore, "min-score", 0, "Minimum similarity score (0-1)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	projectID, query := args[0], args[1]

	coord, err := buildCoordinator(cmd.Context())
	if err != nil {
		return err
	}
	defer coord.Close()

	results, err := coord.Search(cmd.Context(), projectID, query, coordinator.SearchOptions{
		Limit:    searchLimit,
		MinScore: searchMinScore,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No matches")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%s:%d-%d  (distance %.4f)\n", r.FilePath, r.StartLine, r.EndLine, r.Distance)
	}
	return nil
}
