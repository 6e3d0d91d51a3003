package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var embedderCmd = &cobra.Command{
	Use:   "embedder",
	Short: "Embedder pool commands",
}

var embedderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered embedding provider",
	RunE:  runEmbedderList,
}

func init() {
	rootCmd.AddCommand(embedderCmd)
	embedderCmd.AddCommand(embedderListCmd)
}

func runEmbedderList(cmd *cobra.Command, args []string) error {
	coord, err := buildCoordinator(cmd.Context())
	if err != nil {
		return err
	}
	defer coord.Close()

	for _, name := range coord.ListEmbedders() {
		fmt.Println(name)
	}
	return nil
}
