package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "indexd",
	Short: "indexd indexes a codebase into a vector store and a code graph",
	Long: `indexd coordinates a project's vector and graph index: it walks a
repository, embeds changed chunks into a vector store, extracts entities
and relationships into a graph store, and exposes both over a CLI and an
MCP server.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (not read: project config always comes from .indexd/config.yml in the working directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig exists only to keep viper's persistent-flag bindings live
// across subcommands; per-project and global config are loaded explicitly
// by each command via internal/config, not through viper's global instance.
func initConfig() {}
