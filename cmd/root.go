package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/novel-session/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	dataDir    string
	identity   string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"

	// cfg is loaded once per invocation by the root PersistentPreRunE
	cfg *internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "novel-session",
	Short: "Play branching chat-style visual novels",
	Long: `A runtime for branching, chat-style visual novels.

Stories are played one message at a time. Choices route between chapters,
chapters unlock as they are reached, and progress is saved locally and can
be synchronized with a remote store (Redis or SQLite).

Quick Start:
  novel-session play                     # Play or resume the story
  novel-session timeline                 # Show the branch graph
  novel-session export --format md       # Export the transcript
  novel-session serve                    # Serve the driver API`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		internal.SetVerbose(verbose)

		loaded, err := internal.LoadConfig(configPath,
			internal.WithDataDir(dataDir),
			internal.WithIdentity(identity))
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the local progress blobs")
	rootCmd.PersistentFlags().StringVar(&identity, "identity", "", "Player identity used for remote sync")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
