package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/novel-session/internal"
	"github.com/iksnae/novel-session/internal/cloud"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
)

var (
	successStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	warningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	infoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that the story, the local save and the remote store are usable",
	Long: `Check the health of novel-session by verifying:
  • The local data directory is writable
  • The story loads (from the save or the bundled seed)
  • The remote store answers, when one is configured

This command is useful for debugging configuration problems.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Novel Session Health Check"))
		fmt.Fprintln(out)

		// Step 1: Local data directory
		fmt.Fprintln(out, infoStyle.Render("Step 1: Checking local data directory..."))
		store := internal.NewLocalStore(cfg.DataDir)
		if err := store.EnsureDir(); err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Data directory is not writable:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Data directory ready"))
		if healthcheckVerbose {
			fmt.Fprintf(out, "   Directory: %s\n", store.Dir())
		}
		modTime, saved, err := store.EngineModTime()
		switch {
		case err != nil:
			fmt.Fprintln(out, warningStyle.Render("⚠️  Could not stat the save:"), err)
		case saved:
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Save found (%s)", modTime.Format(time.RFC3339))))
		default:
			fmt.Fprintln(out, warningStyle.Render("⚠️  No save yet, the bundled story will be used"))
		}
		fmt.Fprintln(out)

		// Step 2: Story
		fmt.Fprintln(out, infoStyle.Render("Step 2: Loading the story..."))
		rt, err := openRuntime()
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to load the story:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		var chapters, unlocked int
		_ = rt.Do(func(st *internal.State) error {
			for _, ch := range st.Engine.Novel().Chapters {
				chapters++
				if ch.Unlocked {
					unlocked++
				}
			}
			fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Loaded %q", st.Engine.Title())))
			if healthcheckVerbose {
				fmt.Fprintf(out, "   Chapters: %d (%d unlocked)\n", chapters, unlocked)
				fmt.Fprintf(out, "   Transcript entries: %d\n", st.Session.Len())
			}
			return nil
		})
		fmt.Fprintln(out)

		// Step 3: Remote store
		fmt.Fprintln(out, infoStyle.Render("Step 3: Checking remote store..."))
		remoteOK := true
		if cfg.RemoteBackend == internal.BackendNone {
			fmt.Fprintln(out, warningStyle.Render("⚠️  No remote backend configured, progress stays local"))
		} else {
			remoteOK = checkRemote(cmd.Context(), out)
		}
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		if !remoteOK {
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			fmt.Fprintln(out, "   • Local play works")
			fmt.Fprintln(out, "   • Remote sync is unavailable")
			return fmt.Errorf("health check failed: remote %s unavailable", cfg.RemoteBackend)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("   • Chapters: %d (%d unlocked)", chapters, unlocked)))
		return nil
	},
}

func checkRemote(ctx context.Context, out io.Writer) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	remote, err := cloud.OpenRemote(ctx, cfg)
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("❌ Failed to open remote store:"), err)
		return false
	}
	defer func() { _ = remote.Close() }()
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Connected to %s backend", cfg.RemoteBackend)))

	if cfg.Identity == "" {
		fmt.Fprintln(out, warningStyle.Render("⚠️  No identity configured, sync will not run"))
		return true
	}
	snap, err := remote.Fetch(ctx, cfg.Identity)
	switch {
	case err != nil:
		fmt.Fprintln(out, errorStyle.Render("❌ Failed to read remote progress:"), err)
		return false
	case snap == nil:
		fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  No remote progress for %s yet", cfg.Identity)))
	default:
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Remote progress for %s saved %s", cfg.Identity, snap.UpdatedAt.Format(time.RFC3339))))
	}
	return true
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed diagnostic information")
}
