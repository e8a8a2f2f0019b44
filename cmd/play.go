package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iksnae/novel-session/internal"
	"github.com/spf13/cobra"
)

var playNoSync bool

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play or resume the story",
	Long: `Play the story in the terminal, resuming from the saved position.

Press Enter to continue, type an option number to choose, "jump <chapter>"
to restart at an unlocked chapter, or "q" to save and quit. When an identity
and a remote backend are configured, progress is synchronized on start and
on exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}

		var reconcile func()
		if cfg.SyncEnabled() && !playNoSync {
			coord, _, closeRemote, err := openCoordinator(ctx, rt)
			if err != nil {
				internal.LogWarn("Remote unavailable, playing offline: %v", err)
			} else {
				defer closeRemote()
				reconcile = func() {
					if _, err := coord.Reconcile(ctx, cfg.Identity); err != nil {
						internal.LogWarn("Sync failed: %v", err)
					}
				}
				reconcile()
			}
		}

		out := cmd.OutOrStdout()
		entries, err := rt.Start()
		if err != nil {
			return err
		}
		_ = rt.Do(func(st *internal.State) error {
			fmt.Fprintln(out, titleStyle.Render(st.Engine.Title()))
			renderEntries(out, st, st.Session.Entries())
			return nil
		})
		internal.LogDebug("Started with %d new entries", len(entries))

		if err := playLoop(ctx, rt, cmd.InOrStdin(), out); err != nil {
			return err
		}

		if err := rt.Save(); err != nil {
			return err
		}
		if reconcile != nil {
			reconcile()
		}
		return nil
	},
}

// playLoop reads one command per line until quit or end of input
func playLoop(ctx context.Context, rt *internal.Runtime, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		var phase internal.Phase
		_ = rt.Do(func(st *internal.State) error {
			phase = st.Player.Phase()
			return nil
		})
		fmt.Fprint(out, prompt(phase))

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "q" || line == "quit":
			return nil
		case strings.HasPrefix(line, "jump "):
			jump(rt, out, strings.TrimSpace(strings.TrimPrefix(line, "jump ")))
		case phase == internal.PhaseAwaitingChoice:
			if err := choose(ctx, rt, out, line); err != nil {
				internal.PrintWarning(err.Error())
			}
		case phase == internal.PhasePlaying:
			_ = rt.Do(func(st *internal.State) error {
				renderEntries(out, st, st.Player.Advance())
				return nil
			})
		}
	}
}

func prompt(phase internal.Phase) string {
	switch phase {
	case internal.PhaseAwaitingChoice:
		return metaStyle.Render("choose> ")
	case internal.PhaseEnded:
		return metaStyle.Render("(the end) jump <chapter> or q> ")
	}
	return metaStyle.Render("> ")
}

func choose(ctx context.Context, rt *internal.Runtime, out io.Writer, input string) error {
	n, err := strconv.Atoi(input)
	if err != nil {
		return errors.New("enter an option number")
	}

	var cont *internal.Continuation
	err = rt.Do(func(st *internal.State) error {
		last, _ := st.Session.Last()
		echo, c, err := st.Player.Choose(last.ID, n-1)
		if err != nil {
			return err
		}
		cont = c
		renderEntry(out, st, echo)
		return nil
	})
	if err != nil {
		return err
	}

	select {
	case <-cont.C:
	case <-ctx.Done():
		cont.Cancel()
		return ctx.Err()
	}
	return rt.Do(func(st *internal.State) error {
		renderEntries(out, st, st.Player.Advance())
		return nil
	})
}

func jump(rt *internal.Runtime, out io.Writer, chapter string) {
	err := rt.Do(func(st *internal.State) error {
		entries, err := st.Player.JumpTo(chapter)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, titleStyle.Render(chapter))
		renderEntries(out, st, entries)
		return nil
	})
	if err != nil {
		internal.PrintWarning(err.Error())
	}
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().BoolVar(&playNoSync, "offline", false, "Skip remote synchronization")
}
