package cmd

import (
	"fmt"

	"github.com/iksnae/novel-session/internal"
	"github.com/spf13/cobra"
)

// collectionsCmd represents the collections command
var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List gallery collections and whether they are unlocked",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		return rt.Do(func(st *internal.State) error {
			novel := st.Engine.Novel()
			if novel == nil || len(novel.Collections) == 0 {
				fmt.Fprintln(out, metaStyle.Render("This story has no collections"))
				return nil
			}

			unlocked := 0
			for _, c := range novel.Collections {
				if !c.Unlocked {
					fmt.Fprintln(out, hintStyle.Render("🔒 ???"))
					continue
				}
				unlocked++
				fmt.Fprintln(out, outgoingStyle.Render("★ "+c.Name))
				if c.Desc != "" {
					fmt.Fprintln(out, contentStyle.Render(c.Desc))
				}
			}
			fmt.Fprintln(out, metaStyle.Render(fmt.Sprintf("%d of %d unlocked", unlocked, len(novel.Collections))))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}
