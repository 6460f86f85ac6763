package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sporeforge/sporeforge/pkg/steam"
)

func newLocateCommand() *cobra.Command {
	var sporeOnly bool

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "List games discovered in the Steam libraries",
		Long: `Scan every configured Steam library folder and print the installed
games. With --spore, print only titles matching "spore".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			games, err := steam.NewLocator()
			if err != nil {
				return err
			}

			records, err := games.FindAllGames()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPLATFORM\tPATH")
			shown := 0
			for _, rec := range records {
				if sporeOnly && !strings.Contains(strings.ToLower(rec.Name), "spore") {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", rec.Name, rec.Platform, rec.Path)
				shown++
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if shown == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no games found")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&sporeOnly, "spore", false, "only show Spore installations")

	return cmd
}
