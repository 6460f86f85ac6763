package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newRunsCommand() *cobra.Command {
	var (
		limit int
		runID string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recorded install runs",
		Long: `List past install pipeline runs from the local run-history database.
With --id, show the step-by-step outcome of a single run instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}

			store := openStore(cmd, cfg, logger)
			if store == nil {
				return fmt.Errorf("run history database unavailable at %s", cfg.StateDB)
			}
			defer store.Close()

			ctx := cmd.Context()
			if runID != "" {
				run, err := store.GetRun(ctx, runID)
				if err != nil {
					return err
				}
				steps, err := store.GetSteps(ctx, runID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run %s on prefix %s: %s\n", run.ID, run.PrefixName, run.Status)
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "SEQ\tSTEP\tSTATUS\tDETAIL")
				for _, s := range steps {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Seq, s.Name, s.Status, s.Detail)
				}
				return w.Flush()
			}

			runs, err := store.ListRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPREFIX\tSTATUS\tSTARTED\tDURATION")
			for _, r := range runs {
				dur := "-"
				if !r.CompletedAt.IsZero() {
					dur = r.CompletedAt.Sub(r.StartedAt).Round(time.Second).String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.PrefixName, r.Status, r.StartedAt.Format(time.RFC3339), dur)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().StringVar(&runID, "id", "", "show the steps of a single run")

	return cmd
}
