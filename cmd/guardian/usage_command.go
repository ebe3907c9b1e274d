package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newUsageCommand(ctx *commandContext) *cobra.Command {
	var recentLimit int

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show today's application usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openUsageStore()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			summaries, err := store.SummarizeToday(cmd.Context())
			if err != nil {
				return err
			}
			recent, err := store.ListRecent(cmd.Context(), recentLimit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No usage recorded today")
			} else {
				rows := make([][]string, 0, len(summaries))
				for _, summary := range summaries {
					rows = append(rows, []string{
						summary.AppName,
						strconv.Itoa(summary.Count),
						strconv.Itoa(summary.Inappropriate),
					})
				}
				fmt.Fprintln(out, "Today:")
				fmt.Fprintln(out, renderTable(
					[]tableColumn{
						{title: "App"},
						{title: "Checks", numeric: true},
						{title: "Flagged", numeric: true},
					},
					rows,
				))
			}

			if len(recent) > 0 {
				now := time.Now()
				rows := make([][]string, 0, len(recent))
				for _, record := range recent {
					rows = append(rows, []string{
						formatAge(record.RecordedAt, now),
						record.AppName,
						string(record.Category),
						yesNo(record.IsAppropriate),
					})
				}
				fmt.Fprintln(out, "Recent checks:")
				fmt.Fprintln(out, renderTable(
					[]tableColumn{
						{title: "When"},
						{title: "App"},
						{title: "Category"},
						{title: "Appropriate"},
					},
					rows,
				))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&recentLimit, "recent", "n", 10, "Number of recent checks to show")
	return cmd
}
