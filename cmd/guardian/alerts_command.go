package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newAlertsCommand(ctx *commandContext) *cobra.Command {
	alertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "Inspect content and usage alerts",
	}

	alertsCmd.AddCommand(newAlertsListCommand(ctx))
	alertsCmd.AddCommand(newAlertsResolveCommand(ctx))
	return alertsCmd
}

func newAlertsListCommand(ctx *commandContext) *cobra.Command {
	var includeResolved bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openUsageStore()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			alerts, err := store.ListAlerts(cmd.Context(), includeResolved, limit)
			if err != nil {
				return err
			}
			if len(alerts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No alerts")
				return nil
			}

			rows := make([][]string, 0, len(alerts))
			for _, alert := range alerts {
				resolved := ""
				if alert.Resolved {
					resolved = "resolved"
				}
				rows = append(rows, []string{
					strconv.FormatInt(alert.ID, 10),
					alert.CreatedAt.Local().Format("2006-01-02 15:04"),
					alert.Severity,
					string(alert.Type),
					alert.AppName,
					alert.Description,
					resolved,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]tableColumn{
					{title: "ID", numeric: true},
					{title: "Time"},
					{title: "Severity"},
					{title: "Type"},
					{title: "App"},
					{title: "Description"},
					{},
				},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&includeResolved, "all", "a", false, "Include resolved alerts")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of alerts to show")
	return cmd
}

func newAlertsResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Mark an alert as resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid alert id %q", args[0])
			}

			store, err := ctx.openUsageStore()
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			resolved, err := store.ResolveAlert(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !resolved {
				return fmt.Errorf("alert %d not found", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Alert %d resolved\n", id)
			return nil
		},
	}
}

func formatAge(from time.Time, now time.Time) string {
	age := now.Sub(from)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(age.Hours()/24))
	}
}
