package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var skipProbe bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check capture, model, and configuration health",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, err := ctx.openPipeline()
			if err != nil {
				return err
			}
			defer pipe.Close() //nolint:errcheck

			var report statusReport

			conf := report.section("Configuration")
			if strings.TrimSpace(pipe.cfg.Gemini.APIKey) == "" {
				conf.add("API key", statusError, "not set (export GOOGLE_API_KEY)")
			} else {
				conf.add("API key", statusOK, "configured")
			}
			conf.add("Capture DB", statusInfo, pipe.cfg.Capture.DBPath)
			conf.add("Usage DB", statusInfo, pipe.cfg.UsageDBPath())
			if topic := strings.TrimSpace(pipe.cfg.Notifications.NtfyTopic); topic != "" {
				conf.add("Notifications", statusOK, "ntfy topic "+topic)
			} else {
				conf.add("Notifications", statusWarn, "no ntfy topic configured")
			}

			capt := report.section("Capture database")
			if tables, err := pipe.capture.Ping(cmd.Context()); err != nil {
				capt.add("Connection", statusError, err.Error())
			} else {
				capt.add("Connection", statusOK, fmt.Sprintf("%d tables", len(tables)))
			}

			model := report.section("Google Gemini")
			switch {
			case skipProbe:
				model.add("Connection", statusInfo, "probe skipped")
			default:
				if err := pipe.model.Probe(cmd.Context()); err != nil {
					model.add("Connection", statusError, err.Error())
				} else {
					model.add("Connection", statusOK, "model reachable")
				}
			}
			rate := pipe.limiter.Usage()
			model.add("Rate usage", statusInfo,
				fmt.Sprintf("%d/%d this minute, %d/%d today",
					rate.LastMinute, rate.PerMinuteLimit, rate.Today, rate.DailyLimit))

			report.write(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipProbe, "no-probe", false, "Skip the Gemini connection probe")
	return cmd
}
