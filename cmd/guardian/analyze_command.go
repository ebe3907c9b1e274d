package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"guardian/internal/analysis"
	"guardian/internal/engine"
	"guardian/internal/transcript"
)

var titleCaser = cases.Title(language.English)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Classify the currently focused application",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, err := ctx.openPipeline()
			if err != nil {
				return err
			}
			defer pipe.Close() //nolint:errcheck

			result, classifyErr := pipe.engine.ClassifyCurrentApp(cmd.Context())
			fmt.Fprint(cmd.OutOrStdout(), renderAnalysis(result, classifyErr))
			return nil
		},
	}
}

func renderAnalysis(result analysis.AppAnalysis, err error) string {
	var b strings.Builder

	switch {
	case errors.Is(err, engine.ErrNoContent):
		fmt.Fprintln(&b, transcript.NoContentMessage)
		return b.String()
	case err != nil:
		fmt.Fprintln(&b, engine.UserMessage(err))
		return b.String()
	}

	fmt.Fprintf(&b, "Category:          %s\n", result.Category)
	fmt.Fprintf(&b, "Appropriate:       %s\n", yesNo(result.IsAppropriate))
	fmt.Fprintf(&b, "Age rating:        %s\n", result.AgeRating)
	if result.EducationalValue > 0 {
		fmt.Fprintf(&b, "Educational value: %d/10\n", result.EducationalValue)
	}
	if len(result.Concerns) > 0 {
		fmt.Fprintf(&b, "Concerns:          %s\n", titleCaser.String(strings.Join(result.Concerns, "; ")))
	}
	if raw := strings.TrimSpace(result.RawText); raw != "" {
		fmt.Fprintf(&b, "\n%s\n", raw)
	}
	return b.String()
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
