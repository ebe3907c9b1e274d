package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Ask a question about recent screen content",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, err := ctx.openPipeline()
			if err != nil {
				return err
			}
			defer pipe.Close() //nolint:errcheck

			if interactive {
				return runInteractive(cmd, pipe)
			}

			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return errors.New("provide a question or use --interactive")
			}
			fmt.Fprintln(cmd.OutOrStdout(), pipe.engine.AnswerQuery(cmd.Context(), question))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run an interactive query session")
	return cmd
}

func runInteractive(cmd *cobra.Command, pipe *pipeline) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nGuardian Interactive Mode")
	fmt.Fprintln(out, "Type 'exit' or 'quit' to exit")
	fmt.Fprintln(out, "Type 'analyze' to analyze the current app")
	fmt.Fprint(out, "Or enter your query about recent screen content\n\n")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "\nQuery: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())

		switch {
		case input == "":
			continue
		case strings.EqualFold(input, "exit"), strings.EqualFold(input, "quit"):
			return nil
		case strings.EqualFold(input, "analyze"):
			fmt.Fprintln(out, "\nAnalyzing current app...")
			result, err := pipe.engine.ClassifyCurrentApp(cmd.Context())
			fmt.Fprintln(out, "\nAnalysis Result:")
			fmt.Fprint(out, renderAnalysis(result, err))
		default:
			fmt.Fprintln(out, "\nProcessing query...")
			fmt.Fprintln(out, "\nResponse:")
			fmt.Fprintln(out, pipe.engine.AnswerQuery(cmd.Context(), input))
		}
	}
}
