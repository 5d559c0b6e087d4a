package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var generateFlags struct {
	inputFile string
	trace     bool
}

var generateCmd = &cobra.Command{
	Use:   "generate [text]",
	Short: "Generate a report from free text findings",
	Long: `Generate runs the full pipeline: extract findings, retrieve reference
segments per organ, compose the prompt and generate the report.

The input is taken from the arguments, --input-file or stdin.
With --trace the findings, retrieved segments and prompt are printed as JSON
together with the report.`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&generateFlags.inputFile, "input-file", "f", "", "Read the input text from a file")
	f.BoolVar(&generateFlags.trace, "trace", false, "Print intermediate artifacts as JSON")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	input, err := readInput(args, generateFlags.inputFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	reporter, err := newReporter(ctx, config)
	if err != nil {
		return err
	}
	defer reporter.Close()

	if generateFlags.trace {
		trace, err := reporter.GenerateReportWithTrace(ctx, input)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), trace)
	}

	report, err := reporter.GenerateReport(ctx, input)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), report)
	return err
}
