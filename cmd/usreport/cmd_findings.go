package main

import (
	"github.com/spf13/cobra"
)

var findingsFlags struct {
	inputFile string
}

var findingsCmd = &cobra.Command{
	Use:   "findings [text]",
	Short: "Extract the abnormal findings per organ as JSON",
	RunE:  runFindings,
}

func init() {
	findingsCmd.Flags().StringVarP(&findingsFlags.inputFile, "input-file", "f", "", "Read the input text from a file")
}

func runFindings(cmd *cobra.Command, args []string) error {
	input, err := readInput(args, findingsFlags.inputFile, cmd.InOrStdin())
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

	findings, err := reporter.ExtractFindings(ctx, input)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), findings)
}
