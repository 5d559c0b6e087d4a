package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/siherrmann/usreport"
	"github.com/siherrmann/usreport/model"
	"github.com/spf13/cobra"
)

var promptFlags struct {
	findingsFile string
}

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the composed prompt template for a findings JSON",
	Long: `Prompt retrieves the reference segments for the given findings and prints
the composed prompt with the user input shown as {user}.

The findings are read from --findings-file or stdin in the form
{"abnormal_liver":[{"finding":"..."}],"abnormal_kidney":[],"abnormal_gallbladder":[]}.`,
	Args: cobra.NoArgs,
	RunE: runPrompt,
}

func init() {
	promptCmd.Flags().StringVar(&promptFlags.findingsFile, "findings-file", "", "Findings JSON file (default: stdin)")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	findings, err := readFindings(promptFlags.findingsFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	// Extraction and generation are never called here
	reporter, err := newReporter(ctx, config, usreport.WithRetrievalOnly())
	if err != nil {
		return err
	}
	defer reporter.Close()

	retrieved, err := reporter.Resolve(ctx, findings)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), reporter.ComposePrompt(retrieved).String())
	return err
}

func readFindings(path string, stdin io.Reader) (*model.FindingsSet, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = io.ReadAll(stdin)
	}
	if err != nil {
		return nil, fmt.Errorf("read findings: %w", err)
	}

	findings := &model.FindingsSet{}
	if err := json.Unmarshal(data, findings); err != nil {
		return nil, fmt.Errorf("parse findings: %w", err)
	}
	return findings, nil
}
