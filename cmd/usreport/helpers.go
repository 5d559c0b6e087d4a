package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/siherrmann/usreport"
	"github.com/siherrmann/usreport/helper"
	"github.com/siherrmann/usreport/model"
	"github.com/spf13/cobra"
)

// loadConfig reads the configuration file and environment, then applies the flags set on cmd
func loadConfig(cmd *cobra.Command) (model.Config, error) {
	config, err := model.LoadConfig(rootFlags.configPath)
	if err != nil {
		return config, err
	}

	flags := cmd.Flags()
	if flags.Changed("corpus") {
		config.CorpusDir = rootFlags.corpusDir
	}
	if flags.Changed("prompts") {
		config.PromptDir = rootFlags.promptDir
	}
	if flags.Changed("k") {
		config.Retriever.K = rootFlags.k
	}
	if flags.Changed("embedder") {
		config.Embedder = model.EmbedderProvider(rootFlags.embedder)
	}
	if flags.Changed("backend") {
		config.Backend = model.IndexBackend(rootFlags.backend)
	}

	return config, config.Validate()
}

// newReporter creates a reporter logging to stderr, so stdout only carries results
func newReporter(ctx context.Context, config model.Config, opts ...usreport.Option) (*usreport.Reporter, error) {
	level := slog.LevelWarn
	if rootFlags.verbose {
		level = slog.LevelDebug
	}
	opts = append([]usreport.Option{usreport.WithLogger(helper.NewLogger(os.Stderr, level))}, opts...)
	return usreport.NewReporter(ctx, config, opts...)
}

// readInput returns the positional arguments joined, the input file, or stdin, in that order
func readInput(args []string, inputFile string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return validInput(strings.Join(args, " "))
	}
	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		return validInput(string(data))
	}
	if stdin != nil {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return validInput(string(data))
	}
	return validInput("")
}

func validInput(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("input text is required\n\nUsage: usreport generate \"<findings text>\"\n       usreport generate --input-file notes.txt")
	}
	return input, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
