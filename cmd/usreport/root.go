package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	corpusDir  string
	promptDir  string
	k          int
	embedder   string
	backend    string
	verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "usreport",
	Short: "Generate ultrasound reports with retrieval augmented generation",
	Long: `usreport extracts abnormal liver, kidney and gallbladder findings from free text,
retrieves matching passages from the reference corpus and lets a language model
write the final report.

Configuration is read from --config (YAML), USREPORT_* environment variables
and the flags below, in that order. The API key is read from GEMINI_API_KEY
or GOOGLE_API_KEY.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&rootFlags.configPath, "config", "", "Path to YAML configuration file")
	f.StringVar(&rootFlags.corpusDir, "corpus", "", "Reference corpus directory (default: abnormal)")
	f.StringVar(&rootFlags.promptDir, "prompts", "", "Prompt section directory (default: prompt)")
	f.IntVar(&rootFlags.k, "k", 0, "Segments retrieved per finding (default: 3)")
	f.StringVar(&rootFlags.embedder, "embedder", "", "Embedder: hugot or genai")
	f.StringVar(&rootFlags.backend, "backend", "", "Index backend: memory or pgvector")
	f.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(findingsCmd)
	rootCmd.AddCommand(promptCmd)
	rootCmd.Version = version
}
