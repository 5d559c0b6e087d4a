package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/siherrmann/usreport"
	"github.com/siherrmann/usreport/core/prompt"
	"github.com/siherrmann/usreport/helper"
	"github.com/siherrmann/usreport/model"
)

const liverReference = `# Liver
## Fatty liver
Diffusely increased echogenicity with posterior beam attenuation, consistent with hepatic steatosis.

## Cirrhosis
Nodular liver surface, coarse echotexture and caudate lobe hypertrophy.

## Hemangioma
Well defined homogeneous hyperechoic lesion without internal flow.`

const kidneyReference = `# Kidney
## Renal cyst
Anechoic lesion with thin wall and posterior acoustic enhancement, Bosniak I.

## Renal stone
Echogenic focus with posterior acoustic shadowing and twinkling artifact.`

const gallbladderReference = `# GallBladder
## Gallstone
Mobile echogenic focus with posterior acoustic shadowing.

## Sludge
Layering low level echoes without shadowing.

## Cholecystitis
Wall thickening above 3 mm, pericholecystic fluid and positive sonographic Murphy sign.`

func main() {
	// Start a test PostgreSQL container with pgvector
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}
	logger := helper.NewLogger(os.Stdout, slog.LevelInfo)
	db, err := helper.NewDatabase("usreport", dbConfig, logger)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	workDir, err := os.MkdirTemp("", "usreport-advanced")
	if err != nil {
		log.Fatalf("Failed to create work directory: %v", err)
	}
	defer os.RemoveAll(workDir)

	corpusDir := filepath.Join(workDir, "abnormal")
	promptDir := filepath.Join(workDir, "prompt")
	for dir, files := range map[string]map[string]string{
		corpusDir: {"liver.md": liverReference, "kidney.md": kidneyReference, "gallbladder.md": gallbladderReference},
		// Only the introduction, the other sections show their placeholder text
		promptDir: {prompt.IntroductionFile: "You are a radiologist writing an abdominal ultrasound report."},
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create %s: %v", dir, err)
		}
		for name, content := range files {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
				log.Fatalf("Failed to write %s: %v", name, err)
			}
		}
	}

	// pgvector backend with an HNSW index, Gemini embeddings and a metadata scoped query
	config, err := model.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.CorpusDir = corpusDir
	config.PromptDir = promptDir
	config.Backend = model.IndexBackendPGVector
	config.VectorIndex = "hnsw"
	config.Embedder = model.EmbedderGenAI
	// hnsw indexes take at most 2000 dimensions
	config.EmbeddingDim = 768
	config.Retriever.K = 2
	config.Retriever.QueryTemplate = model.MetadataScopedQueryTemplate

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reporter, err := usreport.NewReporter(ctx, config, usreport.WithDatabase(db), usreport.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to create reporter: %v", err)
	}
	defer reporter.Close()

	if err := reporter.LoadCorpus(ctx); err != nil {
		log.Fatalf("Failed to load corpus: %v", err)
	}

	// Reload the indexes when a reference file changes
	go func() {
		if err := reporter.WatchCorpus(ctx); err != nil {
			log.Printf("Corpus watcher stopped: %v", err)
		}
	}()

	inputs := []string{
		"Coarse liver with nodular surface. Gallbladder wall 5 mm with pericholecystic fluid.",
		"Normal abdominal ultrasound.",
	}
	for _, input := range inputs {
		fmt.Printf("\n=== Input: %s ===\n", input)

		trace, err := reporter.GenerateReportWithTrace(ctx, input)
		if err != nil {
			log.Fatalf("Failed to generate report: %v", err)
		}

		findings, _ := json.MarshalIndent(trace.Findings, "", "  ")
		fmt.Printf("Findings:\n%s\n", findings)
		for _, organ := range model.Organs() {
			for _, segment := range trace.Retrieved.ForOrgan(organ) {
				fmt.Printf("Retrieved %s: %s (%.4f)\n", organ.DisplayName(), segment.HeaderPath(), segment.Similarity)
			}
		}
		fmt.Printf("\nReport:\n%s\n", trace.Report)
	}

	fmt.Println("\nAdvanced example completed successfully!")
}
