package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/siherrmann/usreport"
	"github.com/siherrmann/usreport/core/prompt"
	"github.com/siherrmann/usreport/model"
)

var sampleCorpus = map[string]string{
	"liver.md": `# Liver
## Fatty liver
Diffusely increased echogenicity of the liver parenchyma with posterior beam attenuation,
consistent with hepatic steatosis. Grade: mild, moderate or severe.

## Liver cyst
Well defined anechoic lesion with posterior acoustic enhancement, consistent with a simple cyst.`,
	"kidney.md": `# Kidney
## Renal stone
Echogenic focus with posterior acoustic shadowing in the collecting system, consistent with nephrolithiasis.

## Hydronephrosis
Dilatation of the renal pelvis and calyces. Grade: mild, moderate or severe.`,
	"gallbladder.md": `# GallBladder
## Gallstone
Mobile echogenic focus with posterior acoustic shadowing within the gallbladder lumen, consistent with cholelithiasis.

## Gallbladder polyp
Non mobile echogenic focus without shadowing attached to the gallbladder wall.`,
}

var samplePrompt = map[string]string{
	prompt.IntroductionFile:     "You are a radiologist writing an abdominal ultrasound report.",
	prompt.EnglishStyleFile:     "Use concise British English and present tense.",
	prompt.ReportStructureFile:  "Structure the report as Liver, Kidney, GallBladder and Impression.",
	prompt.NormalTemplateFile:   "Liver: Normal size and echotexture.\nKidney: Normal size, no hydronephrosis.\nGallBladder: Normal, no stones.",
	prompt.AbnormalTemplateFile: "Replace the normal sentence of an organ with the reference text below when it is abnormal.",
}

func writeFiles(dir string, files map[string]string) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Fatalf("Failed to create %s: %v", dir, err)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", name, err)
		}
	}
}

func main() {
	workDir, err := os.MkdirTemp("", "usreport-basic")
	if err != nil {
		log.Fatalf("Failed to create work directory: %v", err)
	}
	defer os.RemoveAll(workDir)

	// Sample corpus and prompt sections
	writeFiles(filepath.Join(workDir, "abnormal"), sampleCorpus)
	writeFiles(filepath.Join(workDir, "prompt"), samplePrompt)

	// Defaults: hugot embeddings, in memory index, Gemini for extraction and generation
	config, err := model.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.CorpusDir = filepath.Join(workDir, "abnormal")
	config.PromptDir = filepath.Join(workDir, "prompt")

	ctx := context.Background()
	reporter, err := usreport.NewReporter(ctx, config)
	if err != nil {
		log.Fatalf("Failed to create reporter: %v", err)
	}
	defer reporter.Close()

	input := "Liver is enlarged with diffusely increased echogenicity. Small mobile gallstone. Kidneys unremarkable."
	fmt.Printf("Input: %s\n\n", input)

	report, err := reporter.GenerateReport(ctx, input)
	if err != nil {
		log.Fatalf("Failed to generate report: %v", err)
	}

	fmt.Println(report)
	fmt.Println("\nBasic example completed successfully!")
}
