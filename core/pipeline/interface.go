package pipeline

import (
	"context"

	"github.com/siherrmann/usreport/model"
)

// SplitFunc splits a markdown document into heading delimited sections
type SplitFunc func(text string) ([]SectionWithHeaders, error)

// EmbedFunc generates one embedding per input text, in input order
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// ExtractFunc extracts the abnormal findings per organ from free clinical text
type ExtractFunc func(ctx context.Context, text string) (*model.FindingsSet, error)

// CompleteFunc sends a prompt to a generation model and returns its raw text
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// SectionWithHeaders represents a section with the heading chain it belongs to
type SectionWithHeaders struct {
	Content string
	Headers model.Metadata
}

// Pipeline combines the model facing functions of the report pipeline.
// Every field is injected; there are no implicit default clients.
type Pipeline struct {
	Splitter  SplitFunc
	Embedder  EmbedFunc
	Extractor ExtractFunc
	Generator CompleteFunc
}

// NewPipeline creates a new processing pipeline
func NewPipeline(splitter SplitFunc, embedder EmbedFunc, extractor ExtractFunc, generator CompleteFunc) *Pipeline {
	return &Pipeline{
		Splitter:  splitter,
		Embedder:  embedder,
		Extractor: extractor,
		Generator: generator,
	}
}

// Validate reports the first missing function
func (p *Pipeline) Validate() error {
	if err := p.ValidateRetrieval(); err != nil {
		return err
	}
	switch {
	case p.Extractor == nil:
		return errMissing("extractor")
	case p.Generator == nil:
		return errMissing("generator")
	}
	return nil
}

// ValidateRetrieval only checks the functions needed to load the corpus and resolve findings
func (p *Pipeline) ValidateRetrieval() error {
	switch {
	case p == nil:
		return errMissing("pipeline")
	case p.Splitter == nil:
		return errMissing("splitter")
	case p.Embedder == nil:
		return errMissing("embedder")
	}
	return nil
}

// EmbedOne embeds a single text with a batch embedder
func EmbedOne(ctx context.Context, embed EmbedFunc, text string) ([]float32, error) {
	embeddings, err := embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, errEmbeddingCount(1, len(embeddings))
	}
	return embeddings[0], nil
}
