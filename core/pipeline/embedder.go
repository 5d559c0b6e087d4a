package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/siherrmann/usreport/helper"
	"github.com/siherrmann/usreport/model"
	"google.golang.org/genai"
)

// DefaultEmbeddingModel is the local sentence transformer used by DefaultEmbedder
const DefaultEmbeddingModel = model.DefaultHugotEmbeddingModel

// DefaultEmbedder creates an embedder using a real sentence transformer model
// Uses the all-MiniLM-L6-v2 model which produces 384-dimensional embeddings
func DefaultEmbedder() (EmbedFunc, error) {
	return HugotEmbedder(DefaultEmbeddingModel)
}

// HugotEmbedder creates an embedder running a feature extraction model locally with hugot
func HugotEmbedder(modelName string) (EmbedFunc, error) {
	modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	// Initialize hugot session with Go backend
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	// The pipeline is shared by concurrent index builds
	var mu sync.Mutex

	return func(ctx context.Context, texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return [][]float32{}, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		mu.Lock()
		result, err := sentencePipeline.RunPipeline(texts)
		mu.Unlock()
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) != len(texts) {
			return nil, errEmbeddingCount(len(texts), len(result.Embeddings))
		}

		return result.Embeddings, nil
	}, nil
}

// GenAIEmbedder creates an embedder calling the Gemini embedding API.
// taskType is passed through, e.g. "RETRIEVAL_DOCUMENT" or "SEMANTIC_SIMILARITY".
// A positive dim truncates the output to that many dimensions, zero keeps the model default.
func GenAIEmbedder(client *genai.Client, modelName string, taskType string, dim int) (EmbedFunc, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is nil")
	}
	if dim < 0 {
		return nil, fmt.Errorf("embedding dimension must not be negative, got %d", dim)
	}
	if modelName == "" {
		modelName = model.DefaultGenAIEmbeddingModel
	}
	if taskType == "" {
		taskType = "SEMANTIC_SIMILARITY"
	}

	return func(ctx context.Context, texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return [][]float32{}, nil
		}

		contents := make([]*genai.Content, len(texts))
		for i, text := range texts {
			contents[i] = genai.NewContentFromText(text, genai.RoleUser)
		}

		config := &genai.EmbedContentConfig{TaskType: taskType}
		if dim > 0 {
			config.OutputDimensionality = genai.Ptr(int32(dim))
		}

		result, err := client.Models.EmbedContent(ctx, modelName, contents, config)
		if err != nil {
			return nil, fmt.Errorf("genai embed failed: %w", err)
		}

		if len(result.Embeddings) != len(texts) {
			return nil, errEmbeddingCount(len(texts), len(result.Embeddings))
		}

		embeddings := make([][]float32, len(result.Embeddings))
		for i, emb := range result.Embeddings {
			embeddings[i] = emb.Values
		}
		return embeddings, nil
	}, nil
}
