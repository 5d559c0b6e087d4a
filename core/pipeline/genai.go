package pipeline

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// NewGenAIClient creates a Gemini API client. baseURL is only set for tests and proxies.
func NewGenAIClient(ctx context.Context, apiKey string, baseURL string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}

	config := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		config.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}
