package pipeline

import (
	"context"
	"fmt"

	"github.com/siherrmann/usreport/helper"
	"github.com/siherrmann/usreport/model"
	"google.golang.org/genai"
)

// GenAIGenerator creates a completion function returning the model text unmodified
func GenAIGenerator(client *genai.Client, modelName string) (CompleteFunc, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is nil")
	}
	if modelName == "" {
		return nil, fmt.Errorf("generation model name is required")
	}

	return func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, modelName, genai.Text(prompt), nil)
		if err != nil {
			return "", helper.NewKindError(model.ErrGeneration, "generate content", err)
		}
		return resp.Text(), nil
	}, nil
}
