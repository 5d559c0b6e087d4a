package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/siherrmann/usreport/helper"
	"github.com/siherrmann/usreport/model"
	"google.golang.org/genai"
)

// ExtractionSystemPrompt instructs the model to only extract what the text states
const ExtractionSystemPrompt = "You are an expert extraction algorithm. " +
	"Only extract relevant information from the text. " +
	"If you do not know the value of an attribute asked to extract, " +
	"return null for the attribute's value."

// FindingsSchema builds the response schema: one list per organ,
// each element carrying a nullable finding described by the organ table.
func FindingsSchema() *genai.Schema {
	properties := make(map[string]*genai.Schema, len(model.Organs()))
	var keys []string

	for _, organ := range model.Organs() {
		key := organ.FindingKey()
		keys = append(keys, key)
		properties[key] = &genai.Schema{
			Type:        genai.TypeArray,
			Description: fmt.Sprintf("Information about %s findings", organ.DisplayName()),
			Items: &genai.Schema{
				Type:        genai.TypeObject,
				Description: fmt.Sprintf("Information about a %s finding", organ.DisplayName()),
				Properties: map[string]*genai.Schema{
					"finding": {
						Type:        genai.TypeString,
						Description: organ.FindingDescription(),
						Nullable:    genai.Ptr(true),
					},
				},
			},
		}
	}

	return &genai.Schema{
		Type:             genai.TypeObject,
		Description:      "Extracted information from each organ.",
		Properties:       properties,
		Required:         keys,
		PropertyOrdering: keys,
	}
}

// GenAIExtractor creates an extractor that asks a Gemini model for JSON constrained to FindingsSchema
func GenAIExtractor(client *genai.Client, modelName string) (ExtractFunc, error) {
	if client == nil {
		return nil, fmt.Errorf("genai client is nil")
	}
	if modelName == "" {
		return nil, fmt.Errorf("extraction model name is required")
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(ExtractionSystemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    FindingsSchema(),
		Temperature:       genai.Ptr[float32](0),
	}

	return func(ctx context.Context, text string) (*model.FindingsSet, error) {
		resp, err := client.Models.GenerateContent(ctx, modelName, genai.Text(text), config)
		if err != nil {
			return nil, helper.NewKindError(model.ErrExtraction, "generate content", err)
		}

		return ParseFindings(resp.Text())
	}, nil
}

// ParseFindings decodes a model response into a FindingsSet.
// Empty or schema-incompatible output is an extraction error, never an empty result.
func ParseFindings(raw string) (*model.FindingsSet, error) {
	raw = stripCodeFence(raw)
	if raw == "" {
		return nil, helper.NewKindError(model.ErrExtraction, "parse findings", fmt.Errorf("empty model response"))
	}

	findings := &model.FindingsSet{}
	if err := json.Unmarshal([]byte(raw), findings); err != nil {
		return nil, helper.NewKindError(model.ErrExtraction, "parse findings", err)
	}

	return findings, nil
}

// stripCodeFence removes a ```json fence some models wrap JSON output in
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```")
	if i := strings.Index(raw, "\n"); i >= 0 {
		raw = raw[i+1:]
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}
