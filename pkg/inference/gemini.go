package inference

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

// GeminiInferencer implements Inferencer using Google's genai SDK.
type GeminiInferencer struct {
	client *genai.Client
	apiKey string
	model  string
}

// NewGeminiInferencer creates a new inferencer instance using the genai client.
func NewGeminiInferencer(apiKey string, model string) (*GeminiInferencer, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &GeminiInferencer{
		client: client,
		apiKey: apiKey,
		model:  model,
	}, nil
}

func (o *GeminiInferencer) ChangeConfig(config *genai.ClientConfig) {
	client, err := genai.NewClient(context.Background(), config)
	if err != nil {
		return
	}
	o.client = client
}

// Infer sends text to the Gemini generate-content endpoint and returns the output.
func (o *GeminiInferencer) Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	if params == nil {
		params = new(openai.ChatCompletionNewParams)
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleModel),
		MaxOutputTokens:   int32(cmp.Or(params.MaxCompletionTokens.Value, 400)),
	}
	if params.Temperature.Valid() {
		config.Temperature = genai.Ptr(float32(params.Temperature.Value))
	}

	result, err := o.client.Models.GenerateContent(
		ctx,
		cmp.Or(params.Model, o.model),
		genai.Text(user),
		config,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if result.Text() == "" {
		return "", errors.New("empty completion content")
	}

	return result.Text(), nil
}

// Vision sends the prompt together with the image as an inline-data part.
func (o *GeminiInferencer) Vision(ctx context.Context, params *openai.ChatCompletionNewParams, prompt string, image []byte) (string, error) {
	if params == nil {
		params = new(openai.ChatCompletionNewParams)
	}
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(cmp.Or(params.MaxCompletionTokens.Value, 400)),
	}
	if params.Temperature.Valid() {
		config.Temperature = genai.Ptr(float32(params.Temperature.Value))
	}

	content := genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(image, sniffImageMIME(image)),
	}, genai.RoleUser)

	result, err := o.client.Models.GenerateContent(
		ctx,
		cmp.Or(params.Model, o.model),
		[]*genai.Content{content},
		config,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if result.Text() == "" {
		return "", errors.New("empty completion content")
	}

	return result.Text(), nil
}
