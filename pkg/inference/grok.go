package inference

import (
	"cmp"
	"context"
	"errors"
	"fmt"

	grok "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/v3"
)

// GrokInferencer implements Inferencer against xAI's OpenAI-compatible API.
// Grok models are vision-capable, so both pipeline stages can run on it.
type GrokInferencer struct {
	client *grok.Client
	apiKey string
	model  string
}

// NewGrokInferencer creates a new inferencer instance using OpenAI client.
func NewGrokInferencer(apiKey string, model string) *GrokInferencer {
	if model == "" {
		model = "grok-4-fast-reasoning"
	}
	client := grok.NewClient(
		option.WithBaseURL("https://api.x.ai/v1"),
		option.WithAPIKey(apiKey),
	)
	return &GrokInferencer{
		client: &client,
		apiKey: apiKey,
		model:  model,
	}
}

func (o *GrokInferencer) ChangeBaseURL(baseURL string) {
	client := grok.NewClient(
		option.WithAPIKey(o.apiKey),
		option.WithBaseURL(baseURL),
	)
	o.client = &client
}

func (o *GrokInferencer) SetModel(model string) {
	o.model = model
}

// Infer sends text to the chat completion endpoint and returns the output.
func (o *GrokInferencer) Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error) {
	req := o.baseRequest(params)
	req.Messages = []grok.ChatCompletionMessageParamUnion{
		{
			OfSystem: &grok.ChatCompletionSystemMessageParam{
				Role: "system",
				Content: grok.ChatCompletionSystemMessageParamContentUnion{
					OfString: param.Opt[string]{Value: system},
				},
			}},
		{
			OfUser: &grok.ChatCompletionUserMessageParam{
				Role: "user",
				Content: grok.ChatCompletionUserMessageParamContentUnion{
					OfString: param.Opt[string]{Value: user},
				},
			},
		},
	}

	return o.complete(ctx, req)
}

// Vision sends the prompt together with the image as a base64 data URI.
func (o *GrokInferencer) Vision(ctx context.Context, params *openai.ChatCompletionNewParams, prompt string, image []byte) (string, error) {
	req := o.baseRequest(params)
	req.Messages = []grok.ChatCompletionMessageParamUnion{
		{
			OfUser: &grok.ChatCompletionUserMessageParam{
				Role: "user",
				Content: grok.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: []grok.ChatCompletionContentPartUnionParam{
						{
							OfText: &grok.ChatCompletionContentPartTextParam{Text: prompt},
						},
						{
							OfImageURL: &grok.ChatCompletionContentPartImageParam{
								ImageURL: grok.ChatCompletionContentPartImageImageURLParam{
									URL: DataURI(image),
								},
							},
						},
					},
				},
			},
		},
	}

	return o.complete(ctx, req)
}

// baseRequest carries the shared tuning knobs over from the v3 params the
// rest of the pipeline speaks, since this provider runs on the v1 client.
func (o *GrokInferencer) baseRequest(params *openai.ChatCompletionNewParams) grok.ChatCompletionNewParams {
	req := grok.ChatCompletionNewParams{
		Model:               o.model,
		MaxCompletionTokens: grok.Int(400),
		Temperature:         grok.Float(0.5),
		TopP:                grok.Float(1.0),
	}
	if params == nil {
		return req
	}
	req.Model = cmp.Or(params.Model, o.model)
	req.MaxCompletionTokens = grok.Int(cmp.Or(params.MaxCompletionTokens.Value, 400))
	req.Temperature = grok.Float(cmp.Or(params.Temperature.Value, 0.5))
	req.TopP = grok.Float(cmp.Or(params.TopP.Value, 1.0))
	return req
}

func (o *GrokInferencer) complete(ctx context.Context, req grok.ChatCompletionNewParams) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return "", fmt.Errorf("grok inference error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices returned")
	}
	if resp.Choices[0].Message.Content == "" {
		return "", errors.New("empty completion content")
	}

	return resp.Choices[0].Message.Content, nil
}
