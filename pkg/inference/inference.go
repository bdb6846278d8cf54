package inference

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
)

// Inferencer abstracts the completion backend shared by both pipeline stages.
type Inferencer interface {
	// Infer runs a text-only chat completion and returns the output text.
	Infer(ctx context.Context, params *openai.ChatCompletionNewParams, system, user string) (string, error)

	// Vision runs a multimodal completion: the prompt plus the raw image
	// bytes, encoded however the provider expects. Returns the output text.
	Vision(ctx context.Context, params *openai.ChatCompletionNewParams, prompt string, image []byte) (string, error)
}

// DataURI encodes raw image bytes as a base64 data URI for providers that
// take images by URL. The MIME type is sniffed from the payload; anything
// unrecognized is sent as image/jpeg and left for the backend to reject.
func DataURI(image []byte) string {
	mime := sniffImageMIME(image)
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func sniffImageMIME(image []byte) string {
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		return "image/jpeg"
	}
	return mime
}
