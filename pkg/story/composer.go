package story

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"

	"fabula/pkg/inference"
	"fabula/pkg/utils"
)

// FailureSentinel is returned by Compose instead of a story when anything
// goes wrong. Callers must check for it before presenting output as a
// successful story.
const FailureSentinel = "Error generating story."

// Composer is the text stage: it interpolates the vision-stage descriptions
// and the user-supplied names into a story prompt and runs one completion.
type Composer struct {
	inf inference.Inferencer
	cfg Config
}

func NewComposer(inf inference.Inferencer, cfg Config) *Composer {
	return &Composer{inf: inf, cfg: cfg}
}

// Compose returns the generated story, or FailureSentinel on any transport,
// parse, or validation failure. It never returns an error.
//
// Name and description counts are not reconciled here: the prompt carries
// whatever the caller paired up, an empty description list included.
func (c *Composer) Compose(ctx context.Context, descriptions, names []string, genre Genre, length int) string {
	log.Info("generating story", "names", len(names), "descriptions", len(descriptions), "genre", genre, "words", length)

	if !genre.Valid() {
		log.Error("story compose rejected", "error", "unknown genre", "genre", genre)
		return FailureSentinel
	}
	if length <= 0 {
		log.Error("story compose rejected", "error", "non-positive length", "length", length)
		return FailureSentinel
	}

	prompt := buildStoryPrompt(descriptions, names, genre, length)
	if tokens, err := utils.NumTokensFromMessages(composerSystemPrompt + prompt); err == nil {
		log.Debug("story prompt built", "chars", len(prompt), "tokens", tokens, "head", utils.LimitStr(prompt, 120))
	}

	if c.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
		defer cancel()
	}

	params := &openai.ChatCompletionNewParams{
		Model:               c.cfg.Model,
		MaxCompletionTokens: openai.Int(c.cfg.MaxTokens),
		Temperature:         openai.Float(c.cfg.Temperature),
	}

	out, err := c.inf.Infer(ctx, params, composerSystemPrompt, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error("story compose timed out", "timeout", c.cfg.CallTimeout)
		} else {
			log.Error("story compose failed", "error", err)
		}
		return FailureSentinel
	}

	out = strings.TrimSpace(out)
	if out == "" {
		log.Error("story compose returned empty content")
		return FailureSentinel
	}

	log.Info("story generated", "chars", len(out))
	return out
}
