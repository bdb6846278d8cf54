package story

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"

	"fabula/pkg/flight"
	"fabula/pkg/inference"
	"fabula/pkg/schema"
	"fabula/pkg/utils"
)

type imageKey [sha256.Size]byte

// Describer is the vision stage: it sends an image to the completion
// backend and recovers one appearance description per detected person.
//
// Successful results are cached by content digest for the configured TTL,
// and concurrent calls for the same image share one backend request.
// Failures are never cached.
type Describer struct {
	inf   inference.Inferencer
	cfg   Config
	cache *flight.Cache[imageKey, []string]

	mu       sync.Mutex
	payloads map[imageKey]*describeJob
}

// describeJob stashes the payload for the cache work function, which is
// keyed by digest only. Refcounted so a finishing caller cannot pull the
// bytes out from under a concurrent caller with the same image.
type describeJob struct {
	ctx   context.Context
	image []byte
	refs  int
}

func NewDescriber(inf inference.Inferencer, cfg Config) *Describer {
	d := &Describer{
		inf:      inf,
		cfg:      cfg,
		payloads: make(map[imageKey]*describeJob),
	}
	d.cache = flight.NewCache(d.describe)
	d.cache.Expiry(cfg.CacheTTL)
	return d
}

// Describe returns the ordered per-person descriptions for the image, or
// nil when the vision call fails for any reason. It never returns an error;
// an empty result is the failure signal and the caller must treat it as
// terminal for this image.
func (d *Describer) Describe(ctx context.Context, image []byte) []string {
	key := imageKey(sha256.Sum256(image))
	log.Info("processing image attachment", "bytes", len(image), "digest", shortDigest(key))

	d.mu.Lock()
	job := d.payloads[key]
	if job == nil {
		job = &describeJob{ctx: ctx, image: image}
		d.payloads[key] = job
	}
	job.refs++
	d.mu.Unlock()

	descriptions, err := d.cache.Get(key)

	d.mu.Lock()
	job.refs--
	if job.refs == 0 {
		delete(d.payloads, key)
	}
	d.mu.Unlock()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.Error("vision describe timed out", "digest", shortDigest(key), "timeout", d.cfg.CallTimeout)
		} else {
			log.Error("vision describe failed", "digest", shortDigest(key), "error", err)
		}
		return nil
	}
	return descriptions
}

// describe is the cache work function: one backend attempt, no retries.
func (d *Describer) describe(key imageKey) ([]string, error) {
	d.mu.Lock()
	job := d.payloads[key]
	d.mu.Unlock()
	if job == nil {
		return nil, errors.New("image payload missing for digest")
	}

	ctx := job.ctx
	if d.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.CallTimeout)
		defer cancel()
	}

	params := &openai.ChatCompletionNewParams{
		Model:               d.cfg.Model,
		MaxCompletionTokens: openai.Int(d.cfg.MaxTokens),
		ResponseFormat:      schema.PeopleResponseFormat(),
	}

	raw, err := d.inf.Vision(ctx, params, visionPrompt, job.image)
	if err != nil {
		return nil, err
	}

	descriptions := parseDescriptions(raw)
	if len(descriptions) == 0 {
		return nil, errors.New("no person descriptions in response")
	}

	log.Info("image described", "digest", shortDigest(key), "people", len(descriptions))
	return descriptions, nil
}

// parseDescriptions tries the structured contract first and falls back to
// line splitting when the backend ignored the response format.
func parseDescriptions(raw string) []string {
	cleaned := utils.CleanJSON(raw)

	var people schema.People
	if err := json.Unmarshal([]byte(cleaned), &people); err == nil {
		return utils.NonBlank(people.Descriptions())
	}

	// Compatibility mode: the backend ignored the structured contract and
	// answered in free text, one person per line.
	return utils.NonBlank(strings.Split(raw, "\n"))
}

func shortDigest(key imageKey) string {
	return hex.EncodeToString(key[:])[:12]
}
