package story

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/openai/openai-go/v3"
)

type mockInferencer struct {
	inferFn  func(system, user string) (string, error)
	visionFn func(prompt string, image []byte) (string, error)

	inferCalls  atomic.Int64
	visionCalls atomic.Int64

	lastSystem string
	lastUser   string
}

func (m *mockInferencer) Infer(_ context.Context, _ *openai.ChatCompletionNewParams, system, user string) (string, error) {
	m.inferCalls.Add(1)
	m.lastSystem = system
	m.lastUser = user
	if m.inferFn == nil {
		return "", errors.New("no infer stub")
	}
	return m.inferFn(system, user)
}

func (m *mockInferencer) Vision(_ context.Context, _ *openai.ChatCompletionNewParams, prompt string, image []byte) (string, error) {
	m.visionCalls.Add(1)
	if m.visionFn == nil {
		return "", errors.New("no vision stub")
	}
	return m.visionFn(prompt, image)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CallTimeout = 0
	return cfg
}

func TestDescribeLineSplitting(t *testing.T) {
	mock := &mockInferencer{
		visionFn: func(string, []byte) (string, error) {
			return "A tall man in a red jacket\nA woman with short black hair", nil
		},
	}
	d := NewDescriber(mock, testConfig())

	got := d.Describe(context.Background(), []byte("jpeg-bytes"))
	want := []string{"A tall man in a red jacket", "A woman with short black hair"}
	if !slices.Equal(got, want) {
		t.Fatalf("Describe() = %q, want %q", got, want)
	}
}

func TestDescribeSkipsBlankLines(t *testing.T) {
	mock := &mockInferencer{
		visionFn: func(string, []byte) (string, error) {
			return "\n\nFirst person\n\n  \nSecond person\n", nil
		},
	}
	d := NewDescriber(mock, testConfig())

	got := d.Describe(context.Background(), []byte("img"))
	want := []string{"First person", "Second person"}
	if !slices.Equal(got, want) {
		t.Fatalf("Describe() = %q, want %q", got, want)
	}
}

func TestDescribeStructuredOutput(t *testing.T) {
	for name, response := range map[string]string{
		"raw":    `{"people":[{"description":"A tall man in a red jacket"},{"description":"A woman with short black hair"}]}`,
		"fenced": "```json\n{\"people\":[{\"description\":\"A tall man in a red jacket\"},{\"description\":\"A woman with short black hair\"}]}\n```",
	} {
		t.Run(name, func(t *testing.T) {
			mock := &mockInferencer{
				visionFn: func(string, []byte) (string, error) { return response, nil },
			}
			d := NewDescriber(mock, testConfig())

			got := d.Describe(context.Background(), []byte("img"))
			want := []string{"A tall man in a red jacket", "A woman with short black hair"}
			if !slices.Equal(got, want) {
				t.Fatalf("Describe() = %q, want %q", got, want)
			}
		})
	}
}

func TestDescribeEmptyStructuredPayloadFails(t *testing.T) {
	mock := &mockInferencer{
		visionFn: func(string, []byte) (string, error) { return `{"people":[]}`, nil },
	}
	d := NewDescriber(mock, testConfig())

	if got := d.Describe(context.Background(), []byte("img")); got != nil {
		t.Fatalf("Describe() = %q, want nil", got)
	}
}

func TestDescribeTransportFailure(t *testing.T) {
	mock := &mockInferencer{
		visionFn: func(string, []byte) (string, error) { return "", errors.New("boom") },
	}
	d := NewDescriber(mock, testConfig())

	if got := d.Describe(context.Background(), []byte("img")); got != nil {
		t.Fatalf("Describe() = %q, want nil on transport failure", got)
	}
}

func TestDescribeZeroByteImage(t *testing.T) {
	mock := &mockInferencer{
		visionFn: func(string, []byte) (string, error) { return "", errors.New("unsupported image") },
	}
	d := NewDescriber(mock, testConfig())

	if got := d.Describe(context.Background(), nil); got != nil {
		t.Fatalf("Describe() = %q, want nil for rejected empty payload", got)
	}
}

func TestDescribeCachesByContent(t *testing.T) {
	mock := &mockInferencer{
		visionFn: func(string, []byte) (string, error) { return "One person", nil },
	}
	d := NewDescriber(mock, testConfig())
	ctx := context.Background()

	first := d.Describe(ctx, []byte("same-image"))
	second := d.Describe(ctx, []byte("same-image"))
	if !slices.Equal(first, second) {
		t.Fatalf("identical payloads described differently: %q vs %q", first, second)
	}
	if calls := mock.visionCalls.Load(); calls != 1 {
		t.Fatalf("vision backend hit %d times for identical payloads, want 1", calls)
	}

	d.Describe(ctx, []byte("other-image"))
	if calls := mock.visionCalls.Load(); calls != 2 {
		t.Fatalf("vision backend hit %d times for a new payload, want 2", calls)
	}
}

func TestDescribeDoesNotCacheFailures(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	mock := &mockInferencer{
		visionFn: func(string, []byte) (string, error) {
			if fail.Load() {
				return "", errors.New("temporary outage")
			}
			return "One person", nil
		},
	}
	d := NewDescriber(mock, testConfig())
	ctx := context.Background()

	if got := d.Describe(ctx, []byte("img")); got != nil {
		t.Fatalf("Describe() = %q, want nil during outage", got)
	}

	fail.Store(false)
	got := d.Describe(ctx, []byte("img"))
	if !slices.Equal(got, []string{"One person"}) {
		t.Fatalf("Describe() after recovery = %q, want [One person]", got)
	}
	if calls := mock.visionCalls.Load(); calls != 2 {
		t.Fatalf("vision backend hit %d times, want 2 (failure must not be cached)", calls)
	}
}
