package story

import (
	"context"
	"slices"
	"strings"
	"testing"
)

// Full pipeline against a deterministic mock backend: image in, story out.
func TestPipelineEndToEnd(t *testing.T) {
	mock := &mockInferencer{
		visionFn: func(string, []byte) (string, error) {
			return "A tall man in a red jacket\nA woman with short black hair", nil
		},
		inferFn: func(string, string) (string, error) {
			return "Alex crept through the fog...", nil
		},
	}
	cfg := testConfig()
	describer := NewDescriber(mock, cfg)
	composer := NewComposer(mock, cfg)
	ctx := context.Background()

	image := []byte("uploaded photo bytes")
	descriptions := describer.Describe(ctx, image)
	want := []string{"A tall man in a red jacket", "A woman with short black hair"}
	if !slices.Equal(descriptions, want) {
		t.Fatalf("Describe() = %q, want %q", descriptions, want)
	}

	out := composer.Compose(ctx, descriptions, []string{"Alex", "Jamie"}, GenreMystery, 150)
	if out != "Alex crept through the fog..." {
		t.Fatalf("Compose() = %q", out)
	}

	for _, needle := range []string{"Alex", "Jamie", "mystery", "150", want[0], want[1]} {
		if !strings.Contains(mock.lastUser, needle) {
			t.Errorf("story prompt missing %q:\n%s", needle, mock.lastUser)
		}
	}

	// Describing the same bytes again must be a pure cache read.
	again := describer.Describe(ctx, image)
	if !slices.Equal(again, want) {
		t.Fatalf("second Describe() = %q, want %q", again, want)
	}
	if calls := mock.visionCalls.Load(); calls != 1 {
		t.Fatalf("vision backend hit %d times, want 1", calls)
	}
}
