package story

import (
	"fmt"
	"strings"
	"time"
)

// Config carries the model tuning shared by both pipeline stages. It is
// fixed at construction and never mutated afterwards.
type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	CallTimeout time.Duration
	CacheTTL    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4o-mini",
		Temperature: 0.5,
		MaxTokens:   400,
		CallTimeout: 60 * time.Second,
		CacheTTL:    time.Hour,
	}
}

// Genre is the audience the story is written for.
type Genre string

const (
	GenreAdventure Genre = "adventure"
	GenreFantasy   Genre = "fantasy"
	GenreMystery   Genre = "mystery"
	GenreDrama     Genre = "drama"
	GenreHorror    Genre = "horror"
	GenreAction    Genre = "action"
)

var Genres = []Genre{
	GenreAdventure,
	GenreFantasy,
	GenreMystery,
	GenreDrama,
	GenreHorror,
	GenreAction,
}

func (g Genre) Valid() bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

// ParseGenre normalizes and validates a user-supplied genre string.
func ParseGenre(s string) (Genre, error) {
	g := Genre(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", fmt.Errorf("unknown genre %q", s)
	}
	return g, nil
}

// Story length bounds, in words. The length is a soft target passed to the
// model, not enforced on the output.
const (
	MinStoryWords = 100
	MaxStoryWords = 500
)
