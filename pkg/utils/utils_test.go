package utils

import (
	"slices"
	"testing"
)

func TestCleanJSON(t *testing.T) {
	raw := "```json\n{\"people\":[]}\n```"
	if got := CleanJSON(raw); got != `{"people":[]}` {
		t.Fatalf("CleanJSON() = %q", got)
	}

	plain := ` {"a":1} `
	if got := CleanJSON(plain); got != `{"a":1}` {
		t.Fatalf("CleanJSON() = %q", got)
	}
}

func TestNonBlank(t *testing.T) {
	got := NonBlank([]string{" a ", "", "  ", "b"})
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("NonBlank() = %q", got)
	}
	if NonBlank([]string{"", "  "}) != nil {
		t.Fatal("NonBlank of blanks should be nil")
	}
}

func TestLimitStr(t *testing.T) {
	if got := LimitStr("abcdef", 3); got != "abc..." {
		t.Fatalf("LimitStr() = %q", got)
	}
	if got := LimitStr("ab", 3); got != "ab" {
		t.Fatalf("LimitStr() = %q", got)
	}
}
