package service

import (
	"reflect"
	"testing"
)

func TestParseCompletionsStrictJSON(t *testing.T) {
	got := parseCompletions(`["Machine Learning", "Mathematics", "Music Theory"]`)
	want := []string{"Machine Learning", "Mathematics", "Music Theory"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseCompletionsBracketedInsideProse(t *testing.T) {
	raw := "Sure! Here are some ideas:\n[\"Go Programming\", \"Graph Theory\"]\nHope that helps."
	got := parseCompletions(raw)
	want := []string{"Go Programming", "Graph Theory"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseCompletionsDelimiterFallback(t *testing.T) {
	got := parseCompletions(`Biology, Biochemistry, "Biostatistics"`)
	want := []string{"Biology", "Biochemistry", "Biostatistics"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseCompletionsNewlineFallback(t *testing.T) {
	got := parseCompletions("- History\n- Philosophy\n\n- Linguistics")
	want := []string{"History", "Philosophy", "Linguistics"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseCompletionsDedupesAndCaps(t *testing.T) {
	got := parseCompletions(`["Python", "python", "Rust", "Go", "Zig", "Elixir", "Haskell"]`)
	if len(got) != 5 {
		t.Fatalf("expected cap at 5, got %d: %v", len(got), got)
	}
	if got[0] != "Python" || got[1] != "Rust" {
		t.Fatalf("case-insensitive dedupe failed: %v", got)
	}
}

func TestParseCompletionsEmptyInput(t *testing.T) {
	if got := parseCompletions("   "); len(got) != 0 {
		t.Fatalf("expected no completions, got %v", got)
	}
}

func TestAutocompleteCacheKeyNormalizesQuery(t *testing.T) {
	a := autocompleteCacheKey("subject", "  Math ")
	b := autocompleteCacheKey("subject", "math")
	if a != b {
		t.Fatalf("keys should match after normalization: %q vs %q", a, b)
	}
	if a == autocompleteCacheKey("audience", "math") {
		t.Fatal("different fields must not share cache keys")
	}
}
