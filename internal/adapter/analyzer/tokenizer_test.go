package analyzer

import (
	"testing"
)

func TestTokenizer_Tokenize(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("Running dogs are playing")
	want := []string{"running", "dogs", "playing"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %v, got %v", want, tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], tokens[i])
		}
	}
}

func TestTokenizer_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer()

	for _, text := range []string{"the quick brown fox", "o cavalo da fazenda"} {
		for _, token := range tok.Tokenize(text) {
			if token == "the" || token == "da" {
				t.Errorf("stopword should be removed from %q, got %q", text, token)
			}
		}
	}
}

func TestTokenizer_ShortWordRemoval(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("a I go é")
	for _, token := range tokens {
		if len([]rune(token)) < 2 {
			t.Errorf("short word should be removed: %s", token)
		}
	}
}

func TestTokenizer_Accents(t *testing.T) {
	tok := NewTokenizer()

	tokens := tok.Tokenize("Ação rápida")
	if len(tokens) != 2 || tokens[0] != "ação" || tokens[1] != "rápida" {
		t.Errorf("expected accented words kept intact, got %v", tokens)
	}
}

func TestTokenizer_CountTokens(t *testing.T) {
	tok := NewTokenizer()

	count := tok.CountTokens("hello world this is a test")
	if count < 6 {
		t.Errorf("expected count >= 6 words, got %d", count)
	}
	if tok.CountTokens("") != 0 {
		t.Error("expected 0 count for empty input")
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"hello world", 2},
		{"hello_world", 1},
		{"hello-world", 2},
		{"func(x, y)", 3},
		{"123numbers456", 1},
		{"   ", 0},
	}

	for _, tt := range tests {
		words := splitWords(tt.input)
		if len(words) != tt.expected {
			t.Errorf("splitWords(%q) = %d words, want %d: %v", tt.input, len(words), tt.expected, words)
		}
	}
}
