package versioning

import (
	"strings"
	"testing"
)

func TestCompareTextEscapesMarkup(t *testing.T) {
	out := CompareText("<b>old</b>", "<b>new</b>")

	if strings.Contains(out, "<b>") || strings.Contains(out, "</b>") {
		t.Fatalf("raw input markup leaked into diff output: %s", out)
	}
	if !strings.Contains(out, "&lt;b&gt;") {
		t.Fatalf("expected escaped markup in output, got: %s", out)
	}
	if !strings.Contains(out, "<span style=") {
		t.Fatalf("expected span wrapping, got: %s", out)
	}
}

func TestCompareTextMarksInsertionsAndDeletions(t *testing.T) {
	out := CompareText("the quick brown fox", "the slow brown fox")

	if !strings.Contains(out, "line-through") {
		t.Fatalf("expected deletion styling for removed word, got: %s", out)
	}
	if !strings.Contains(out, "font-weight: bold") {
		t.Fatalf("expected insertion styling for added word, got: %s", out)
	}
	if !strings.Contains(out, "quick") || !strings.Contains(out, "slow") {
		t.Fatalf("expected both old and new words in output, got: %s", out)
	}
}

func TestCompareTextIdenticalInputs(t *testing.T) {
	out := CompareText("same text", "same text")
	if strings.Contains(out, "line-through") || strings.Contains(out, "bold\"") {
		t.Fatalf("identical inputs must not produce change styling: %s", out)
	}
}

func TestCompareTextEmptyInputs(t *testing.T) {
	if out := CompareText("", ""); out != "" {
		t.Fatalf("expected empty diff for empty inputs, got %q", out)
	}
	out := CompareText("", "hello")
	if !strings.Contains(out, "hello") || !strings.Contains(out, "bold") {
		t.Fatalf("expected pure insertion, got: %s", out)
	}
}

func TestTokenizeKeepsWhitespace(t *testing.T) {
	tokens := tokenize("a  b\nc")
	want := []string{"a", "  ", "b", "\n", "c"}
	if len(tokens) != len(want) {
		t.Fatalf("tokenize returned %d tokens, want %d: %v", len(tokens), len(want), tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("token %d = %q, want %q", i, tokens[i], want[i])
		}
	}
}
