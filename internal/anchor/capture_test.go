package anchor

import (
	"testing"
	"unicode/utf8"
)

func TestCaptureRecordsQuoteContextAndOffset(t *testing.T) {
	documentText := "The quick brown fox"

	captured, ok := Capture("quick", documentText)
	if !ok {
		t.Fatal("expected capture to succeed")
	}
	if captured.Quote != "quick" {
		t.Fatalf("unexpected quote: %q", captured.Quote)
	}
	if captured.Prefix != "The " {
		t.Fatalf("unexpected prefix: %q", captured.Prefix)
	}
	if captured.Suffix != " brown fox" {
		t.Fatalf("unexpected suffix: %q", captured.Suffix)
	}
	if captured.QuoteOffset == nil || *captured.QuoteOffset != 4 {
		t.Fatalf("unexpected quote offset: %v", captured.QuoteOffset)
	}
}

func TestCaptureLimitsContextToThirtyCharacters(t *testing.T) {
	long := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" // 40 chars
	documentText := long + "QUOTE" + long

	captured, ok := Capture("QUOTE", documentText)
	if !ok {
		t.Fatal("expected capture to succeed")
	}
	if len(captured.Prefix) != ContextChars {
		t.Fatalf("expected %d prefix characters, got %d", ContextChars, len(captured.Prefix))
	}
	if len(captured.Suffix) != ContextChars {
		t.Fatalf("expected %d suffix characters, got %d", ContextChars, len(captured.Suffix))
	}
}

func TestCaptureRejectsCollapsedSelection(t *testing.T) {
	if _, ok := Capture("", "some document text"); ok {
		t.Fatal("expected empty selection to be rejected")
	}
	if _, ok := Capture("   \n", "some document text"); ok {
		t.Fatal("expected whitespace selection to be rejected")
	}
}

func TestCaptureRejectsUnlocatableSelection(t *testing.T) {
	if _, ok := Capture("missing", "some document text"); ok {
		t.Fatal("expected selection outside the container to be rejected")
	}
}

func TestCaptureNeverSplitsRunesInContext(t *testing.T) {
	// Three-byte runes around the quote land the 30-byte context boundary
	// inside a rune unless it gets clamped.
	before := "€€€€€€€€€€ab" // 32 bytes
	after := "ab€€€€€€€€€€"
	documentText := before + "quote" + after

	captured, ok := Capture("quote", documentText)
	if !ok {
		t.Fatal("expected capture to succeed")
	}
	if !utf8.ValidString(captured.Prefix) {
		t.Fatalf("prefix splits a rune: %q", captured.Prefix)
	}
	if !utf8.ValidString(captured.Suffix) {
		t.Fatalf("suffix splits a rune: %q", captured.Suffix)
	}
}
