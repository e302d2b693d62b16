package annotations

import (
	"errors"
	"strings"
	"testing"
)

func TestNewDocumentIDAcceptsConformingTokens(t *testing.T) {
	for _, raw := range []string{"a", "note1", "abc123xyz", strings.Repeat("a", 32)} {
		if _, err := NewDocumentID(raw); err != nil {
			t.Fatalf("expected %q to be accepted: %v", raw, err)
		}
	}
}

func TestNewDocumentIDRejectsNonConformingTokens(t *testing.T) {
	rejected := []string{
		"",
		"UPPER",
		"with-dash",
		"with space",
		"../../etc/passwd",
		strings.Repeat("a", 33),
	}
	for _, raw := range rejected {
		_, err := NewDocumentID(raw)
		if err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
		if !errors.Is(err, ErrInvalidDocumentID) {
			t.Fatalf("expected ErrInvalidDocumentID for %q, got %v", raw, err)
		}
	}
}

func TestParseKindCoversClosedSet(t *testing.T) {
	for _, raw := range []string{"comment", "suggestion", "deletion"} {
		kind, err := ParseKind(raw)
		if err != nil {
			t.Fatalf("expected %q to parse: %v", raw, err)
		}
		if string(kind) != raw {
			t.Fatalf("unexpected kind: %q", kind)
		}
	}

	if _, err := ParseKind("highlight"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestKindRequiresBody(t *testing.T) {
	if !KindComment.RequiresBody() {
		t.Fatal("comments require a body")
	}
	if !KindSuggestion.RequiresBody() {
		t.Fatal("suggestions require a body")
	}
	if KindDeletion.RequiresBody() {
		t.Fatal("deletion marks carry a body only optionally")
	}
}

func TestAnnotationAnchorExposesAnchoringFields(t *testing.T) {
	offset := 4
	annotation := Annotation{
		Quote:       "quick",
		Prefix:      "The ",
		Suffix:      " brown fox",
		QuoteOffset: &offset,
	}

	a := annotation.Anchor()
	if a.Quote != "quick" || a.Prefix != "The " || a.Suffix != " brown fox" {
		t.Fatalf("unexpected anchor: %+v", a)
	}
	if a.QuoteOffset == nil || *a.QuoteOffset != 4 {
		t.Fatalf("unexpected anchor offset: %v", a.QuoteOffset)
	}
}
