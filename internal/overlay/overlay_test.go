package overlay

import (
	"testing"

	"github.com/MatthewHallCom/note-sx-server/internal/anchor"
	"github.com/MatthewHallCom/note-sx-server/internal/annotations"
	"github.com/MatthewHallCom/note-sx-server/internal/doc"
)

func commentAnnotation(id int64) annotations.Annotation {
	body := "typo?"
	return annotations.Annotation{ID: id, Kind: annotations.KindComment, Body: &body}
}

func resolveIn(t *testing.T, root *doc.Node, quote string) anchor.Range {
	t.Helper()
	resolved, ok := anchor.Resolve(anchor.Anchor{Quote: quote}, root.TextContent())
	if !ok {
		t.Fatalf("failed to resolve %q in test document", quote)
	}
	return resolved
}

func TestApplyWrapsRangeWithinOneLeaf(t *testing.T) {
	root := doc.NewBlock("div", doc.NewBlock("p", doc.NewText("The quick brown fox")))

	if !Apply(root, resolveIn(t, root, "quick"), commentAnnotation(1)) {
		t.Fatal("expected apply to succeed")
	}

	if root.TextContent() != "The quick brown fox" {
		t.Fatalf("wrapping corrupted the text: %q", root.TextContent())
	}
	markers := MarkersFor(root, 1)
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	if markers[0].TextContent() != "quick" {
		t.Fatalf("marker wraps %q", markers[0].TextContent())
	}
}

func TestApplyRelocatesRangeCrossingBlockBoundary(t *testing.T) {
	root := doc.NewBlock("div",
		doc.NewBlock("p", doc.NewText("first paragraph end")),
		doc.NewBlock("p", doc.NewText("second paragraph start")),
	)

	if !Apply(root, resolveIn(t, root, "endsecond"), commentAnnotation(2)) {
		t.Fatal("expected apply to fall back to relocation")
	}

	markers := MarkersFor(root, 2)
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	if markers[0].TextContent() != "endsecond" {
		t.Fatalf("marker wraps %q", markers[0].TextContent())
	}
	// Relocation moves the covered text but never loses any of it.
	if root.TextContent() != "first paragraph endsecond paragraph start" {
		t.Fatalf("relocation lost text: %q", root.TextContent())
	}
}

func TestApplySuggestionInsertsReplacementMarker(t *testing.T) {
	root := doc.NewBlock("div", doc.NewBlock("p", doc.NewText("The quick brown fox")))
	replacement := "hasty"
	suggestion := annotations.Annotation{ID: 3, Kind: annotations.KindSuggestion, Body: &replacement}

	if !Apply(root, resolveIn(t, root, "quick"), suggestion) {
		t.Fatal("expected apply to succeed")
	}

	markers := MarkersFor(root, 3)
	if len(markers) != 2 {
		t.Fatalf("expected original and replacement markers, got %d", len(markers))
	}
	if markers[0].TextContent() != "quick" {
		t.Fatalf("original marker wraps %q", markers[0].TextContent())
	}
	if markers[1].TextContent() != "hasty" {
		t.Fatalf("replacement marker carries %q", markers[1].TextContent())
	}
	// The original text remains; the replacement reads adjacent to it.
	if root.TextContent() != "The quickhasty brown fox" {
		t.Fatalf("unexpected document text: %q", root.TextContent())
	}
}

func TestRemoveUnwrapsMarkersAndPreservesText(t *testing.T) {
	root := doc.NewBlock("div", doc.NewBlock("p", doc.NewText("The quick brown fox")))
	replacement := "hasty"
	suggestion := annotations.Annotation{ID: 4, Kind: annotations.KindSuggestion, Body: &replacement}
	if !Apply(root, resolveIn(t, root, "quick"), suggestion) {
		t.Fatal("expected apply to succeed")
	}

	Remove(root, 4)

	if len(MarkersFor(root, 4)) != 0 {
		t.Fatal("expected all markers removed")
	}
	if root.TextContent() != "The quick brown fox" {
		t.Fatalf("removal corrupted the text: %q", root.TextContent())
	}
	// Resolving the same quote afterwards still works against clean text.
	if _, ok := anchor.Resolve(anchor.Anchor{Quote: "quick"}, root.TextContent()); !ok {
		t.Fatal("expected quote to remain resolvable after removal")
	}
}

func TestSetHighlightedTogglesAllMarkersForID(t *testing.T) {
	root := doc.NewBlock("div", doc.NewBlock("p", doc.NewText("The quick brown fox")))
	replacement := "hasty"
	suggestion := annotations.Annotation{ID: 5, Kind: annotations.KindSuggestion, Body: &replacement}
	if !Apply(root, resolveIn(t, root, "quick"), suggestion) {
		t.Fatal("expected apply to succeed")
	}

	SetHighlighted(root, 5, true)
	if !Highlighted(root, 5) {
		t.Fatal("expected markers to be highlighted")
	}
	for _, marker := range MarkersFor(root, 5) {
		if !hasClass(marker, classHighlightActive) {
			t.Fatal("expected every marker for the id to carry the highlight state")
		}
	}

	SetHighlighted(root, 5, false)
	if Highlighted(root, 5) {
		t.Fatal("expected highlight to be cleared")
	}
}

func TestApplyKindsUseDistinctMarkerClasses(t *testing.T) {
	root := doc.NewBlock("div", doc.NewBlock("p", doc.NewText("alpha beta gamma")))

	deletion := annotations.Annotation{ID: 6, Kind: annotations.KindDeletion}
	if !Apply(root, resolveIn(t, root, "beta"), deletion) {
		t.Fatal("expected apply to succeed")
	}

	markers := MarkersFor(root, 6)
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	if !hasClass(markers[0], classDeletion) {
		t.Fatalf("unexpected marker class: %q", markers[0].Attr("class"))
	}
}

func TestApplyFailsWhenRootIsBareTextLeaf(t *testing.T) {
	root := doc.NewText("The quick brown fox")
	resolved := resolveIn(t, root, "quick")

	if Apply(root, resolved, commentAnnotation(7)) {
		t.Fatal("expected apply to fail when the leaf has no parent to host a marker")
	}
	if len(MarkersFor(root, 7)) != 0 {
		t.Fatal("expected no markers after a failed apply")
	}

	replacement := "hasty"
	suggestion := annotations.Annotation{ID: 8, Kind: annotations.KindSuggestion, Body: &replacement}
	if Apply(root, resolved, suggestion) {
		t.Fatal("expected suggestion apply to fail when the leaf has no parent")
	}
	if root.TextContent() != "The quick brown fox" {
		t.Fatalf("failed apply mutated the text: %q", root.TextContent())
	}
}
