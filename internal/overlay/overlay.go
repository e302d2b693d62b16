// Package overlay applies and removes annotation markers over a document
// tree. A marker is an inline wrapper around the resolved range carrying the
// annotation id and kind; suggestions additionally get a replacement marker
// holding the proposed text immediately after the original span.
package overlay

import (
	"strconv"

	"github.com/MatthewHallCom/note-sx-server/internal/anchor"
	"github.com/MatthewHallCom/note-sx-server/internal/annotations"
	"github.com/MatthewHallCom/note-sx-server/internal/doc"
)

// AnnotationIDAttr carries the owning annotation's id on every marker node.
const AnnotationIDAttr = "data-annotation-id"

const (
	classMarker                = "annotation"
	classComment               = "annotation-comment"
	classDeletion              = "annotation-deletion"
	classSuggestionOriginal    = "annotation-suggestion-original"
	classSuggestionReplacement = "annotation-suggestion-replacement"
	classHighlightActive       = "annotation-highlight-active"
)

// Apply wraps the resolved range in a marker for the annotation and, for
// suggestions, inserts the replacement marker after the original span. The
// original text is never destroyed; a suggestion demotes it by style only.
// It returns false when the range cannot be located in the tree or the tree
// cannot host a marker around it.
func Apply(root *doc.Node, resolved anchor.Range, a annotations.Annotation) bool {
	leaves := root.TextLeaves()
	runs := make([]string, len(leaves))
	for i, leaf := range leaves {
		runs[i] = leaf.Text
	}
	start, end, ok := anchor.NewRunIndex(runs).Locate(resolved)
	if !ok {
		return false
	}

	marker := newMarker(a.ID, kindClass(a.Kind))
	if !wrapRange(leaves, start, end, marker) {
		return false
	}

	if a.Kind == annotations.KindSuggestion {
		replacement := newMarker(a.ID, classSuggestionReplacement)
		if a.Body != nil {
			replacement.Append(doc.NewText(*a.Body))
		}
		marker.Parent().InsertAfter(marker, replacement)
	}
	return true
}

// Remove deletes every manifestation of the annotation id from the tree:
// range markers are unwrapped so their children rejoin the surrounding text,
// while suggestion replacement markers are removed outright.
func Remove(root *doc.Node, annotationID int64) {
	for _, marker := range MarkersFor(root, annotationID) {
		if hasClass(marker, classSuggestionReplacement) {
			marker.Detach()
			continue
		}
		marker.Unwrap()
	}
}

// MarkersFor returns every marker node carrying the annotation id, in
// document order. A suggestion contributes two.
func MarkersFor(root *doc.Node, annotationID int64) []*doc.Node {
	id := strconv.FormatInt(annotationID, 10)
	return root.FindAll(func(node *doc.Node) bool {
		return node.Kind != doc.Text && node.Attr(AnnotationIDAttr) == id
	})
}

// SetHighlighted toggles the highlighted visual state on every marker sharing
// the annotation id, mirroring hover on the companion card.
func SetHighlighted(root *doc.Node, annotationID int64, highlighted bool) {
	for _, marker := range MarkersFor(root, annotationID) {
		if highlighted {
			addClass(marker, classHighlightActive)
		} else {
			removeClass(marker, classHighlightActive)
		}
	}
}

// Highlighted reports whether any marker for the annotation id currently has
// the highlighted state.
func Highlighted(root *doc.Node, annotationID int64) bool {
	for _, marker := range MarkersFor(root, annotationID) {
		if hasClass(marker, classHighlightActive) {
			return true
		}
	}
	return false
}

func newMarker(annotationID int64, kindClassName string) *doc.Node {
	marker := doc.NewInline("span")
	marker.SetAttr("class", classMarker+" "+kindClassName)
	marker.SetAttr(AnnotationIDAttr, strconv.FormatInt(annotationID, 10))
	return marker
}

func kindClass(kind annotations.Kind) string {
	switch kind {
	case annotations.KindDeletion:
		return classDeletion
	case annotations.KindSuggestion:
		return classSuggestionOriginal
	default:
		return classComment
	}
}
