package overlay

import (
	"strings"

	"github.com/MatthewHallCom/note-sx-server/internal/anchor"
	"github.com/MatthewHallCom/note-sx-server/internal/doc"
)

// wrapRange wraps the located span in the marker element. When the span lies
// within a single text leaf the leaf is split in place and the quoted piece
// wrapped where it stands. A span crossing a structural boundary cannot be
// wrapped atomically; the fallback relocates the covered text into the marker
// and inserts the marker at the point where the range began, matching the
// extract-and-reinsert behavior of range wrapping in a live document. A leaf
// with no parent cannot host a wrapper at all (the root itself is a text
// leaf); that reports failure so the annotation is treated as unrenderable.
func wrapRange(leaves []*doc.Node, start, end anchor.Position, marker *doc.Node) bool {
	if start.Run >= len(leaves) || end.Run >= len(leaves) {
		return false
	}

	if start.Run == end.Run {
		return wrapWithinLeaf(leaves[start.Run], start.Offset, end.Offset, marker)
	}

	return relocateAcrossLeaves(leaves, start, end, marker)
}

func wrapWithinLeaf(leaf *doc.Node, startOffset, endOffset int, marker *doc.Node) bool {
	parent := leaf.Parent()
	if parent == nil {
		return false
	}

	before := leaf.Text[:startOffset]
	quoted := leaf.Text[startOffset:endOffset]
	after := leaf.Text[endOffset:]

	marker.Append(doc.NewText(quoted))

	pieces := make([]*doc.Node, 0, 3)
	if before != "" {
		pieces = append(pieces, doc.NewText(before))
	}
	pieces = append(pieces, marker)
	if after != "" {
		pieces = append(pieces, doc.NewText(after))
	}
	parent.Replace(leaf, pieces...)
	return true
}

func relocateAcrossLeaves(leaves []*doc.Node, start, end anchor.Position, marker *doc.Node) bool {
	startLeaf := leaves[start.Run]
	parent := startLeaf.Parent()
	if parent == nil {
		return false
	}

	var covered strings.Builder
	covered.WriteString(startLeaf.Text[start.Offset:])
	for i := start.Run + 1; i < end.Run; i++ {
		covered.WriteString(leaves[i].Text)
		leaves[i].Detach()
	}
	endLeaf := leaves[end.Run]
	covered.WriteString(endLeaf.Text[:end.Offset])

	// Trim the partially covered boundary leaves down to their kept text.
	remainder := endLeaf.Text[end.Offset:]
	if remainder == "" {
		endLeaf.Detach()
	} else {
		endLeaf.Text = remainder
	}

	marker.Append(doc.NewText(covered.String()))

	before := startLeaf.Text[:start.Offset]
	if before == "" {
		parent.Replace(startLeaf, marker)
	} else {
		startLeaf.Text = before
		parent.InsertAfter(startLeaf, marker)
	}
	return true
}
