// Package layout computes vertical positions for annotation cards so each
// card sits as close as possible to its inline marker without overlapping its
// neighbors, plus the horizontal offset of the card layer itself.
package layout

import "sort"

const (
	// DefaultMinGap is the vertical spacing kept between stacked cards.
	DefaultMinGap = 6
	// LayerGutter separates the card layer from the document content's
	// right edge.
	LayerGutter = 16

	fallbackSpacing = 80
	fallbackBase    = 100
)

// Card is one card's layout input: the annotation it belongs to, the top
// position it would ideally occupy (its marker's vertical offset relative to
// the scrolling ancestor) and its rendered height.
type Card struct {
	AnnotationID int64
	Desired      float64
	Height       float64
}

// Placement is the computed position for one card.
type Placement struct {
	AnnotationID int64
	Top          float64
}

// Place computes non-overlapping tops for the cards. Cards are sorted by
// desired position and swept once: each card lands at its desired top unless
// the previous card's bottom plus minGap pushes it further down. The result
// is ordered by final position, which is monotonically increasing. A minGap
// of zero or less falls back to DefaultMinGap.
func Place(cards []Card, minGap float64) []Placement {
	if minGap <= 0 {
		minGap = DefaultMinGap
	}

	ordered := make([]Card, len(cards))
	copy(ordered, cards)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Desired < ordered[j].Desired
	})

	placements := make([]Placement, 0, len(ordered))
	currentBottom := 0.0
	for _, card := range ordered {
		top := card.Desired
		if currentBottom > top {
			top = currentBottom
		}
		placements = append(placements, Placement{AnnotationID: card.AnnotationID, Top: top})
		currentBottom = top + card.Height + minGap
	}
	return placements
}

// FallbackDesired is the synthetic desired position for the index-th card
// whose marker could not be resolved (orphaned annotations still get a
// deterministic slot).
func FallbackDesired(index int) float64 {
	return float64(index)*fallbackSpacing + fallbackBase
}

// LayerLeft computes the card layer's horizontal offset inside its scrolling
// ancestor from the document content's right edge. It is recomputed on every
// layout pass since the content width can change independently.
func LayerLeft(contentRight, ancestorLeft float64) float64 {
	return contentRight - ancestorLeft + LayerGutter
}
