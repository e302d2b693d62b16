package anchor

import "strings"

// Position identifies a location inside one text run: the run's index in
// document order and a byte offset within that run.
type Position struct {
	Run    int
	Offset int
}

// RunIndex translates offsets in a flattened-text view of a document back
// into run-relative positions. Any document model able to enumerate its
// text-bearing leaves in order satisfies this contract; the index itself does
// not depend on a structural representation.
type RunIndex struct {
	runs       []string
	cumulative []int
	total      int
}

// NewRunIndex builds a cumulative-length index over the document's text runs
// in document order.
func NewRunIndex(runs []string) *RunIndex {
	cumulative := make([]int, len(runs))
	total := 0
	for i, run := range runs {
		cumulative[i] = total
		total += len(run)
	}
	return &RunIndex{runs: runs, cumulative: cumulative, total: total}
}

// Text returns the flattened document text the index was built over.
func (x *RunIndex) Text() string {
	var builder strings.Builder
	builder.Grow(x.total)
	for _, run := range x.runs {
		builder.WriteString(run)
	}
	return builder.String()
}

// Len returns the total flattened length in bytes.
func (x *RunIndex) Len() int {
	return x.total
}

// Locate translates a flattened-text range into run-relative start and end
// positions. The start position is inside the first run whose span extends
// past r.Start; the end position is inside the first run whose span reaches
// r.End, so the end offset may equal that run's length. It returns false when
// either bound falls outside the indexed text.
func (x *RunIndex) Locate(r Range) (start Position, end Position, ok bool) {
	if r.Start < 0 || r.End < r.Start || r.End > x.total {
		return Position{}, Position{}, false
	}

	foundStart := false
	for i, run := range x.runs {
		runStart := x.cumulative[i]
		runEnd := runStart + len(run)
		if !foundStart && runEnd > r.Start {
			start = Position{Run: i, Offset: r.Start - runStart}
			foundStart = true
		}
		if runEnd >= r.End {
			if !foundStart {
				return Position{}, Position{}, false
			}
			end = Position{Run: i, Offset: r.End - runStart}
			return start, end, true
		}
	}

	return Position{}, Position{}, false
}
