package anchor

import "strings"

// Resolve locates the anchored span inside the current flattened document
// text. Strategies are tried in priority order:
//
//  1. Context match on prefix+quote+suffix. Robust to the document growing or
//     shrinking elsewhere, since the surrounding context pins the match.
//  2. Hinted search for the quote alone, starting shortly before the recorded
//     offset, for documents edited near the anchor.
//  3. Unhinted search for the quote from the start of the document.
//
// Every stage takes the first occurrence; a document containing the exact
// same context twice resolves to the earlier one. When the quote cannot be
// found at all the anchor is unresolvable and the second return is false; the
// caller should treat the annotation as orphaned rather than failing.
func Resolve(a Anchor, documentText string) (Range, bool) {
	if a.Quote == "" {
		return Range{}, false
	}

	contextual := a.Prefix + a.Quote + a.Suffix
	if matchIndex := strings.Index(documentText, contextual); matchIndex != -1 {
		start := matchIndex + len(a.Prefix)
		return Range{Start: start, End: start + len(a.Quote)}, true
	}

	if a.QuoteOffset != nil {
		searchFrom := *a.QuoteOffset - hintWindow
		if searchFrom < 0 {
			searchFrom = 0
		}
		if searchFrom < len(documentText) {
			if matchIndex := strings.Index(documentText[searchFrom:], a.Quote); matchIndex != -1 {
				start := searchFrom + matchIndex
				return Range{Start: start, End: start + len(a.Quote)}, true
			}
		}
	}

	if matchIndex := strings.Index(documentText, a.Quote); matchIndex != -1 {
		return Range{Start: matchIndex, End: matchIndex + len(a.Quote)}, true
	}

	return Range{}, false
}
