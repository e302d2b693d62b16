package anchor

import (
	"strings"
	"unicode/utf8"
)

// Capture serializes the viewer's current selection into an Anchor. It
// returns false when the selection is empty, collapsed to whitespace, or its
// text cannot be located verbatim inside the flattened document text (for
// example when the selection spans outside the tracked container).
func Capture(selected string, documentText string) (Anchor, bool) {
	if strings.TrimSpace(selected) == "" {
		return Anchor{}, false
	}

	quoteStart := strings.Index(documentText, selected)
	if quoteStart == -1 {
		return Anchor{}, false
	}

	prefixStart := nudgeForwardToRuneStart(documentText, quoteStart-ContextChars)
	quoteEnd := quoteStart + len(selected)
	suffixEnd := nudgeBackToRuneStart(documentText, quoteEnd+ContextChars)

	offset := quoteStart
	return Anchor{
		Quote:       selected,
		Prefix:      documentText[prefixStart:quoteStart],
		Suffix:      documentText[quoteEnd:suffixEnd],
		QuoteOffset: &offset,
	}, true
}

// Context boundaries are nudged to rune starts so slices never split a
// multi-byte rune; both directions shrink the context rather than grow it.

func nudgeForwardToRuneStart(text string, position int) int {
	if position <= 0 {
		return 0
	}
	if position >= len(text) {
		return len(text)
	}
	for position < len(text) && !utf8.RuneStart(text[position]) {
		position++
	}
	return position
}

func nudgeBackToRuneStart(text string, position int) int {
	if position >= len(text) {
		return len(text)
	}
	if position <= 0 {
		return 0
	}
	for position > 0 && !utf8.RuneStart(text[position]) {
		position--
	}
	return position
}
