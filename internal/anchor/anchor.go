package anchor

// ContextChars is how much surrounding document text is captured on each
// side of the quote when an anchor is created. The window is measured in
// bytes and shrunk to rune boundaries, so multibyte text keeps slightly
// fewer than 30 characters of context.
const ContextChars = 30

// hintWindow is how far before the recorded offset the hinted fallback search
// begins, tolerating moderate drift between capture time and resolution time.
const hintWindow = 50

// Anchor describes a selected text span durably enough to re-locate it after
// the document is re-rendered. Quote is the literal selected text, Prefix and
// Suffix are surrounding context captured at creation time, and QuoteOffset is
// the byte offset of the quote in the flattened document text when it was
// captured. The offset is only a search hint; it is never treated as
// authoritative once the document may have drifted.
type Anchor struct {
	Quote       string `json:"quote"`
	Prefix      string `json:"prefix"`
	Suffix      string `json:"suffix"`
	QuoteOffset *int   `json:"quote_offset"`
}

// Range is a half-open [Start, End) span of byte offsets into the flattened
// document text.
type Range struct {
	Start int
	End   int
}

// Len returns the byte length of the range.
func (r Range) Len() int {
	return r.End - r.Start
}
