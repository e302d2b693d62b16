// Package viewer holds one reader's client-side state for a document: which
// annotations have been rendered, their inline markers and cards, the single
// expanded card, and the orphan list. All transitions are synchronous and
// idempotent so renders can be re-run at any time.
package viewer

import (
	"errors"
	"sort"

	"github.com/MatthewHallCom/note-sx-server/internal/anchor"
	"github.com/MatthewHallCom/note-sx-server/internal/annotations"
	"github.com/MatthewHallCom/note-sx-server/internal/doc"
	"github.com/MatthewHallCom/note-sx-server/internal/layout"
	"github.com/MatthewHallCom/note-sx-server/internal/overlay"
	"go.uber.org/zap"
)

const quotePreviewLength = 60

var errMissingDocument = errors.New("viewer: document tree is required")

// Card is the expandable panel for one annotation: its metadata, body, and
// reply thread. Collapsed is the default state; at most one card is expanded
// at a time.
type Card struct {
	AnnotationID int64
	Kind         annotations.Kind
	AuthorName   string
	CreatedAt    int64
	QuotePreview string
	Body         string
	Replies      []annotations.Reply
	Expanded     bool
	Resolved     bool
}

// Config carries the viewer's collaborators. Document is required; the rest
// default to reasonable no-ops so pure state-machine tests need no geometry.
type Config struct {
	Document *doc.Node
	// CardHeight reports a card's rendered height for layout.
	CardHeight func(Card) float64
	// MarkerTop probes the vertical offset of an annotation's inline marker
	// relative to the scrolling ancestor; false means the marker is not in
	// the document (orphaned or already removed).
	MarkerTop func(annotationID int64) (float64, bool)
	// ContentGeometry reports the document content's right edge and the
	// scrolling ancestor's left edge, for the card layer's horizontal
	// placement.
	ContentGeometry func() (contentRight, ancestorLeft float64)
	// ScrollToMarker is invoked when a card expands so the inline marker
	// comes into view.
	ScrollToMarker func(annotationID int64)
	// OnLayoutNeeded is invoked after any transition that changes card
	// geometry (a card appears, disappears, expands or collapses) so the
	// embedder re-runs Layout without polling.
	OnLayoutNeeded func()
	MinGap         float64
	Logger         *zap.Logger
}

// Viewer is one reader's session state for a document.
type Viewer struct {
	document        *doc.Node
	cardHeight      func(Card) float64
	markerTop       func(int64) (float64, bool)
	contentGeometry func() (float64, float64)
	scrollToMarker  func(int64)
	onLayoutNeeded  func()
	minGap          float64
	logger          *zap.Logger

	rendered     map[int64]struct{}
	byID         map[int64]annotations.Annotation
	cards        []*Card
	activeCardID int64 // 0 when no card is expanded
	orphans      []annotations.Annotation
}

// New constructs a viewer over the document tree.
func New(cfg Config) (*Viewer, error) {
	if cfg.Document == nil {
		return nil, errMissingDocument
	}
	cardHeight := cfg.CardHeight
	if cardHeight == nil {
		cardHeight = estimateCardHeight
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	minGap := cfg.MinGap
	if minGap <= 0 {
		minGap = layout.DefaultMinGap
	}
	return &Viewer{
		document:        cfg.Document,
		cardHeight:      cardHeight,
		markerTop:       cfg.MarkerTop,
		contentGeometry: cfg.ContentGeometry,
		scrollToMarker:  cfg.ScrollToMarker,
		onLayoutNeeded:  cfg.OnLayoutNeeded,
		minGap:          minGap,
		logger:          logger,
		rendered:        make(map[int64]struct{}),
		byID:            make(map[int64]annotations.Annotation),
	}, nil
}

// Load renders an initial annotation listing. Annotations are rendered in
// quote-offset-descending order so wrapping later spans never shifts the
// offsets of earlier ones.
func (v *Viewer) Load(listed []annotations.Annotation) {
	ordered := make([]annotations.Annotation, len(listed))
	copy(ordered, listed)
	sort.SliceStable(ordered, func(i, j int) bool {
		return offsetOrZero(ordered[i]) > offsetOrZero(ordered[j])
	})
	for _, a := range ordered {
		v.RenderAnnotation(a)
	}
}

// RenderAnnotation renders one annotation: anchor resolution, inline marker,
// and card, or the orphan list when the anchor no longer resolves. An id
// renders at most once per session; rendering an already-rendered id is a
// no-op, which makes delivery idempotent when a creator's optimistic render
// races with its own echoed live event. It reports whether anything was
// rendered.
func (v *Viewer) RenderAnnotation(a annotations.Annotation) bool {
	if _, alreadyRendered := v.rendered[a.ID]; alreadyRendered {
		return false
	}
	v.rendered[a.ID] = struct{}{}
	v.byID[a.ID] = a

	resolvedRange, resolved := anchor.Resolve(a.Anchor(), v.document.TextContent())
	if !resolved {
		v.orphans = append(v.orphans, a)
		v.logger.Debug("annotation orphaned", zap.Int64("annotation_id", a.ID))
		return true
	}

	if !overlay.Apply(v.document, resolvedRange, a) {
		v.orphans = append(v.orphans, a)
		return true
	}

	v.cards = append(v.cards, &Card{
		AnnotationID: a.ID,
		Kind:         a.Kind,
		AuthorName:   a.AuthorName,
		CreatedAt:    a.CreatedAt,
		QuotePreview: previewQuote(a.Quote),
		Body:         bodyOrEmpty(a.Body),
		Replies:      append([]annotations.Reply(nil), a.Replies...),
		Resolved:     true,
	})
	v.requestLayout()
	return true
}

// ToggleCard flips the card between collapsed and expanded. Expanding
// collapses any other expanded card first and scrolls the inline marker into
// view. It reports whether the card is expanded afterwards; unknown ids are
// a no-op.
func (v *Viewer) ToggleCard(annotationID int64) bool {
	card := v.cardByID(annotationID)
	if card == nil {
		return false
	}

	if card.Expanded {
		card.Expanded = false
		v.activeCardID = 0
		v.requestLayout()
		return false
	}

	if active := v.cardByID(v.activeCardID); active != nil {
		active.Expanded = false
	}
	card.Expanded = true
	v.activeCardID = annotationID
	if v.scrollToMarker != nil {
		v.scrollToMarker(annotationID)
	}
	v.requestLayout()
	return true
}

// ActiveCardID returns the currently expanded card's annotation id, if any.
func (v *Viewer) ActiveCardID() (int64, bool) {
	if v.activeCardID == 0 {
		return 0, false
	}
	return v.activeCardID, true
}

// SetCardHovered mirrors card hover onto the inline markers sharing the
// annotation id.
func (v *Viewer) SetCardHovered(annotationID int64, hovered bool) {
	overlay.SetHighlighted(v.document, annotationID, hovered)
}

// RemoveAnnotation erases every manifestation of the annotation: inline
// markers are unwrapped so the surrounding text is preserved, the card and
// any orphan entry are removed, and tracking state is cleared so the id could
// be rendered again in a future session.
func (v *Viewer) RemoveAnnotation(annotationID int64) {
	overlay.Remove(v.document, annotationID)

	for i, card := range v.cards {
		if card.AnnotationID == annotationID {
			v.cards = append(v.cards[:i], v.cards[i+1:]...)
			v.requestLayout()
			break
		}
	}
	for i, orphan := range v.orphans {
		if orphan.ID == annotationID {
			v.orphans = append(v.orphans[:i], v.orphans[i+1:]...)
			break
		}
	}
	if v.activeCardID == annotationID {
		v.activeCardID = 0
	}
	delete(v.rendered, annotationID)
	delete(v.byID, annotationID)
}

// ApplyEvent applies one live-channel event; the dispatch is a total match
// over the closed event set. New annotations go through the same idempotent
// render path as the initial load. Replies for cards that are not rendered
// are dropped silently, as are replies already present in the thread.
func (v *Viewer) ApplyEvent(event annotations.Event) {
	switch e := event.(type) {
	case annotations.NewAnnotationEvent:
		v.RenderAnnotation(e.Annotation)
	case annotations.NewReplyEvent:
		v.appendReply(e.AnnotationID, e.Reply)
	case annotations.DeleteAnnotationEvent:
		v.RemoveAnnotation(e.ID)
	}
}

func (v *Viewer) appendReply(annotationID int64, reply annotations.Reply) {
	card := v.cardByID(annotationID)
	if card == nil {
		return
	}
	for _, existing := range card.Replies {
		if existing.ID == reply.ID {
			return
		}
	}
	card.Replies = append(card.Replies, reply)
	if a, tracked := v.byID[annotationID]; tracked {
		a.Replies = append(a.Replies, reply)
		v.byID[annotationID] = a
	}
}

// Frame is one layout pass result: the card layer's horizontal offset and
// the non-overlapping card placements.
type Frame struct {
	LayerLeft  float64
	Placements []layout.Placement
}

// Layout recomputes card positions. It is a pure function of current state
// and safe to re-run at any time; OnLayoutNeeded fires for every state
// transition that requires one, and the embedder additionally re-runs it on
// viewport resizes.
func (v *Viewer) Layout() Frame {
	inputs := make([]layout.Card, 0, len(v.cards))
	for i, card := range v.cards {
		desired := layout.FallbackDesired(i)
		if v.markerTop != nil {
			if top, found := v.markerTop(card.AnnotationID); found {
				desired = top
			}
		}
		inputs = append(inputs, layout.Card{
			AnnotationID: card.AnnotationID,
			Desired:      desired,
			Height:       v.cardHeight(*card),
		})
	}

	frame := Frame{Placements: layout.Place(inputs, v.minGap)}
	if v.contentGeometry != nil {
		contentRight, ancestorLeft := v.contentGeometry()
		frame.LayerLeft = layout.LayerLeft(contentRight, ancestorLeft)
	}
	return frame
}

// Cards returns a snapshot of the rendered cards in render order.
func (v *Viewer) Cards() []Card {
	snapshot := make([]Card, 0, len(v.cards))
	for _, card := range v.cards {
		snapshot = append(snapshot, *card)
	}
	return snapshot
}

// Orphans returns the annotations whose anchors could not be resolved, with
// their quote and author data preserved.
func (v *Viewer) Orphans() []annotations.Annotation {
	return append([]annotations.Annotation(nil), v.orphans...)
}

// Document returns the viewer's document tree.
func (v *Viewer) Document() *doc.Node {
	return v.document
}

func (v *Viewer) requestLayout() {
	if v.onLayoutNeeded != nil {
		v.onLayoutNeeded()
	}
}

func (v *Viewer) cardByID(annotationID int64) *Card {
	if annotationID == 0 {
		return nil
	}
	for _, card := range v.cards {
		if card.AnnotationID == annotationID {
			return card
		}
	}
	return nil
}

func offsetOrZero(a annotations.Annotation) int {
	if a.QuoteOffset == nil {
		return 0
	}
	return *a.QuoteOffset
}

func previewQuote(quote string) string {
	runes := []rune(quote)
	if len(runes) <= quotePreviewLength {
		return quote
	}
	return string(runes[:quotePreviewLength]) + "..."
}

func bodyOrEmpty(body *string) string {
	if body == nil {
		return ""
	}
	return *body
}

// estimateCardHeight is the default height model: a header block, a body
// line when present, and the reply thread plus input row when expanded.
func estimateCardHeight(card Card) float64 {
	height := 80.0
	if card.Body != "" {
		height += 24
	}
	if len(card.Replies) > 0 {
		height += 18
	}
	if card.Expanded {
		height += 56 + 44*float64(len(card.Replies))
	}
	return height
}
