package annotations

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/MatthewHallCom/note-sx-server/internal/anchor"
)

// Kind enumerates the supported annotation kinds.
type Kind string

const (
	// KindComment attaches a remark to the anchored span.
	KindComment Kind = "comment"
	// KindSuggestion proposes replacement text for the anchored span.
	KindSuggestion Kind = "suggestion"
	// KindDeletion marks the anchored span for removal.
	KindDeletion Kind = "deletion"
)

// Field length ceilings enforced by sanitation before persistence.
const (
	MaxQuoteLength   = 1000
	MaxContextLength = 1000
	MaxBodyLength    = 5000
	MaxAuthorLength  = 50
)

// DefaultAuthorName is substituted when a submission carries no author name.
const DefaultAuthorName = "Anonymous"

var (
	// ErrInvalidDocumentID indicates a document identifier that does not
	// match the required token syntax.
	ErrInvalidDocumentID = errors.New("annotations: invalid document id")
	// ErrInvalidKind indicates an annotation kind outside the allowed set.
	ErrInvalidKind = errors.New("annotations: invalid kind")
	// ErrEmptyQuote indicates a quote that is empty after sanitation.
	ErrEmptyQuote = errors.New("annotations: empty quote")
	// ErrEmptyBody indicates a missing or blank body where one is required.
	ErrEmptyBody = errors.New("annotations: empty body")
	// ErrNotFound indicates an unknown document or annotation.
	ErrNotFound = errors.New("annotations: not found")
)

var documentIDPattern = regexp.MustCompile(`^[a-z0-9]{1,32}$`)

// DocumentID is a validated document identifier: a short lowercase
// alphanumeric token. Requests carrying anything else are rejected before
// storage is touched.
type DocumentID string

// NewDocumentID validates raw input and returns a DocumentID.
func NewDocumentID(rawInput string) (DocumentID, error) {
	if !documentIDPattern.MatchString(rawInput) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDocumentID, rawInput)
	}
	return DocumentID(rawInput), nil
}

// String returns the underlying identifier.
func (id DocumentID) String() string {
	return string(id)
}

// ParseKind validates raw input against the closed kind set.
func ParseKind(rawInput string) (Kind, error) {
	switch Kind(strings.TrimSpace(rawInput)) {
	case KindComment:
		return KindComment, nil
	case KindSuggestion:
		return KindSuggestion, nil
	case KindDeletion:
		return KindDeletion, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, rawInput)
	}
}

// RequiresBody reports whether the kind needs a body: comments and
// suggestions do, deletion marks carry one optionally.
func (k Kind) RequiresBody() bool {
	return k == KindComment || k == KindSuggestion
}

// Annotation models one persisted annotation with its anchoring data. The
// anchor fields are stored flat, matching the wire format; Anchor() exposes
// them as the anchoring layer's value type.
type Annotation struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	DocumentID  string  `gorm:"column:document_id;size:32;not null;index:idx_annotations_document_created,priority:1" json:"document_id"`
	Kind        Kind    `gorm:"column:type;size:16;not null" json:"type"`
	Quote       string  `gorm:"column:quote;size:1000;not null" json:"quote"`
	Prefix      string  `gorm:"column:prefix;size:1000;not null;default:''" json:"prefix"`
	Suffix      string  `gorm:"column:suffix;size:1000;not null;default:''" json:"suffix"`
	QuoteOffset *int    `gorm:"column:quote_offset" json:"quote_offset"`
	Body        *string `gorm:"column:body;size:5000" json:"body"`
	AuthorName  string  `gorm:"column:author_name;size:50;not null" json:"author_name"`
	CreatedAt   int64   `gorm:"column:created_at_s;not null;index:idx_annotations_document_created,priority:2" json:"created"`
	Replies     []Reply `gorm:"foreignKey:AnnotationID;constraint:OnDelete:CASCADE" json:"replies"`
}

// TableName provides the explicit table binding for GORM.
func (Annotation) TableName() string {
	return "annotations"
}

// Anchor returns the annotation's anchoring data.
func (a Annotation) Anchor() anchor.Anchor {
	return anchor.Anchor{
		Quote:       a.Quote,
		Prefix:      a.Prefix,
		Suffix:      a.Suffix,
		QuoteOffset: a.QuoteOffset,
	}
}

// Reply is one threaded reply under an annotation. Replies are immutable
// once created and live and die with their parent.
type Reply struct {
	ID           int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	AnnotationID int64  `gorm:"column:annotation_id;not null;index" json:"annotation_id"`
	Body         string `gorm:"column:body;size:5000;not null" json:"body"`
	AuthorName   string `gorm:"column:author_name;size:50;not null" json:"author_name"`
	CreatedAt    int64  `gorm:"column:created_at_s;not null" json:"created"`
}

// TableName provides the explicit table binding for GORM.
func (Reply) TableName() string {
	return "annotation_replies"
}
