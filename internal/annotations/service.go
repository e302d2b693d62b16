package annotations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

// ServiceError wraps a failure with a stable operation.reason code.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code returns the stable error code.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew  = "annotations.service.new"
	opList        = "annotations.list"
	opCreate      = "annotations.create"
	opCreateReply = "annotations.create_reply"
	opDelete      = "annotations.delete"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// DocumentCatalog answers whether a document identifier denotes a real
// document. The annotation store does not own documents; their registry is a
// collaborator concern.
type DocumentCatalog interface {
	DocumentExists(ctx context.Context, documentID string) (bool, error)
}

// ServiceConfig carries the service's dependencies.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	// Documents is optional; when nil every well-formed document id is
	// accepted, matching storage that materializes documents lazily.
	Documents DocumentCatalog
	Logger    *zap.Logger
}

// Service is the thin CRUD facade over annotation persistence.
type Service struct {
	db        *gorm.DB
	clock     func() time.Time
	documents DocumentCatalog
	logger    *zap.Logger
}

// NewService validates dependencies and constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:        cfg.Database,
		clock:     clock,
		documents: cfg.Documents,
		logger:    logger,
	}, nil
}

// List returns the document's annotations in creation order, each with its
// replies in creation order.
func (s *Service) List(ctx context.Context, documentID DocumentID) ([]Annotation, error) {
	var listed []Annotation
	err := s.db.WithContext(ctx).
		Where("document_id = ?", documentID.String()).
		Order("created_at_s ASC, id ASC").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at_s ASC, id ASC")
		}).
		Find(&listed).Error
	if err != nil {
		s.logError(opList, "query_failed", err, zap.String("document_id", documentID.String()))
		return nil, newServiceError(opList, "query_failed", err)
	}
	for i := range listed {
		if listed[i].Replies == nil {
			listed[i].Replies = []Reply{}
		}
	}
	return listed, nil
}

// CreateRequest is a client's annotation submission before sanitation.
type CreateRequest struct {
	Kind        Kind
	Quote       string
	Prefix      string
	Suffix      string
	QuoteOffset *int
	Body        *string
	AuthorName  string
}

// Create sanitizes, validates and persists a new annotation, returning it as
// stored. The quote must survive sanitation non-empty; comments and
// suggestions must carry a body. Oversized fields are truncated, never
// rejected.
func (s *Service) Create(ctx context.Context, documentID DocumentID, request CreateRequest) (Annotation, error) {
	if _, err := ParseKind(string(request.Kind)); err != nil {
		return Annotation{}, newServiceError(opCreate, "validate_kind", err)
	}

	quote := Sanitize(request.Quote, MaxQuoteLength)
	if strings.TrimSpace(quote) == "" {
		return Annotation{}, newServiceError(opCreate, "validate_quote", ErrEmptyQuote)
	}

	var body *string
	if request.Body != nil {
		sanitized := Sanitize(*request.Body, MaxBodyLength)
		body = &sanitized
	}
	if request.Kind.RequiresBody() && (body == nil || strings.TrimSpace(*body) == "") {
		return Annotation{}, newServiceError(opCreate, "validate_body", ErrEmptyBody)
	}

	if s.documents != nil {
		exists, err := s.documents.DocumentExists(ctx, documentID.String())
		if err != nil {
			s.logError(opCreate, "document_lookup_failed", err, zap.String("document_id", documentID.String()))
			return Annotation{}, newServiceError(opCreate, "document_lookup_failed", err)
		}
		if !exists {
			return Annotation{}, newServiceError(opCreate, "document_not_found", ErrNotFound)
		}
	}

	created := Annotation{
		DocumentID:  documentID.String(),
		Kind:        request.Kind,
		Quote:       quote,
		Prefix:      Sanitize(request.Prefix, MaxContextLength),
		Suffix:      Sanitize(request.Suffix, MaxContextLength),
		QuoteOffset: request.QuoteOffset,
		Body:        body,
		AuthorName:  sanitizeAuthor(request.AuthorName),
		CreatedAt:   s.clock().UTC().Unix(),
		Replies:     []Reply{},
	}
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		s.logError(opCreate, "insert_failed", err, zap.String("document_id", documentID.String()))
		return Annotation{}, newServiceError(opCreate, "insert_failed", err)
	}
	return created, nil
}

// CreateReply appends a reply to an existing annotation under the document.
func (s *Service) CreateReply(ctx context.Context, documentID DocumentID, annotationID int64, body, authorName string) (Reply, error) {
	sanitizedBody := Sanitize(body, MaxBodyLength)
	if strings.TrimSpace(sanitizedBody) == "" {
		return Reply{}, newServiceError(opCreateReply, "validate_body", ErrEmptyBody)
	}

	var parent Annotation
	err := s.db.WithContext(ctx).
		Where("id = ? AND document_id = ?", annotationID, documentID.String()).
		Take(&parent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Reply{}, newServiceError(opCreateReply, "annotation_not_found", ErrNotFound)
	}
	if err != nil {
		s.logError(opCreateReply, "annotation_select_failed", err,
			zap.String("document_id", documentID.String()),
			zap.Int64("annotation_id", annotationID))
		return Reply{}, newServiceError(opCreateReply, "annotation_select_failed", err)
	}

	created := Reply{
		AnnotationID: parent.ID,
		Body:         sanitizedBody,
		AuthorName:   sanitizeAuthor(authorName),
		CreatedAt:    s.clock().UTC().Unix(),
	}
	if err := s.db.WithContext(ctx).Create(&created).Error; err != nil {
		s.logError(opCreateReply, "insert_failed", err,
			zap.String("document_id", documentID.String()),
			zap.Int64("annotation_id", annotationID))
		return Reply{}, newServiceError(opCreateReply, "insert_failed", err)
	}
	return created, nil
}

// Delete removes the annotation and its replies. The reply delete is issued
// explicitly in the same transaction rather than trusting the schema-level
// cascade alone.
func (s *Service) Delete(ctx context.Context, documentID DocumentID, annotationID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Annotation
		err := tx.Where("id = ? AND document_id = ?", annotationID, documentID.String()).
			Take(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newServiceError(opDelete, "annotation_not_found", ErrNotFound)
		}
		if err != nil {
			s.logError(opDelete, "annotation_select_failed", err,
				zap.String("document_id", documentID.String()),
				zap.Int64("annotation_id", annotationID))
			return newServiceError(opDelete, "annotation_select_failed", err)
		}

		if err := tx.Where("annotation_id = ?", existing.ID).Delete(&Reply{}).Error; err != nil {
			s.logError(opDelete, "replies_delete_failed", err, zap.Int64("annotation_id", annotationID))
			return newServiceError(opDelete, "replies_delete_failed", err)
		}
		if err := tx.Delete(&Annotation{}, existing.ID).Error; err != nil {
			s.logError(opDelete, "annotation_delete_failed", err, zap.Int64("annotation_id", annotationID))
			return newServiceError(opDelete, "annotation_delete_failed", err)
		}
		return nil
	})
}

func sanitizeAuthor(rawAuthor string) string {
	author := Sanitize(rawAuthor, MaxAuthorLength)
	if strings.TrimSpace(author) == "" {
		return DefaultAuthorName
	}
	return author
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("annotations service error", attrs...)
}
