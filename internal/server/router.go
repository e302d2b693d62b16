package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MatthewHallCom/note-sx-server/internal/annotations"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultKeepaliveInterval = 30 * time.Second

var (
	errMissingAnnotationsService = errors.New("annotations service dependency required")
	errMissingBroadcaster        = errors.New("broadcaster dependency required")
)

// Dependencies carries the collaborators the HTTP surface is built over.
type Dependencies struct {
	Annotations       *annotations.Service
	Broadcaster       *Broadcaster
	Logger            *zap.Logger
	KeepaliveInterval time.Duration
	AllowedOrigins    []string
}

// NewHTTPHandler assembles the REST and live-channel routes.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Annotations == nil {
		return nil, errMissingAnnotationsService
	}
	if deps.Broadcaster == nil {
		return nil, errMissingBroadcaster
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	keepalive := deps.KeepaliveInterval
	if keepalive <= 0 {
		keepalive = defaultKeepaliveInterval
	}
	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		annotations: deps.Annotations,
		broadcaster: deps.Broadcaster,
		keepalive:   keepalive,
		logger:      logger,
	}

	// The events route must be registered before the parameterized GET so
	// the stream path never matches as a document listing.
	group := router.Group("/v1/annotations")
	group.GET("/:document/events", handler.handleAnnotationEvents)
	group.GET("/:document", handler.handleListAnnotations)
	group.POST("/:document", handler.handleCreateAnnotation)
	group.POST("/:document/:id/replies", handler.handleCreateReply)
	group.DELETE("/:document/:id", handler.handleDeleteAnnotation)

	return router, nil
}

type httpHandler struct {
	annotations *annotations.Service
	broadcaster *Broadcaster
	keepalive   time.Duration
	logger      *zap.Logger
}

func (h *httpHandler) handleListAnnotations(c *gin.Context) {
	documentID, ok := h.bindDocumentID(c)
	if !ok {
		return
	}

	listed, err := h.annotations.List(c.Request.Context(), documentID)
	if err != nil {
		h.logger.Error("failed to list annotations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"annotations": listed})
}

type createAnnotationPayload struct {
	Type        string  `json:"type"`
	Quote       string  `json:"quote"`
	Prefix      string  `json:"prefix"`
	Suffix      string  `json:"suffix"`
	QuoteOffset *int    `json:"quote_offset"`
	Body        *string `json:"body"`
	AuthorName  string  `json:"author_name"`
}

func (h *httpHandler) handleCreateAnnotation(c *gin.Context) {
	documentID, ok := h.bindDocumentID(c)
	if !ok {
		return
	}

	var payload createAnnotationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}
	kind, err := annotations.ParseKind(payload.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_type"})
		return
	}

	created, err := h.annotations.Create(c.Request.Context(), documentID, annotations.CreateRequest{
		Kind:        kind,
		Quote:       payload.Quote,
		Prefix:      payload.Prefix,
		Suffix:      payload.Suffix,
		QuoteOffset: payload.QuoteOffset,
		Body:        payload.Body,
		AuthorName:  payload.AuthorName,
	})
	if err != nil {
		h.respondServiceError(c, err, "create_failed")
		return
	}

	// Subscribers only ever see committed state; the broadcast happens
	// strictly after persistence succeeded.
	h.broadcaster.Broadcast(documentID.String(), annotations.NewAnnotationEvent{Annotation: created})
	c.JSON(http.StatusCreated, gin.H{"annotation": created})
}

type createReplyPayload struct {
	Body       string `json:"body"`
	AuthorName string `json:"author_name"`
}

func (h *httpHandler) handleCreateReply(c *gin.Context) {
	documentID, ok := h.bindDocumentID(c)
	if !ok {
		return
	}
	annotationID, ok := h.bindAnnotationID(c)
	if !ok {
		return
	}

	var payload createReplyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}

	created, err := h.annotations.CreateReply(c.Request.Context(), documentID, annotationID, payload.Body, payload.AuthorName)
	if err != nil {
		h.respondServiceError(c, err, "reply_failed")
		return
	}

	h.broadcaster.Broadcast(documentID.String(), annotations.NewReplyEvent{
		AnnotationID: annotationID,
		Reply:        created,
	})
	c.JSON(http.StatusCreated, gin.H{"reply": created})
}

func (h *httpHandler) handleDeleteAnnotation(c *gin.Context) {
	documentID, ok := h.bindDocumentID(c)
	if !ok {
		return
	}
	annotationID, ok := h.bindAnnotationID(c)
	if !ok {
		return
	}

	if err := h.annotations.Delete(c.Request.Context(), documentID, annotationID); err != nil {
		h.respondServiceError(c, err, "delete_failed")
		return
	}

	h.broadcaster.Broadcast(documentID.String(), annotations.DeleteAnnotationEvent{ID: annotationID})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *httpHandler) bindDocumentID(c *gin.Context) (annotations.DocumentID, bool) {
	documentID, err := annotations.NewDocumentID(c.Param("document"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_document_id"})
		return "", false
	}
	return documentID, true
}

func (h *httpHandler) bindAnnotationID(c *gin.Context) (int64, bool) {
	annotationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_annotation_id"})
		return 0, false
	}
	return annotationID, true
}

func (h *httpHandler) respondServiceError(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, annotations.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, annotations.ErrInvalidKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_type"})
	case errors.Is(err, annotations.ErrEmptyQuote):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_quote"})
	case errors.Is(err, annotations.ErrEmptyBody):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_body"})
	default:
		h.logger.Error("annotations request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackCode})
	}
}
