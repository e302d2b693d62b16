package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// handleAnnotationEvents is the long-lived push connection for one document.
// It parks on the subscriber stream, forwards broadcasts as SSE frames, and
// emits a comment keepalive on a fixed interval purely to defeat idle-timeout
// middleboxes; it produces no data of its own. When the underlying connection
// signals cancellation the subscription is removed from the registry before
// the handler returns.
func (h *httpHandler) handleAnnotationEvents(c *gin.Context) {
	documentID, ok := h.bindDocumentID(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	stream, cleanup := h.broadcaster.Subscribe(ctx, documentID.String())
	defer cleanup()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case envelope, open := <-stream:
			if !open {
				return
			}
			writeEnvelope(c.Writer, envelope)
			c.Writer.Flush()
		case <-keepalive.C:
			io.WriteString(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}

func writeEnvelope(w io.Writer, envelope Envelope) {
	fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", envelope.ID, envelope.Name, envelope.Data)
}
