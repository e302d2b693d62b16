package viewer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MatthewHallCom/note-sx-server/internal/annotations"
	"go.uber.org/zap"
)

const defaultReconnectDelay = 2 * time.Second

var errMissingStreamHandler = errors.New("viewer: stream handler is required")

// StreamConfig carries the live-channel consumer's dependencies.
type StreamConfig struct {
	BaseURL    string
	DocumentID string
	// Handler receives each decoded event, typically Viewer.ApplyEvent.
	Handler        func(annotations.Event)
	HTTPClient     *http.Client
	ReconnectDelay time.Duration
	Logger         *zap.Logger
}

// Stream consumes one document's live event channel and re-establishes the
// connection after transient transport failures, so a viewer never needs a
// full reload to keep receiving events.
type Stream struct {
	url            string
	handler        func(annotations.Event)
	client         *http.Client
	reconnectDelay time.Duration
	logger         *zap.Logger
}

// NewStream validates the configuration and constructs a Stream.
func NewStream(cfg StreamConfig) (*Stream, error) {
	documentID, err := annotations.NewDocumentID(cfg.DocumentID)
	if err != nil {
		return nil, err
	}
	if cfg.Handler == nil {
		return nil, errMissingStreamHandler
	}
	client := cfg.HTTPClient
	if client == nil {
		// No overall timeout: the connection is deliberately long-lived.
		client = &http.Client{}
	}
	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = defaultReconnectDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stream{
		url:            strings.TrimRight(cfg.BaseURL, "/") + "/v1/annotations/" + documentID.String() + "/events",
		handler:        cfg.Handler,
		client:         client,
		reconnectDelay: delay,
		logger:         logger,
	}, nil
}

// Run consumes the stream until ctx is cancelled, reconnecting after every
// disconnect or failed attempt.
func (s *Stream) Run(ctx context.Context) error {
	for {
		err := s.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("event stream disconnected, reconnecting", zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *Stream) consume(ctx context.Context) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "text/event-stream")

	response, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		io.Copy(io.Discard, response.Body) //nolint:errcheck
		return fmt.Errorf("unexpected stream status %d", response.StatusCode)
	}

	reader := bufio.NewReader(response.Body)
	eventName := ""
	var data bytes.Buffer
	for {
		rawLine, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		line := strings.TrimRight(rawLine, "\r\n")
		switch {
		case line == "":
			s.dispatch(eventName, data.Bytes())
			eventName = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
			// Keepalive comment frame.
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
}

func (s *Stream) dispatch(eventName string, payload []byte) {
	if eventName == "" || len(payload) == 0 {
		return
	}
	event, err := annotations.DecodeEvent(eventName, payload)
	if err != nil {
		s.logger.Warn("dropping undecodable event", zap.String("event", eventName), zap.Error(err))
		return
	}
	s.handler(event)
}
