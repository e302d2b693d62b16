package viewer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MatthewHallCom/note-sx-server/internal/annotations"
)

func TestStreamDeliversDecodedEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/annotations/doc1/events" {
			http.NotFound(w, r)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer does not support flushing")
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "id: evt-1\nevent: new-annotation\ndata: {\"id\":5,\"document_id\":\"doc1\",\"type\":\"comment\",\"quote\":\"quick\"}\n\n")
		fmt.Fprint(w, "id: evt-2\nevent: delete-annotation\ndata: {\"id\":5}\n\n")
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	received := make(chan annotations.Event, 4)
	stream, err := NewStream(StreamConfig{
		BaseURL:        server.URL,
		DocumentID:     "doc1",
		Handler:        func(event annotations.Event) { received <- event },
		ReconnectDelay: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to construct stream: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stream.Run(ctx) //nolint:errcheck

	select {
	case event := <-received:
		created, ok := event.(annotations.NewAnnotationEvent)
		if !ok {
			t.Fatalf("expected a new-annotation event, got %T", event)
		}
		if created.Annotation.ID != 5 || created.Annotation.Quote != "quick" {
			t.Fatalf("unexpected annotation payload: %+v", created.Annotation)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected first event within deadline")
	}

	select {
	case event := <-received:
		deleted, ok := event.(annotations.DeleteAnnotationEvent)
		if !ok {
			t.Fatalf("expected a delete-annotation event, got %T", event)
		}
		if deleted.ID != 5 {
			t.Fatalf("unexpected deleted id: %d", deleted.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected second event within deadline")
	}
}

func TestStreamReconnectsAfterDisconnect(t *testing.T) {
	var connections atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempt := connections.Add(1)
		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if attempt == 1 {
			// First connection drops immediately after the handshake.
			flusher.Flush()
			return
		}
		fmt.Fprint(w, "event: delete-annotation\ndata: {\"id\":9}\n\n")
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	received := make(chan annotations.Event, 1)
	stream, err := NewStream(StreamConfig{
		BaseURL:        server.URL,
		DocumentID:     "doc1",
		Handler:        func(event annotations.Event) { received <- event },
		ReconnectDelay: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("failed to construct stream: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stream.Run(ctx) //nolint:errcheck

	select {
	case event := <-received:
		deleted, ok := event.(annotations.DeleteAnnotationEvent)
		if !ok {
			t.Fatalf("expected a delete-annotation event, got %T", event)
		}
		if deleted.ID != 9 {
			t.Fatalf("unexpected deleted id: %d", deleted.ID)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("expected an event after reconnect")
	}
	if connections.Load() < 2 {
		t.Fatalf("expected at least 2 connection attempts, got %d", connections.Load())
	}
}

func TestNewStreamValidatesConfiguration(t *testing.T) {
	if _, err := NewStream(StreamConfig{DocumentID: "Bad_ID", Handler: func(annotations.Event) {}}); err == nil {
		t.Fatal("expected invalid document id to fail")
	}
	if _, err := NewStream(StreamConfig{DocumentID: "doc1"}); err == nil {
		t.Fatal("expected missing handler to fail")
	}
}

func TestStreamRunStopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer server.Close()

	stream, err := NewStream(StreamConfig{
		BaseURL:    server.URL,
		DocumentID: "doc1",
		Handler:    func(annotations.Event) {},
	})
	if err != nil {
		t.Fatalf("failed to construct stream: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- stream.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected Run to stop after cancel")
	}
}
