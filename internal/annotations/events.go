package annotations

import (
	"encoding/json"
	"fmt"
)

// Live-channel event names. The set is closed; client dispatch is a total
// match over the three variants.
const (
	EventNewAnnotation    = "new-annotation"
	EventNewReply         = "new-reply"
	EventDeleteAnnotation = "delete-annotation"
)

// Event is one tagged variant of the live channel's payload types.
type Event interface {
	EventName() string
	EventPayload() any
}

// NewAnnotationEvent carries the full created annotation so receivers never
// need a follow-up fetch.
type NewAnnotationEvent struct {
	Annotation Annotation
}

// EventName implements Event.
func (NewAnnotationEvent) EventName() string { return EventNewAnnotation }

// EventPayload implements Event.
func (e NewAnnotationEvent) EventPayload() any { return e.Annotation }

// NewReplyEvent carries a created reply together with its parent annotation
// id so receivers can locate the thread.
type NewReplyEvent struct {
	AnnotationID int64 `json:"annotation_id"`
	Reply        Reply `json:"reply"`
}

// EventName implements Event.
func (NewReplyEvent) EventName() string { return EventNewReply }

// EventPayload implements Event.
func (e NewReplyEvent) EventPayload() any { return e }

// DeleteAnnotationEvent carries only the deleted annotation's id.
type DeleteAnnotationEvent struct {
	ID int64 `json:"id"`
}

// EventName implements Event.
func (DeleteAnnotationEvent) EventName() string { return EventDeleteAnnotation }

// EventPayload implements Event.
func (e DeleteAnnotationEvent) EventPayload() any { return e }

// DecodeEvent reconstructs a typed event from a wire event name and its JSON
// payload. Unknown names are an error; the caller decides whether to drop or
// surface them.
func DecodeEvent(name string, payload []byte) (Event, error) {
	switch name {
	case EventNewAnnotation:
		var a Annotation
		if err := json.Unmarshal(payload, &a); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return NewAnnotationEvent{Annotation: a}, nil
	case EventNewReply:
		var e NewReplyEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return e, nil
	case EventDeleteAnnotation:
		var e DeleteAnnotationEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event name %q", name)
	}
}
