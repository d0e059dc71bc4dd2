package eventstore

import (
	"encoding/json"
	"time"
)

// Event type names.
const (
	TypeRunStarted       = "RunStarted"
	TypeMutationRecorded = "MutationRecorded"
	TypeRunCompleted     = "RunCompleted"
)

// RunStartedPayload is the body of a RunStarted event.
type RunStartedPayload struct {
	Operation  string `json:"operation"`
	Assignment string `json:"assignment,omitempty"`
	Live       bool   `json:"live"`
}

// MutationPayload is the body of a MutationRecorded event.
type MutationPayload struct {
	Kind       string `json:"kind"`
	Repository string `json:"repository"`
	Principal  string `json:"principal,omitempty"`
	Class      string `json:"class,omitempty"`
	Level      string `json:"level,omitempty"`
	Previous   string `json:"previous,omitempty"`
	Template   string `json:"template,omitempty"`
	Applied    bool   `json:"applied"`
}

// RunCompletedPayload is the body of a RunCompleted event.
type RunCompletedPayload struct {
	Operation string `json:"operation"`
	Status    string `json:"status"` // "success", "failed", "aborted"
	Mutations int    `json:"mutations"`
	Error     string `json:"error,omitempty"`
}

// RunStarted is emitted when a top-level operation begins.
type RunStarted struct {
	BaseEvent
	RunStartedPayload
}

// MutationRecorded is emitted for every mutation passing the gate.
type MutationRecorded struct {
	BaseEvent
	MutationPayload
}

// RunCompleted is emitted when a top-level operation ends, successfully or not.
type RunCompleted struct {
	BaseEvent
	RunCompletedPayload
}

func newBase(runID, eventType string, payload any) (BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return BaseEvent{}, ErrMarshalPayloadFailed.
			WithCause(err).
			WithContext("run_id", runID).
			WithContext("event_type", eventType)
	}
	return BaseEvent{
		EventRunID:     runID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   data,
	}, nil
}

// NewRunStarted creates a RunStarted event.
func NewRunStarted(runID string, p RunStartedPayload) (*RunStarted, error) {
	base, err := newBase(runID, TypeRunStarted, p)
	if err != nil {
		return nil, err
	}
	return &RunStarted{BaseEvent: base, RunStartedPayload: p}, nil
}

// NewMutationRecorded creates a MutationRecorded event.
func NewMutationRecorded(runID string, p MutationPayload) (*MutationRecorded, error) {
	base, err := newBase(runID, TypeMutationRecorded, p)
	if err != nil {
		return nil, err
	}
	return &MutationRecorded{BaseEvent: base, MutationPayload: p}, nil
}

// NewRunCompleted creates a RunCompleted event.
func NewRunCompleted(runID string, p RunCompletedPayload) (*RunCompleted, error) {
	base, err := newBase(runID, TypeRunCompleted, p)
	if err != nil {
		return nil, err
	}
	return &RunCompleted{BaseEvent: base, RunCompletedPayload: p}, nil
}

// DecodePayload unmarshals the payload of e into v.
func DecodePayload(e Event, v any) error {
	if err := json.Unmarshal(e.Payload(), v); err != nil {
		return ErrUnmarshalPayloadFailed.
			WithCause(err).
			WithContext("run_id", e.RunID()).
			WithContext("event_type", e.Type())
	}
	return nil
}
