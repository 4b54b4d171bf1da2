// Package diagnostics keeps a bounded in-memory trail of model-processing
// events: every parse, write, conversion and validation run is recorded with
// its outcome, so a batch tool can report what happened to each document
// after the fact.
package diagnostics

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action types for recorded events
type Action string

const (
	ActionParse      Action = "parse"
	ActionWrite      Action = "write"
	ActionValidate   Action = "validate"
	ActionFromNative Action = "from_native"
	ActionToNative   Action = "to_native"
)

// Status represents the outcome of an action
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Event represents a single recorded processing step
type Event struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	Action       Action         `json:"action"`
	Model        string         `json:"model,omitempty"`
	Source       string         `json:"source,omitempty"`
	Status       Status         `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Warnings     int            `json:"warnings,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Filter represents filtering criteria for recorded events
type Filter struct {
	Action    Action
	Model     string
	Status    Status
	StartTime *time.Time
	EndTime   *time.Time
}

// Recorder manages processing events with a circular buffer
type Recorder struct {
	events     []*Event
	bufferSize int
	index      int
	count      int
	mu         sync.RWMutex
}

// NewRecorder creates a recorder with the specified buffer size
func NewRecorder(bufferSize int) *Recorder {
	return &Recorder{
		events:     make([]*Event, bufferSize),
		bufferSize: bufferSize,
	}
}

// Record stores an event, assigning its id and timestamp when unset
func (r *Recorder) Record(event *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	r.events[r.index] = event
	r.index = (r.index + 1) % r.bufferSize

	if r.count < r.bufferSize {
		r.count++
	}
	return nil
}

// Events retrieves recorded events with optional filtering, oldest first
func (r *Recorder) Events(filter *Filter) []*Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Event, 0, r.count)
	for i := 0; i < r.count; i++ {
		idx := (r.index - r.count + i + r.bufferSize) % r.bufferSize
		event := r.events[idx]
		if event == nil {
			continue
		}

		if filter != nil {
			if filter.Action != "" && event.Action != filter.Action {
				continue
			}
			if filter.Model != "" && event.Model != filter.Model {
				continue
			}
			if filter.Status != "" && event.Status != filter.Status {
				continue
			}
			if filter.StartTime != nil && event.Timestamp.Before(*filter.StartTime) {
				continue
			}
			if filter.EndTime != nil && event.Timestamp.After(*filter.EndTime) {
				continue
			}
		}

		result = append(result, event)
	}
	return result
}

// RecentEvents returns the N most recent events, newest first
func (r *Recorder) RecentEvents(n int) []*Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n > r.count {
		n = r.count
	}
	result := make([]*Event, 0, n)
	for i := 0; i < n; i++ {
		idx := (r.index - 1 - i + r.bufferSize) % r.bufferSize
		if r.events[idx] != nil {
			result = append(result, r.events[idx])
		}
	}
	return result
}

// EventCount returns the number of events currently stored
func (r *Recorder) EventCount() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(r.count)
}

// Clear removes all recorded events
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = make([]*Event, r.bufferSize)
	r.index = 0
	r.count = 0
}

// Success records a successful action on a model
func (r *Recorder) Success(action Action, model, source string, warnings int) error {
	return r.Record(&Event{
		Action:   action,
		Model:    model,
		Source:   source,
		Status:   StatusSuccess,
		Warnings: warnings,
	})
}

// Failure records a failed action with its error
func (r *Recorder) Failure(action Action, model, source string, err error) error {
	event := &Event{
		Action: action,
		Model:  model,
		Source: source,
		Status: StatusFailure,
	}
	if err != nil {
		event.ErrorMessage = err.Error()
	}
	return r.Record(event)
}

// String returns a human-readable representation of an event
func (e *Event) String() string {
	return fmt.Sprintf("[%s] %s %s %s (warnings: %d) %s",
		e.Timestamp.Format(time.RFC3339),
		e.Action,
		e.Model,
		e.Status,
		e.Warnings,
		e.ErrorMessage,
	)
}
