package handler

import (
	"time"

	"regpulse/internal/audit"
)

// StartResponse is the HTTP response for POST /admin/v1/ingest.
type StartResponse struct {
	RunID string `json:"run_id"`
}

// UnitEvent is one audit event in a run-status response.
type UnitEvent struct {
	Title     int       `json:"title"`
	Date      string    `json:"date"`
	State     string    `json:"state"`
	Sections  int       `json:"sections,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse is the HTTP response for GET /admin/v1/ingest/{runID}.
type StatusResponse struct {
	RunID  string      `json:"run_id"`
	Events []UnitEvent `json:"events"`
}

// FromEvents converts audit events to a run-status response.
func FromEvents(runID string, events []audit.Event) *StatusResponse {
	out := make([]UnitEvent, 0, len(events))
	for _, e := range events {
		out = append(out, UnitEvent{
			Title:     e.Title,
			Date:      e.Date,
			State:     e.State,
			Sections:  e.Sections,
			Error:     e.Error,
			Timestamp: e.Timestamp,
		})
	}
	return &StatusResponse{RunID: runID, Events: out}
}
