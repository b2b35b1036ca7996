package handler

import (
	"time"

	"regpulse/internal/ingest"
	dErrors "regpulse/pkg/domain-errors"
)

// StartRequest is the HTTP request body for POST /admin/v1/ingest.
// Empty titles or dates mean the full default set.
type StartRequest struct {
	Titles []int    `json:"titles"`
	Dates  []string `json:"dates"`
	Force  bool     `json:"force"`

	parsedDates []time.Time
}

// Validate validates and parses the request.
func (r *StartRequest) Validate() error {
	for _, t := range r.Titles {
		if t < 1 || t > 50 {
			return dErrors.New(dErrors.CodeValidation, "titles must be between 1 and 50")
		}
	}

	r.parsedDates = r.parsedDates[:0]
	for _, d := range r.Dates {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "dates must be formatted YYYY-MM-DD")
		}
		r.parsedDates = append(r.parsedDates, parsed.UTC())
	}
	return nil
}

// ToRequest converts the validated body to a run request.
func (r *StartRequest) ToRequest(actor string) ingest.Request {
	return ingest.Request{
		Titles: r.Titles,
		Dates:  r.parsedDates,
		Force:  r.Force,
		Actor:  actor,
	}
}
