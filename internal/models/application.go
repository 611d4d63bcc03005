package models

import "time"

// Source identifies how an application record entered the tracker.
type Source string

const (
	SourceManual Source = "manual"
	SourceGmail  Source = "gmail"
)

// Application represents a tracked job application.
//
// Records created from a Gmail sync carry the originating message id in
// EmailID; that id is the de-duplication key, so a message that already
// produced a record never produces a second one. Confidence reflects how
// sure the extraction heuristics were and is informational only.
type Application struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	AppliedAt time.Time `json:"application_date"`
	Status    Status    `json:"status"`
	ResumeID  string    `json:"resume_id,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Source    Source    `json:"source,omitempty"`
	EmailID   string    `json:"email_id,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

// StatusColor returns the display color derived from the record's status.
// It is never stored independently.
func (a Application) StatusColor() string {
	return ClassifyStatus(string(a.Status)).Color
}

// FromGmail reports whether the record was imported by a Gmail sync.
func (a Application) FromGmail() bool {
	return a.Source == SourceGmail
}
