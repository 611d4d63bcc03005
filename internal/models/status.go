package models

import "strings"

// Status is one of the five canonical application lifecycle states.
type Status string

const (
	StatusApplied    Status = "applied"
	StatusInterview  Status = "interview"
	StatusOffer      Status = "offer"
	StatusRejected   Status = "rejected"
	StatusNoResponse Status = "no_response"
)

// Statuses lists the canonical states in display order.
var Statuses = []Status{StatusApplied, StatusInterview, StatusOffer, StatusRejected, StatusNoResponse}

// StatusInfo is the display tuple for a status token.
type StatusInfo struct {
	Status Status `json:"status"`
	Color  string `json:"color"`
	Label  string `json:"label"`
}

var statusTable = map[Status]StatusInfo{
	StatusApplied:    {StatusApplied, "blue", "Applied"},
	StatusInterview:  {StatusInterview, "purple", "Interview"},
	StatusOffer:      {StatusOffer, "green", "Offer"},
	StatusRejected:   {StatusRejected, "red", "Rejected"},
	StatusNoResponse: {StatusNoResponse, "gray", "No Response"},
}

// ClassifyStatus maps a status token to its canonical status, display color
// and human label. Unrecognized tokens collapse to the no_response/gray
// fallback with the "Unknown" label; the function never fails.
func ClassifyStatus(token string) StatusInfo {
	s := Status(strings.ToLower(strings.TrimSpace(token)))
	if info, ok := statusTable[s]; ok {
		return info
	}
	return StatusInfo{Status: StatusNoResponse, Color: "gray", Label: "Unknown"}
}

// NormalizeStatus collapses a free-text status token to a canonical status.
func NormalizeStatus(token string) Status {
	return ClassifyStatus(token).Status
}
