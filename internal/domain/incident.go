package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// IncidentStatus enumerates incident lifecycle states.
type IncidentStatus string

const (
	StatusOpen       IncidentStatus = "OPEN"
	StatusInProgress IncidentStatus = "IN_PROGRESS"
	StatusClosed     IncidentStatus = "CLOSED"
)

var upper = cases.Upper(language.Und)

// ParseIncidentStatus accepts any casing and surrounding whitespace
// ("closed", " In_Progress ").
func ParseIncidentStatus(s string) (IncidentStatus, error) {
	switch st := IncidentStatus(upper.String(strings.TrimSpace(s))); st {
	case StatusOpen, StatusInProgress, StatusClosed:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Incident is a record served by the incident API and seeded by the incident collector.
type Incident struct {
	ID           int64          `json:"id"`
	Description  string         `json:"description"`
	ActionsTaken string         `json:"actions_taken"`
	RCA          *string        `json:"rca"`
	Resolution   *string        `json:"resolution"`
	Status       IncidentStatus `json:"status"`
}

// IncidentUpdate carries the optional fields of a partial update.
type IncidentUpdate struct {
	RCA        *string
	Resolution *string
	Status     *IncidentStatus
}
