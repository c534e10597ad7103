package domain

import (
	"bytes"
	"encoding/json"
)

// ClaimOrder selects which end of the pending queue ClaimNext reads from.
type ClaimOrder string

const (
	ClaimAscending  ClaimOrder = "asc"
	ClaimDescending ClaimOrder = "desc"
)

// ParseClaimOrder maps a config value to a ClaimOrder, defaulting to ascending.
func ParseClaimOrder(s string) ClaimOrder {
	if ClaimOrder(s) == ClaimDescending {
		return ClaimDescending
	}
	return ClaimAscending
}

// Scenario is a short incident narrative awaiting, or holding, its synthetic
// dataset. Dataset is non-nil exactly when Generated is true.
type Scenario struct {
	ID        int64
	Text      string
	Generated bool
	Dataset   json.RawMessage
}

// IncidentRecord is one synthetic incident expanded from a scenario.
type IncidentRecord struct {
	IssueDescription string    `json:"issueDescription"`
	ActionsTaken     ActionLog `json:"actionsTaken"`
	Resolution       string    `json:"resolution"`
	RCA              string    `json:"rca"`
}

// ActionLog is the chronological work log of an incident. Early payloads
// stored it as one string; those decode into a single entry.
type ActionLog []string

func (a *ActionLog) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*a = ActionLog{single}
		return nil
	}
	var entries []string
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return err
	}
	*a = entries
	return nil
}

// DatasetList is the serialized dataset payload attached to a generated scenario.
type DatasetList struct {
	Datasets []IncidentRecord `json:"datasets"`
}

// ScenarioList is the shape returned by the scenario generation call.
type ScenarioList struct {
	Scenarios []string `json:"scenarios"`
}

// TrainingExample is a prompt/completion pair derived from an IncidentRecord.
type TrainingExample struct {
	Prompt     string `json:"prompt"`
	Completion string `json:"completion"`
}
