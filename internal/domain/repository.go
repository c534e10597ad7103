package domain

import (
	"context"
	"encoding/json"
)

// ScenarioStore persists scenarios and their generated datasets.
type ScenarioStore interface {
	// InsertScenarios appends each text as a pending scenario. A blank text
	// rejects the whole batch.
	InsertScenarios(ctx context.Context, texts []string) (int, error)
	// ClaimNext returns the first pending scenario in the given order that lies
	// strictly past the cursor, without reserving it. A zero cursor starts at
	// the head of the queue. ErrQueueExhausted signals that none are left.
	ClaimNext(ctx context.Context, order ClaimOrder, past int64) (*Scenario, error)
	// MarkGenerated attaches the payload and flips generated to true. Returns
	// ErrNotFound for an unknown id and ErrAlreadyGenerated if the scenario
	// was generated in the meantime.
	MarkGenerated(ctx context.Context, id int64, payload json.RawMessage) error
	// GeneratedDatasets returns up to limit payloads ordered by scenario id.
	GeneratedDatasets(ctx context.Context, limit int) ([]json.RawMessage, error)
}

// IncidentRepository defines persistence for incidents served by the API.
type IncidentRepository interface {
	List(ctx context.Context) ([]Incident, error)
	Get(ctx context.Context, id int64) (*Incident, error)
	Create(ctx context.Context, description, actionsTaken string) (*Incident, error)
	Update(ctx context.Context, id int64, upd IncidentUpdate) (*Incident, error)
	Ping(ctx context.Context) error
}
