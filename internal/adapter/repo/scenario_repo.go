package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vishalgoel2/telco-incident-analysis/internal/domain"
	"github.com/vishalgoel2/telco-incident-analysis/internal/infra"
	"github.com/vishalgoel2/telco-incident-analysis/internal/sqlinline"
)

// ScenarioStorePG implements domain.ScenarioStore on PostgreSQL.
type ScenarioStorePG struct {
	sql infra.SQLExecutor
}

// NewScenarioStore creates a scenario store over the marker-checked SQL runner.
func NewScenarioStore(sql infra.SQLExecutor) *ScenarioStorePG {
	return &ScenarioStorePG{sql: sql}
}

// InsertScenarios writes the whole batch in a single statement.
func (s *ScenarioStorePG) InsertScenarios(ctx context.Context, texts []string) (int, error) {
	if err := validateScenarioTexts(texts); err != nil {
		return 0, err
	}
	if len(texts) == 0 {
		return 0, nil
	}
	tag, err := s.sql.Exec(ctx, sqlinline.QInsertScenarios, texts)
	if err != nil {
		return 0, unavailable("insert scenarios", err)
	}
	return int(tag.RowsAffected()), nil
}

// ClaimNext selects the next pending scenario past the cursor. The row is not
// locked.
func (s *ScenarioStorePG) ClaimNext(ctx context.Context, order domain.ClaimOrder, past int64) (*domain.Scenario, error) {
	query := sqlinline.QClaimScenarioAsc
	if order == domain.ClaimDescending {
		query = sqlinline.QClaimScenarioDesc
	}
	var sc domain.Scenario
	if err := s.sql.QueryRow(ctx, query, past).Scan(&sc.ID, &sc.Text); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrQueueExhausted
		}
		return nil, unavailable("claim scenario", err)
	}
	return &sc, nil
}

// MarkGenerated attaches the dataset payload. When no pending row matched it
// looks the id up again to tell ErrNotFound from ErrAlreadyGenerated.
func (s *ScenarioStorePG) MarkGenerated(ctx context.Context, id int64, payload json.RawMessage) error {
	if !json.Valid(payload) {
		return fmt.Errorf("mark scenario %d: payload is not valid json", id)
	}
	tag, err := s.sql.Exec(ctx, sqlinline.QMarkScenarioGenerated, id, string(payload))
	if err != nil {
		return unavailable("mark scenario generated", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var generated bool
	if err := s.sql.QueryRow(ctx, sqlinline.QScenarioExists, id).Scan(&generated); err != nil {
		if infra.IsNoRows(err) {
			return fmt.Errorf("mark scenario %d: %w", id, domain.ErrNotFound)
		}
		return unavailable("lookup scenario", err)
	}
	return fmt.Errorf("mark scenario %d: %w", id, domain.ErrAlreadyGenerated)
}

// GeneratedDatasets returns payloads in id order so exports are reproducible.
func (s *ScenarioStorePG) GeneratedDatasets(ctx context.Context, limit int) ([]json.RawMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.sql.Query(ctx, sqlinline.QSelectGeneratedDatasets, limit)
	if err != nil {
		return nil, unavailable("select datasets", err)
	}
	defer rows.Close()

	var out []json.RawMessage
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, unavailable("scan dataset", err)
		}
		out = append(out, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate datasets", err)
	}
	return out, nil
}

func validateScenarioTexts(texts []string) error {
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("scenario %d is blank: %w", i, domain.ErrInvalidScenario)
		}
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

var _ domain.ScenarioStore = (*ScenarioStorePG)(nil)
