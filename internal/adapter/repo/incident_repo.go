package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vishalgoel2/telco-incident-analysis/internal/domain"
	"github.com/vishalgoel2/telco-incident-analysis/internal/sqlinline"
)

// IncidentRepositoryPG implements domain.IncidentRepository over database/sql.
type IncidentRepositoryPG struct {
	db *sql.DB
}

func NewIncidentRepository(db *sql.DB) *IncidentRepositoryPG {
	return &IncidentRepositoryPG{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*domain.Incident, error) {
	var (
		inc        domain.Incident
		rca        sql.NullString
		resolution sql.NullString
		status     string
	)
	if err := row.Scan(&inc.ID, &inc.Description, &inc.ActionsTaken, &rca, &resolution, &status); err != nil {
		return nil, err
	}
	if rca.Valid {
		inc.RCA = &rca.String
	}
	if resolution.Valid {
		inc.Resolution = &resolution.String
	}
	inc.Status = domain.IncidentStatus(status)
	return &inc, nil
}

func (r *IncidentRepositoryPG) List(ctx context.Context) ([]domain.Incident, error) {
	rows, err := r.db.QueryContext(ctx, sqlinline.QListIncidents)
	if err != nil {
		return nil, unavailable("list incidents", err)
	}
	defer rows.Close()

	out := []domain.Incident{}
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, unavailable("scan incident", err)
		}
		out = append(out, *inc)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate incidents", err)
	}
	return out, nil
}

func (r *IncidentRepositoryPG) Get(ctx context.Context, id int64) (*domain.Incident, error) {
	inc, err := scanIncident(r.db.QueryRowContext(ctx, sqlinline.QGetIncident, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("incident %d: %w", id, domain.ErrNotFound)
		}
		return nil, unavailable("get incident", err)
	}
	return inc, nil
}

// Create always stores the incident as OPEN.
func (r *IncidentRepositoryPG) Create(ctx context.Context, description, actionsTaken string) (*domain.Incident, error) {
	inc, err := scanIncident(r.db.QueryRowContext(ctx, sqlinline.QInsertIncident, description, actionsTaken))
	if err != nil {
		return nil, unavailable("create incident", err)
	}
	return inc, nil
}

func (r *IncidentRepositoryPG) Update(ctx context.Context, id int64, upd domain.IncidentUpdate) (*domain.Incident, error) {
	var status sql.NullString
	if upd.Status != nil {
		status = sql.NullString{String: string(*upd.Status), Valid: true}
	}
	inc, err := scanIncident(r.db.QueryRowContext(ctx, sqlinline.QUpdateIncident,
		id, nullString(upd.RCA), nullString(upd.Resolution), status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("incident %d: %w", id, domain.ErrNotFound)
		}
		return nil, unavailable("update incident", err)
	}
	return inc, nil
}

func (r *IncidentRepositoryPG) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var _ domain.IncidentRepository = (*IncidentRepositoryPG)(nil)
