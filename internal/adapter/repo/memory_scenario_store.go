package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/vishalgoel2/telco-incident-analysis/internal/domain"
)

// MemoryScenarioStore is an in-process domain.ScenarioStore. Ids start at 1
// and follow insertion order, mirroring the bigserial column.
type MemoryScenarioStore struct {
	mu        sync.Mutex
	nextID    int64
	scenarios []domain.Scenario
}

func NewMemoryScenarioStore() *MemoryScenarioStore {
	return &MemoryScenarioStore{nextID: 1}
}

func (m *MemoryScenarioStore) InsertScenarios(ctx context.Context, texts []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validateScenarioTexts(texts); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, text := range texts {
		m.scenarios = append(m.scenarios, domain.Scenario{ID: m.nextID, Text: text})
		m.nextID++
	}
	return len(texts), nil
}

func (m *MemoryScenarioStore) ClaimNext(ctx context.Context, order domain.ClaimOrder, past int64) (*domain.Scenario, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.scenarios)
	for i := 0; i < n; i++ {
		idx := i
		if order == domain.ClaimDescending {
			idx = n - 1 - i
		}
		sc := m.scenarios[idx]
		if sc.Generated || !beyond(order, sc.ID, past) {
			continue
		}
		return &sc, nil
	}
	return nil, domain.ErrQueueExhausted
}

func (m *MemoryScenarioStore) MarkGenerated(ctx context.Context, id int64, payload json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(payload) {
		return fmt.Errorf("mark scenario %d: payload is not valid json", id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.scenarios {
		if m.scenarios[i].ID != id {
			continue
		}
		if m.scenarios[i].Generated {
			return fmt.Errorf("mark scenario %d: %w", id, domain.ErrAlreadyGenerated)
		}
		m.scenarios[i].Generated = true
		m.scenarios[i].Dataset = append(json.RawMessage(nil), payload...)
		return nil
	}
	return fmt.Errorf("mark scenario %d: %w", id, domain.ErrNotFound)
}

func (m *MemoryScenarioStore) GeneratedDatasets(ctx context.Context, limit int) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []json.RawMessage
	for _, sc := range m.scenarios {
		if len(out) >= limit {
			break
		}
		if sc.Generated && sc.Dataset != nil {
			out = append(out, append(json.RawMessage(nil), sc.Dataset...))
		}
	}
	return out, nil
}

// beyond reports whether id lies strictly past the cursor in claim order.
func beyond(order domain.ClaimOrder, id, past int64) bool {
	if past == 0 {
		return true
	}
	if order == domain.ClaimDescending {
		return id < past
	}
	return id > past
}

// Snapshot returns a copy of every stored scenario in id order.
func (m *MemoryScenarioStore) Snapshot() []domain.Scenario {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Scenario, len(m.scenarios))
	copy(out, m.scenarios)
	return out
}

var _ domain.ScenarioStore = (*MemoryScenarioStore)(nil)
