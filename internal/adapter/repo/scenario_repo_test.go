package repo

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vishalgoel2/telco-incident-analysis/internal/domain"
	"github.com/vishalgoel2/telco-incident-analysis/internal/sqlinline"
)

type execCall struct {
	query string
	args  []any
}

type stubExecutor struct {
	tag       string
	queryArgs [][]any
	execErr  error
	row      stubRow
	rows     *stubRows
	queryErr error

	execs   []execCall
	queries []string
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execs = append(s.execs, execCall{query: query, args: args})
	if s.execErr != nil {
		return pgconn.CommandTag{}, s.execErr
	}
	return pgconn.NewCommandTag(s.tag), nil
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.queries = append(s.queries, query)
	s.queryArgs = append(s.queryArgs, args)
	return s.row
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	s.queries = append(s.queries, query)
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.rows, nil
}

type stubRow struct {
	values []any
	err    error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("dest count mismatch")
	}
	for i, d := range dest {
		switch ptr := d.(type) {
		case *int64:
			*ptr = r.values[i].(int64)
		case *string:
			*ptr = r.values[i].(string)
		case *bool:
			*ptr = r.values[i].(bool)
		default:
			return errors.New("unsupported dest")
		}
	}
	return nil
}

type stubRows struct {
	pgx.Rows
	data []string
	pos  int
	err  error
}

func (r *stubRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *stubRows) Scan(dest ...any) error {
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.data[r.pos-1]
	return nil
}

func (r *stubRows) Err() error { return r.err }
func (r *stubRows) Close()     {}

func TestInsertScenariosSingleStatement(t *testing.T) {
	exec := &stubExecutor{tag: "INSERT 0 3"}
	store := NewScenarioStore(exec)

	n, err := store.InsertScenarios(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("InsertScenarios error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
	if len(exec.execs) != 1 {
		t.Fatalf("expected one statement, got %d", len(exec.execs))
	}
	if exec.execs[0].query != sqlinline.QInsertScenarios {
		t.Fatalf("unexpected query %q", exec.execs[0].query)
	}
	texts, ok := exec.execs[0].args[0].([]string)
	if !ok || len(texts) != 3 {
		t.Fatalf("expected []string arg, got %T", exec.execs[0].args[0])
	}
}

func TestInsertScenariosRejectsBlank(t *testing.T) {
	exec := &stubExecutor{}
	store := NewScenarioStore(exec)
	if _, err := store.InsertScenarios(context.Background(), []string{"ok", ""}); !errors.Is(err, domain.ErrInvalidScenario) {
		t.Fatalf("expected ErrInvalidScenario, got %v", err)
	}
	if len(exec.execs) != 0 {
		t.Fatal("blank batch must not reach the database")
	}
}

func TestClaimNextUsesOrder(t *testing.T) {
	for order, want := range map[domain.ClaimOrder]string{
		domain.ClaimAscending:  sqlinline.QClaimScenarioAsc,
		domain.ClaimDescending: sqlinline.QClaimScenarioDesc,
	} {
		exec := &stubExecutor{row: stubRow{values: []any{int64(7), "fiber cut"}}}
		sc, err := NewScenarioStore(exec).ClaimNext(context.Background(), order, 4)
		if err != nil {
			t.Fatalf("ClaimNext(%s) error: %v", order, err)
		}
		if sc.ID != 7 || sc.Text != "fiber cut" {
			t.Fatalf("unexpected scenario %+v", sc)
		}
		if exec.queries[0] != want {
			t.Fatalf("ClaimNext(%s) used wrong query", order)
		}
		if len(exec.queryArgs[0]) != 1 || exec.queryArgs[0][0].(int64) != 4 {
			t.Fatalf("ClaimNext(%s) cursor args = %v", order, exec.queryArgs[0])
		}
	}
}

func TestClaimNextExhausted(t *testing.T) {
	exec := &stubExecutor{row: stubRow{err: pgx.ErrNoRows}}
	_, err := NewScenarioStore(exec).ClaimNext(context.Background(), domain.ClaimAscending, 0)
	if !errors.Is(err, domain.ErrQueueExhausted) {
		t.Fatalf("expected ErrQueueExhausted, got %v", err)
	}
}

func TestClaimNextStoreUnavailable(t *testing.T) {
	exec := &stubExecutor{row: stubRow{err: errors.New("connection refused")}}
	_, err := NewScenarioStore(exec).ClaimNext(context.Background(), domain.ClaimAscending, 0)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestMarkGenerated(t *testing.T) {
	exec := &stubExecutor{tag: "UPDATE 1"}
	payload := json.RawMessage(`{"datasets":[]}`)
	if err := NewScenarioStore(exec).MarkGenerated(context.Background(), 4, payload); err != nil {
		t.Fatalf("MarkGenerated error: %v", err)
	}
	args := exec.execs[0].args
	if args[0].(int64) != 4 || args[1].(string) != string(payload) {
		t.Fatalf("unexpected args %v", args)
	}
	if len(exec.queries) != 0 {
		t.Fatal("successful mark should not look the row up")
	}
}

func TestMarkGeneratedMissing(t *testing.T) {
	exec := &stubExecutor{tag: "UPDATE 0", row: stubRow{err: pgx.ErrNoRows}}
	err := NewScenarioStore(exec).MarkGenerated(context.Background(), 42, json.RawMessage(`{}`))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkGeneratedTwice(t *testing.T) {
	exec := &stubExecutor{tag: "UPDATE 0", row: stubRow{values: []any{true}}}
	err := NewScenarioStore(exec).MarkGenerated(context.Background(), 1, json.RawMessage(`{}`))
	if !errors.Is(err, domain.ErrAlreadyGenerated) {
		t.Fatalf("expected ErrAlreadyGenerated, got %v", err)
	}
}

func TestMarkGeneratedInvalidPayload(t *testing.T) {
	exec := &stubExecutor{tag: "UPDATE 1"}
	if err := NewScenarioStore(exec).MarkGenerated(context.Background(), 1, json.RawMessage(`{`)); err == nil {
		t.Fatal("expected error for invalid json")
	}
	if len(exec.execs) != 0 {
		t.Fatal("invalid payload must not reach the database")
	}
}

func TestGeneratedDatasets(t *testing.T) {
	exec := &stubExecutor{rows: &stubRows{data: []string{`{"datasets":[1]}`, `{"datasets":[2]}`}}}
	got, err := NewScenarioStore(exec).GeneratedDatasets(context.Background(), 10)
	if err != nil {
		t.Fatalf("GeneratedDatasets error: %v", err)
	}
	if len(got) != 2 || string(got[1]) != `{"datasets":[2]}` {
		t.Fatalf("unexpected datasets %s", got)
	}
}

func TestGeneratedDatasetsQueryError(t *testing.T) {
	exec := &stubExecutor{queryErr: errors.New("boom")}
	_, err := NewScenarioStore(exec).GeneratedDatasets(context.Background(), 10)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
