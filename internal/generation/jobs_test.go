package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vishalgoel2/telco-incident-analysis/internal/adapter/repo"
	"github.com/vishalgoel2/telco-incident-analysis/internal/domain"
	"github.com/vishalgoel2/telco-incident-analysis/internal/prompts"
	"github.com/vishalgoel2/telco-incident-analysis/internal/providers/llm"
)

const oneRecordPayload = `{"datasets":[{"issueDescription":"Double delivery","actionsTaken":["Checked courier log"],"resolution":"Return label sent","rca":"Retry job re-sent order"}]}`

type stubGenerator struct {
	calls   []llm.Request
	respond func(n int, req llm.Request) (json.RawMessage, error)
}

func (s *stubGenerator) Generate(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	s.calls = append(s.calls, req)
	return s.respond(len(s.calls), req)
}

func (s *stubGenerator) Provider() string { return "stub" }

func alwaysOK(int, llm.Request) (json.RawMessage, error) {
	return json.RawMessage(oneRecordPayload), nil
}

func mustPrompts(t *testing.T) *prompts.Catalog {
	t.Helper()
	c, err := prompts.Default()
	if err != nil {
		t.Fatalf("prompts: %v", err)
	}
	return c
}

func newStore(t *testing.T, n int) *repo.MemoryScenarioStore {
	t.Helper()
	store := repo.NewMemoryScenarioStore()
	texts := make([]string, n)
	for i := range texts {
		texts[i] = fmt.Sprintf("scenario %d", i+1)
	}
	if _, err := store.InsertScenarios(context.Background(), texts); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return store
}

func TestDatasetJobDrainsQueue(t *testing.T) {
	store := newStore(t, 3)
	gen := &stubGenerator{respond: alwaysOK}
	job := &DatasetJob{Store: store, Generator: gen, Prompts: mustPrompts(t), MaxRequests: 95, RecordsPerScenario: 20}

	sum, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 3 || sum.Generated != 3 || sum.Failed != 0 || sum.Stop != StopExhausted {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if sum.RunID == "" {
		t.Fatal("missing run id")
	}
	if gen.calls[0].User != "Scenario: scenario 1" {
		t.Fatalf("user prompt = %q", gen.calls[0].User)
	}
	if gen.calls[0].Schema != llm.DatasetListSchema() {
		t.Fatal("dataset schema not used")
	}
}

func TestDatasetJobDescendingOrder(t *testing.T) {
	store := newStore(t, 3)
	gen := &stubGenerator{respond: alwaysOK}
	job := &DatasetJob{Store: store, Generator: gen, Prompts: mustPrompts(t), Order: domain.ClaimDescending, MaxRequests: 95}

	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"Scenario: scenario 3", "Scenario: scenario 2", "Scenario: scenario 1"}
	for i, w := range want {
		if gen.calls[i].User != w {
			t.Fatalf("call %d user = %q, want %q", i, gen.calls[i].User, w)
		}
	}
}

func TestDatasetJobQuota(t *testing.T) {
	store := newStore(t, 5)
	gen := &stubGenerator{respond: alwaysOK}
	job := &DatasetJob{Store: store, Generator: gen, Prompts: mustPrompts(t), MaxRequests: 2}

	sum, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 2 || sum.Stop != StopQuota {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestDatasetJobFailuresCountAndStayPending(t *testing.T) {
	store := newStore(t, 3)
	gen := &stubGenerator{respond: func(n int, req llm.Request) (json.RawMessage, error) {
		if req.User == "Scenario: scenario 1" {
			return nil, &llm.TransportError{Provider: "stub", StatusCode: 500, Err: errors.New("upstream")}
		}
		return json.RawMessage(oneRecordPayload), nil
	}}
	job := &DatasetJob{Store: store, Generator: gen, Prompts: mustPrompts(t), MaxRequests: 5}

	sum, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 3 || sum.Failed != 1 || sum.Generated != 2 || sum.Stop != StopExhausted {
		t.Fatalf("unexpected summary %+v", sum)
	}
	want := []string{"Scenario: scenario 1", "Scenario: scenario 2", "Scenario: scenario 3"}
	if len(gen.calls) != len(want) {
		t.Fatalf("calls = %d, want %d", len(gen.calls), len(want))
	}
	for i, w := range want {
		if gen.calls[i].User != w {
			t.Fatalf("call %d user = %q, want %q", i, gen.calls[i].User, w)
		}
	}
	if snap := store.Snapshot(); snap[0].Generated || !snap[1].Generated || !snap[2].Generated {
		t.Fatal("only the failed scenario should remain pending")
	}
}

func TestDatasetJobUncappedRunEndsDespiteFailures(t *testing.T) {
	for _, order := range []domain.ClaimOrder{domain.ClaimAscending, domain.ClaimDescending} {
		store := newStore(t, 3)
		gen := &stubGenerator{respond: func(int, llm.Request) (json.RawMessage, error) {
			return nil, errors.New("model down")
		}}
		job := &DatasetJob{Store: store, Generator: gen, Prompts: mustPrompts(t), Order: order, MaxRequests: 0}

		sum, err := job.Run(context.Background())
		if err != nil {
			t.Fatalf("Run(%s): %v", order, err)
		}
		if sum.Processed != 3 || sum.Failed != 3 || sum.Stop != StopExhausted {
			t.Fatalf("Run(%s) summary %+v", order, sum)
		}
	}
}

func TestDatasetJobRateLimit(t *testing.T) {
	store := newStore(t, 12)
	clock := newFakeClock()
	gen := &stubGenerator{respond: alwaysOK}
	job := &DatasetJob{
		Store:       store,
		Generator:   gen,
		Prompts:     mustPrompts(t),
		MaxRequests: 95,
		Limiter:     NewFixedWindow(10, time.Minute, clock),
	}
	sum, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 12 {
		t.Fatalf("processed = %d", sum.Processed)
	}
	if len(clock.sleeps) != 1 || clock.sleeps[0] != time.Minute {
		t.Fatalf("sleeps = %v, want one full window", clock.sleeps)
	}
}

// clockedStore records the fake time of every claim.
type clockedStore struct {
	*repo.MemoryScenarioStore
	clock  *fakeClock
	claims []time.Time
}

func (c *clockedStore) ClaimNext(ctx context.Context, order domain.ClaimOrder, past int64) (*domain.Scenario, error) {
	c.claims = append(c.claims, c.clock.Now())
	return c.MemoryScenarioStore.ClaimNext(ctx, order, past)
}

func TestDatasetJobClaimsAfterWindowSleep(t *testing.T) {
	clock := newFakeClock()
	start := clock.Now()
	store := &clockedStore{MemoryScenarioStore: newStore(t, 2), clock: clock}
	job := &DatasetJob{
		Store:       store,
		Generator:   &stubGenerator{respond: alwaysOK},
		Prompts:     mustPrompts(t),
		MaxRequests: 95,
		Limiter:     NewFixedWindow(1, time.Minute, clock),
	}
	if _, err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(store.claims) < 2 {
		t.Fatalf("claims = %d, want at least 2", len(store.claims))
	}
	if got := store.claims[1].Sub(start); got < time.Minute {
		t.Fatalf("second claim at +%s, want after the window sleep", got)
	}
}

type failingStore struct {
	*repo.MemoryScenarioStore
	claimErr error
	markErr  error
}

func (f *failingStore) ClaimNext(ctx context.Context, order domain.ClaimOrder, past int64) (*domain.Scenario, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	return f.MemoryScenarioStore.ClaimNext(ctx, order, past)
}

func (f *failingStore) MarkGenerated(ctx context.Context, id int64, payload json.RawMessage) error {
	if f.markErr != nil {
		return f.markErr
	}
	return f.MemoryScenarioStore.MarkGenerated(ctx, id, payload)
}

func TestDatasetJobStoreErrorsAreFatal(t *testing.T) {
	claimFail := &failingStore{MemoryScenarioStore: newStore(t, 1), claimErr: fmt.Errorf("claim: %w", domain.ErrStoreUnavailable)}
	job := &DatasetJob{Store: claimFail, Generator: &stubGenerator{respond: alwaysOK}, Prompts: mustPrompts(t), MaxRequests: 95}
	if _, err := job.Run(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("claim failure err = %v", err)
	}

	markFail := &failingStore{MemoryScenarioStore: newStore(t, 1), markErr: fmt.Errorf("mark: %w", domain.ErrStoreUnavailable)}
	job = &DatasetJob{Store: markFail, Generator: &stubGenerator{respond: alwaysOK}, Prompts: mustPrompts(t), MaxRequests: 95}
	sum, err := job.Run(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("mark failure err = %v", err)
	}
	if sum.Processed != 1 {
		t.Fatalf("processed = %d", sum.Processed)
	}
}

func TestDatasetJobAlreadyGeneratedIsNotFatal(t *testing.T) {
	store := &failingStore{MemoryScenarioStore: newStore(t, 2), markErr: domain.ErrAlreadyGenerated}
	job := &DatasetJob{Store: store, Generator: &stubGenerator{respond: alwaysOK}, Prompts: mustPrompts(t), MaxRequests: 3}
	sum, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 2 || sum.Failed != 2 || sum.Stop != StopExhausted {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestDatasetJobCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := newStore(t, 5)
	gen := &stubGenerator{respond: func(n int, req llm.Request) (json.RawMessage, error) {
		if n == 2 {
			cancel()
			return nil, context.Canceled
		}
		return json.RawMessage(oneRecordPayload), nil
	}}
	job := &DatasetJob{Store: store, Generator: gen, Prompts: mustPrompts(t), MaxRequests: 95}
	sum, err := job.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if sum.Generated != 1 {
		t.Fatalf("generated = %d, want 1", sum.Generated)
	}
	snap := store.Snapshot()
	if !snap[0].Generated || snap[1].Generated {
		t.Fatal("progress before cancellation should be kept")
	}
}

func TestScenarioJob(t *testing.T) {
	store := repo.NewMemoryScenarioStore()
	gen := &stubGenerator{respond: func(int, llm.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"scenarios":["Portal outage","  ","Billing mismatch"]}`), nil
	}}
	job := &ScenarioJob{Store: store, Generator: gen, Prompts: mustPrompts(t), Count: 3}

	n, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 2 {
		t.Fatalf("inserted = %d, want 2", n)
	}
	if gen.calls[0].Schema != llm.ScenarioListSchema() {
		t.Fatal("scenario schema not used")
	}
	snap := store.Snapshot()
	if snap[0].Text != "Portal outage" || snap[1].Text != "Billing mismatch" || snap[0].Generated {
		t.Fatalf("unexpected scenarios %+v", snap)
	}
}

func TestScenarioJobFailureIsLoggedAndInsertsNothing(t *testing.T) {
	for name, respond := range map[string]func(int, llm.Request) (json.RawMessage, error){
		"schema mismatch": func(int, llm.Request) (json.RawMessage, error) {
			return nil, &llm.SchemaValidationError{Schema: "ScenarioList", Err: errors.New("bad")}
		},
		"transport": func(int, llm.Request) (json.RawMessage, error) {
			return nil, &llm.TransportError{Provider: "stub", StatusCode: 429, Err: errors.New("slow down")}
		},
		"empty result": func(int, llm.Request) (json.RawMessage, error) {
			return json.RawMessage(`{"scenarios":[]}`), nil
		},
	} {
		t.Run(name, func(t *testing.T) {
			store := repo.NewMemoryScenarioStore()
			var logs bytes.Buffer
			job := &ScenarioJob{
				Store:     store,
				Generator: &stubGenerator{respond: respond},
				Prompts:   mustPrompts(t),
				Count:     10,
				Logger:    zerolog.New(&logs),
			}
			n, err := job.Run(context.Background())
			if err != nil {
				t.Fatalf("Run returned %v, want the failure logged", err)
			}
			if n != 0 || len(store.Snapshot()) != 0 {
				t.Fatal("nothing should be inserted on failure")
			}
			if !strings.Contains(logs.String(), "generation failed") {
				t.Fatalf("failure not logged: %s", logs.String())
			}
		})
	}
}

func TestScenarioJobStoreErrorIsFatal(t *testing.T) {
	job := &ScenarioJob{
		Store:     &insertFailingStore{MemoryScenarioStore: repo.NewMemoryScenarioStore()},
		Generator: &stubGenerator{respond: func(int, llm.Request) (json.RawMessage, error) {
			return json.RawMessage(`{"scenarios":["Portal outage"]}`), nil
		}},
		Prompts: mustPrompts(t),
		Count:   1,
	}
	if _, err := job.Run(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

type insertFailingStore struct {
	*repo.MemoryScenarioStore
}

func (s *insertFailingStore) InsertScenarios(context.Context, []string) (int, error) {
	return 0, domain.ErrStoreUnavailable
}
