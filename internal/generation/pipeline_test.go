package generation

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/vishalgoel2/telco-incident-analysis/internal/collector"
	"github.com/vishalgoel2/telco-incident-analysis/internal/domain"
)

func TestPipelineEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, 3)
	catalog := mustPrompts(t)

	job := &DatasetJob{
		Store:       store,
		Generator:   &stubGenerator{respond: alwaysOK},
		Prompts:     catalog,
		Order:       domain.ClaimAscending,
		MaxRequests: 95,
	}
	sum, err := job.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 3 {
		t.Fatalf("processed = %d, want 3", sum.Processed)
	}
	for _, sc := range store.Snapshot() {
		if !sc.Generated {
			t.Fatalf("scenario %d not generated", sc.ID)
		}
	}

	payloads, err := store.GeneratedDatasets(ctx, 200)
	if err != nil {
		t.Fatalf("GeneratedDatasets: %v", err)
	}
	examples, err := collector.TrainingExamples(catalog.TrainingInstruction, payloads)
	if err != nil {
		t.Fatalf("TrainingExamples: %v", err)
	}
	if len(examples) != 3 {
		t.Fatalf("examples = %d, want 3", len(examples))
	}
	var completion map[string]string
	if err := json.Unmarshal([]byte(examples[0].Completion), &completion); err != nil {
		t.Fatalf("completion not json: %v", err)
	}
	if completion["rca"] != "Retry job re-sent order" {
		t.Fatalf("completion = %v", completion)
	}
}
