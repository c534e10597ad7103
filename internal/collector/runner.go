package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vishalgoel2/telco-incident-analysis/internal/domain"
	"github.com/vishalgoel2/telco-incident-analysis/internal/infra"
	"github.com/vishalgoel2/telco-incident-analysis/internal/storage"
	"github.com/vishalgoel2/telco-incident-analysis/pkg/zip"
)

const (
	DefaultTrainingKey = "dataset.json"
	DefaultIncidentKey = "init.sql"
	DefaultBundleKey   = "export.zip"
)

// Runner reads generated datasets from the store and writes an artifact to the sink.
type Runner struct {
	Store       domain.ScenarioStore
	Sink        storage.Sink
	Limit       int
	Instruction string
	Logger      infra.Logger
	// Now stamps bundle members; time.Now when nil.
	Now func() time.Time
}

func (r *Runner) load(ctx context.Context) ([]json.RawMessage, error) {
	payloads, err := r.Store.GeneratedDatasets(ctx, r.Limit)
	if err != nil {
		return nil, fmt.Errorf("load datasets: %w", err)
	}
	return payloads, nil
}

func (r *Runner) training(payloads []json.RawMessage) ([]byte, int, error) {
	examples, err := TrainingExamples(r.Instruction, payloads)
	if err != nil {
		return nil, 0, err
	}
	data, err := EncodeTrainingExamples(examples)
	if err != nil {
		return nil, 0, err
	}
	return data, len(examples), nil
}

func incidentSeed(payloads []json.RawMessage) ([]byte, int, error) {
	stmts, err := incidentStatements(payloads)
	if err != nil {
		return nil, 0, err
	}
	return []byte(strings.Join(stmts, "\n")), len(stmts), nil
}

// CollectTraining writes the training examples and returns the artifact
// location and the number of examples.
func (r *Runner) CollectTraining(ctx context.Context, key string) (string, int, error) {
	payloads, err := r.load(ctx)
	if err != nil {
		return "", 0, err
	}
	data, n, err := r.training(payloads)
	if err != nil {
		return "", 0, err
	}
	if key == "" {
		key = DefaultTrainingKey
	}
	loc, err := r.Sink.Write(ctx, key, data)
	if err != nil {
		return "", 0, fmt.Errorf("write training examples: %w", err)
	}
	r.Logger.Info().Int("datasets", len(payloads)).Int("examples", n).Str("location", loc).Msg("collect: training examples written")
	return loc, n, nil
}

// CollectIncidents writes the incident seed SQL and returns the artifact
// location and the number of statements.
func (r *Runner) CollectIncidents(ctx context.Context, key string) (string, int, error) {
	payloads, err := r.load(ctx)
	if err != nil {
		return "", 0, err
	}
	seed, n, err := incidentSeed(payloads)
	if err != nil {
		return "", 0, err
	}
	if key == "" {
		key = DefaultIncidentKey
	}
	loc, err := r.Sink.Write(ctx, key, seed)
	if err != nil {
		return "", 0, fmt.Errorf("write incident seed: %w", err)
	}
	r.Logger.Info().Int("datasets", len(payloads)).Int("statements", n).Str("location", loc).Msg("collect: incident seed written")
	return loc, n, nil
}

// CollectBundle writes both artifacts from a single read of the store into
// one zip, so the pair always agrees. The count is the number of datasets read.
func (r *Runner) CollectBundle(ctx context.Context, key string) (string, int, error) {
	payloads, err := r.load(ctx)
	if err != nil {
		return "", 0, err
	}
	training, _, err := r.training(payloads)
	if err != nil {
		return "", 0, err
	}
	seed, _, err := incidentSeed(payloads)
	if err != nil {
		return "", 0, err
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	stamp := now().UTC()
	archive, err := zip.Archive([]zip.File{
		{Name: DefaultTrainingKey, Data: training, Modified: stamp},
		{Name: DefaultIncidentKey, Data: seed, Modified: stamp},
	})
	if err != nil {
		return "", 0, err
	}
	if key == "" {
		key = DefaultBundleKey
	}
	loc, err := r.Sink.Write(ctx, key, archive)
	if err != nil {
		return "", 0, fmt.Errorf("write bundle: %w", err)
	}
	r.Logger.Info().Int("datasets", len(payloads)).Str("location", loc).Msg("collect: bundle written")
	return loc, len(payloads), nil
}
