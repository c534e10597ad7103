package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vishalgoel2/telco-incident-analysis/internal/domain"
	"github.com/vishalgoel2/telco-incident-analysis/internal/infra"
	"github.com/vishalgoel2/telco-incident-analysis/internal/prompts"
	"github.com/vishalgoel2/telco-incident-analysis/internal/providers/llm"
)

var errNoScenarios = errors.New("model returned no usable scenarios")

// ScenarioJob asks the model for a batch of scenario descriptions and stores
// them as pending. Nothing is stored unless generation succeeded.
type ScenarioJob struct {
	Store     domain.ScenarioStore
	Generator llm.Generator
	Prompts   *prompts.Catalog
	Count     int
	Logger    infra.Logger
}

// Run returns the number of scenarios stored. A failed or empty generation is
// logged and stores nothing; only bad input, store errors and cancellation
// are returned.
func (j *ScenarioJob) Run(ctx context.Context) (int, error) {
	if j.Count <= 0 {
		return 0, fmt.Errorf("scenario count must be positive, got %d", j.Count)
	}
	system, err := j.Prompts.ScenarioSystemPrompt(j.Count)
	if err != nil {
		return 0, err
	}
	j.Logger.Info().Int("count", j.Count).Str("provider", j.Generator.Provider()).Msg("scenarios: generating")

	list, err := llm.Decode[domain.ScenarioList](ctx, j.Generator, llm.Request{
		System: system,
		User:   j.Prompts.ScenarioUser,
		Schema: llm.ScenarioListSchema(),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		j.Logger.Error().Err(err).Msg("scenarios: generation failed, nothing stored")
		return 0, nil
	}

	texts := make([]string, 0, len(list.Scenarios))
	for i, s := range list.Scenarios {
		if strings.TrimSpace(s) == "" {
			j.Logger.Warn().Int("index", i).Msg("scenarios: dropping blank scenario")
			continue
		}
		texts = append(texts, s)
	}
	if len(texts) == 0 {
		j.Logger.Error().Err(errNoScenarios).Msg("scenarios: generation failed, nothing stored")
		return 0, nil
	}

	n, err := j.Store.InsertScenarios(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("store scenarios: %w", err)
	}
	j.Logger.Info().Int("inserted", n).Int("requested", j.Count).Msg("scenarios: stored")
	return n, nil
}
