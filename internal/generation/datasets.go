package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vishalgoel2/telco-incident-analysis/internal/domain"
	"github.com/vishalgoel2/telco-incident-analysis/internal/infra"
	"github.com/vishalgoel2/telco-incident-analysis/internal/prompts"
	"github.com/vishalgoel2/telco-incident-analysis/internal/providers/llm"
)

type StopReason string

const (
	StopExhausted StopReason = "exhausted"
	StopQuota     StopReason = "quota"
)

// Summary describes one dataset run.
type Summary struct {
	RunID     string
	Processed int
	Generated int
	Failed    int
	Stop      StopReason
}

// DatasetJob drains pending scenarios one at a time, generating a dataset for
// each. Every model call counts against MaxRequests and the limiter window,
// whether or not it succeeded. A failed scenario stays pending and is not
// claimed again by the same run.
type DatasetJob struct {
	Store              domain.ScenarioStore
	Generator          llm.Generator
	Prompts            *prompts.Catalog
	Order              domain.ClaimOrder
	MaxRequests        int
	RecordsPerScenario int
	Limiter            *FixedWindow
	Logger             infra.Logger
}

// Run returns an error only for store failures and cancellation. Progress
// already marked is kept either way.
func (j *DatasetJob) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	logger := j.Logger.With().Str("run_id", sum.RunID).Logger()

	system, err := j.Prompts.DatasetSystemPrompt(j.RecordsPerScenario)
	if err != nil {
		return sum, err
	}
	limiter := j.Limiter
	if limiter == nil {
		limiter = NewFixedWindow(0, 0, nil)
	}
	order := j.Order
	if order == "" {
		order = domain.ClaimAscending
	}

	logger.Info().
		Int("max_requests", j.MaxRequests).
		Str("order", string(order)).
		Str("provider", j.Generator.Provider()).
		Msg("datasets: run started")

	// Each scenario is attempted at most once per run; a failure stays
	// pending for the next run.
	var cursor int64
	for j.MaxRequests <= 0 || sum.Processed < j.MaxRequests {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		slept, err := limiter.Wait(ctx)
		if err != nil {
			return sum, err
		}
		if slept > 0 {
			logger.Info().Dur("sleep", slept).Int("processed", sum.Processed).Msg("datasets: window limit reached, slept")
		}

		sc, err := j.Store.ClaimNext(ctx, order, cursor)
		if errors.Is(err, domain.ErrQueueExhausted) {
			sum.Stop = StopExhausted
			logger.Info().Int("processed", sum.Processed).Int("generated", sum.Generated).Int("failed", sum.Failed).Msg("datasets: no scenarios left")
			return sum, nil
		}
		if err != nil {
			return sum, fmt.Errorf("claim scenario: %w", err)
		}
		cursor = sc.ID

		raw, err := j.Generator.Generate(ctx, llm.Request{
			System: system,
			User:   j.Prompts.DatasetUserPrompt(sc.Text),
			Schema: llm.DatasetListSchema(),
		})
		limiter.Record()
		sum.Processed++
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return sum, ctxErr
			}
			sum.Failed++
			logger.Error().Err(err).Int64("scenario_id", sc.ID).Int("processed", sum.Processed).Msg("datasets: generation failed")
			continue
		}

		if err := j.Store.MarkGenerated(ctx, sc.ID, raw); err != nil {
			if errors.Is(err, domain.ErrAlreadyGenerated) {
				sum.Failed++
				logger.Warn().Int64("scenario_id", sc.ID).Msg("datasets: scenario generated elsewhere, result discarded")
				continue
			}
			return sum, fmt.Errorf("mark scenario %d: %w", sc.ID, err)
		}
		sum.Generated++
		logger.Info().Int64("scenario_id", sc.ID).Int("processed", sum.Processed).Msg("datasets: scenario generated")
	}

	sum.Stop = StopQuota
	logger.Info().Int("processed", sum.Processed).Int("generated", sum.Generated).Int("failed", sum.Failed).Msg("datasets: request quota reached")
	return sum, nil
}
