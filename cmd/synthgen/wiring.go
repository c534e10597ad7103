package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/vishalgoel2/telco-incident-analysis/internal/infra"
	"github.com/vishalgoel2/telco-incident-analysis/internal/infra/credentials"
	"github.com/vishalgoel2/telco-incident-analysis/internal/prompts"
	"github.com/vishalgoel2/telco-incident-analysis/internal/providers/llm"
	"github.com/vishalgoel2/telco-incident-analysis/internal/storage"
)

// runtime is the per-invocation container: config, logger and the pgx pool
// wrapped in the marker-checked SQL runner.
type runtime struct {
	cfg    *infra.Config
	logger infra.Logger
	pool   *pgxpool.Pool
	sql    *infra.SQLRunner
}

func loadConfig(opts *rootOptions) (*infra.Config, error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, err
	}
	if opts.provider != "" {
		cfg.LLMProvider = opts.provider
	}
	return cfg, nil
}

func newCLILogger(opts *rootOptions) infra.Logger {
	logger := infra.NewLogger("cli")
	if opts.debug {
		logger = logger.Level(zerolog.DebugLevel)
	}
	return logger
}

func openRuntime(ctx context.Context, opts *rootOptions) (*runtime, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newCLILogger(opts)
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &runtime{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		sql:    infra.NewSQLRunner(pool, logger),
	}, nil
}

func (r *runtime) Close() {
	r.pool.Close()
}

// keyProvider maps an LLM backend to the credential it authenticates with.
func keyProvider(backend string) string {
	if backend == llm.ProviderGemini {
		return credentials.ProviderGemini
	}
	return credentials.ProviderOpenAI
}

func (r *runtime) generator(ctx context.Context) (llm.Generator, error) {
	cfg := r.cfg
	resolver := credentials.Resolver{
		Env: map[string]string{
			credentials.ProviderOpenAI: cfg.OpenAIAPIKey,
			credentials.ProviderGemini: cfg.GeminiAPIKey,
		},
		SecretsDir: cfg.SecretsDir,
		Tokens:     credentials.NewStore(r.sql),
	}
	key, err := resolver.APIKey(ctx, keyProvider(cfg.LLMProvider))
	if err != nil {
		return nil, err
	}

	opts := llm.Options{
		Provider:    cfg.LLMProvider,
		APIKey:      key,
		Model:       cfg.OpenAIModel,
		BaseURL:     cfg.OpenAIBaseURL,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	}
	if cfg.LLMProvider == llm.ProviderGemini {
		opts.Model = cfg.GeminiModel
		opts.BaseURL = cfg.GeminiBaseURL
	}
	return llm.New(opts)
}

func (r *runtime) prompts() (*prompts.Catalog, error) {
	catalog, err := prompts.Load(r.cfg.PromptsFile)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	return catalog, nil
}

// sink picks the export target. exportDir overrides EXPORT_DIR and forces the
// local filesystem.
func (r *runtime) sink(ctx context.Context, exportDir string) (storage.Sink, error) {
	if exportDir == "" && r.cfg.ObjectStoreEnabled() {
		store, err := storage.NewObjectStore(storage.ObjectStoreOptions{
			Endpoint:  r.cfg.S3Endpoint,
			AccessKey: r.cfg.S3AccessKey,
			SecretKey: r.cfg.S3SecretKey,
			Bucket:    r.cfg.S3Bucket,
			Region:    r.cfg.S3Region,
			UseSSL:    r.cfg.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	if exportDir == "" {
		exportDir = r.cfg.ExportDir
	}
	return storage.NewFileStore(exportDir)
}
