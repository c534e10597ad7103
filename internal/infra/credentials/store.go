package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vishalgoel2/telco-incident-analysis/internal/infra"
	"github.com/vishalgoel2/telco-incident-analysis/internal/sqlinline"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ErrNoAPIKey is returned when no source holds a key for the provider.
var ErrNoAPIKey = errors.New("no api key configured")

// secretFiles lists the file names looked up under the secrets directory.
// copilot_api_key is the name older deployments used for the OpenAI key.
var secretFiles = map[string][]string{
	ProviderOpenAI: {"openai_api_key", "copilot_api_key"},
	ProviderGemini: {"gemini_api_key"},
}

// Store persists provider API keys in the integration_tokens table.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

func (s *Store) SetAPIKey(ctx context.Context, provider, key string) error {
	if _, ok := secretFiles[provider]; !ok {
		return fmt.Errorf("unknown provider %q", provider)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%s api key is required", provider)
	}
	return s.upsert(ctx, provider, key, map[string]any{"source": "cli"})
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}

// TokenSource is satisfied by Store.
type TokenSource interface {
	Token(ctx context.Context, provider string) (string, error)
}

// Resolver finds an API key by checking, in order, the explicit value from
// the environment, the secrets directory and the token table.
type Resolver struct {
	Env        map[string]string
	SecretsDir string
	Tokens     TokenSource
}

// APIKey returns the first non-empty key for provider.
func (r Resolver) APIKey(ctx context.Context, provider string) (string, error) {
	if key := strings.TrimSpace(r.Env[provider]); key != "" {
		return key, nil
	}
	if r.SecretsDir != "" {
		for _, name := range secretFiles[provider] {
			data, err := os.ReadFile(filepath.Join(r.SecretsDir, name))
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					continue
				}
				return "", fmt.Errorf("read %s: %w", name, err)
			}
			if key := strings.TrimSpace(string(data)); key != "" {
				return key, nil
			}
		}
	}
	if r.Tokens != nil {
		key, err := r.Tokens.Token(ctx, provider)
		if err != nil {
			return "", fmt.Errorf("load %s token: %w", provider, err)
		}
		if key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("%s: %w", provider, ErrNoAPIKey)
}
