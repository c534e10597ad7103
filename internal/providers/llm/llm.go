// Package llm turns a prompt pair into a schema-conforming JSON document
// using one of a closed set of chat backends.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	ProviderOpenAI     = "openai"
	ProviderOpenAIJSON = "openai-json"
	ProviderGemini     = "gemini"
)

const defaultTimeout = 180 * time.Second

// Request is a single generation call.
type Request struct {
	System string
	User   string
	Schema *Schema
}

// Generator returns a JSON document that validates against req.Schema.
type Generator interface {
	Generate(ctx context.Context, req Request) (json.RawMessage, error)
	Provider() string
}

// Options configures a backend created by New.
type Options struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// New builds the backend named by opts.Provider.
func New(opts Options) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case ProviderOpenAI, "":
		return NewOpenAI(opts, false)
	case ProviderOpenAIJSON:
		return NewOpenAI(opts, true)
	case ProviderGemini:
		return NewGemini(opts)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", opts.Provider)
	}
}

// Decode runs g and unmarshals the validated document into T.
func Decode[T any](ctx context.Context, g Generator, req Request) (T, error) {
	var zero T
	raw, err := g.Generate(ctx, req)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		name := ""
		if req.Schema != nil {
			name = req.Schema.Name
		}
		return zero, &SchemaValidationError{Schema: name, Raw: string(raw), Err: err}
	}
	return out, nil
}

// SchemaValidationError means the model answered but the text was not a
// document matching the schema.
type SchemaValidationError struct {
	Schema string
	Raw    string
	Err    error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("llm response does not match %s: %v", e.Schema, e.Err)
}

func (e *SchemaValidationError) Unwrap() error { return e.Err }

// TransportError covers request, HTTP status and envelope decoding failures.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

var errMissingSchema = errors.New("request schema is required")

func httpClient(opts Options) *http.Client {
	if opts.HTTPClient != nil {
		return opts.HTTPClient
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// errorSnippet keeps provider error bodies short enough for a log line.
func errorSnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 512 {
		s = s[:512] + "..."
	}
	return s
}
