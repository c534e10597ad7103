package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultOpenAIBaseURL = "https://models.inference.ai.azure.com"
	defaultOpenAIModel   = "gpt-4o"
)

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint.
// In JSON mode the model is only asked for a JSON object and the answer is
// passed through Normalize; otherwise the schema is sent as a strict
// json_schema response format.
type OpenAIClient struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	jsonMode    bool
	client      *http.Client
}

type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	ResponseFormat *openAIFormat   `json:"response_format,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIFormat struct {
	Type       string            `json:"type"`
	JSONSchema *openAIJSONSchema `json:"json_schema,omitempty"`
}

type openAIJSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
			Refusal string `json:"refusal"`
		} `json:"message"`
	} `json:"choices"`
}

func NewOpenAI(opts Options, jsonMode bool) (*OpenAIClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		apiKey:      strings.TrimSpace(opts.APIKey),
		model:       model,
		baseURL:     baseURL,
		temperature: opts.Temperature,
		jsonMode:    jsonMode,
		client:      httpClient(opts),
	}, nil
}

func (o *OpenAIClient) Provider() string {
	if o.jsonMode {
		return ProviderOpenAIJSON
	}
	return ProviderOpenAI
}

func (o *OpenAIClient) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Schema == nil {
		return nil, errMissingSchema
	}
	payload := openAIChatRequest{
		Model:       o.model,
		Temperature: o.temperature,
		Messages: []openAIMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
	}
	if o.jsonMode {
		payload.ResponseFormat = &openAIFormat{Type: "json_object"}
	} else {
		payload.ResponseFormat = &openAIFormat{
			Type: "json_schema",
			JSONSchema: &openAIJSONSchema{
				Name:   req.Schema.Name,
				Strict: true,
				Schema: req.Schema.Doc,
			},
		}
	}

	text, err := o.complete(ctx, payload)
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if o.jsonMode {
		raw = Normalize(text, req.Schema.WrapKey)
	} else {
		raw = json.RawMessage(strings.TrimSpace(text))
	}
	return validated(req.Schema, raw)
}

func (o *OpenAIClient) complete(ctx context.Context, payload openAIChatRequest) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", o.transportErr(0, fmt.Errorf("encode request: %w", err))
	}
	endpoint := fmt.Sprintf("%s/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", o.transportErr(0, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", o.transportErr(0, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", o.transportErr(resp.StatusCode, fmt.Errorf("openai error: %s", errorSnippet(body)))
	}
	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", o.transportErr(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 {
		return "", o.transportErr(resp.StatusCode, errors.New("no choices"))
	}
	msg := out.Choices[0].Message
	if msg.Refusal != "" {
		return "", o.transportErr(resp.StatusCode, fmt.Errorf("model refused: %s", msg.Refusal))
	}
	return msg.Content, nil
}

func (o *OpenAIClient) transportErr(status int, err error) error {
	return &TransportError{Provider: o.Provider(), StatusCode: status, Err: err}
}

// validated compacts raw and checks it against the schema.
func validated(schema *Schema, raw json.RawMessage) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, &SchemaValidationError{Schema: schema.Name, Raw: string(raw), Err: err}
	}
	out := json.RawMessage(buf.Bytes())
	if err := schema.Validate(out); err != nil {
		return nil, &SchemaValidationError{Schema: schema.Name, Raw: string(raw), Err: err}
	}
	return out, nil
}

var _ Generator = (*OpenAIClient)(nil)
