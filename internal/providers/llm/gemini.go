package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.0-flash"
)

// GeminiClient calls generateContent with a response schema derived from the
// request's JSON Schema.
type GeminiClient struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	client      *http.Client
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64        `json:"temperature,omitempty"`
	CandidateCount   int            `json:"candidateCount,omitempty"`
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func NewGemini(opts Options) (*GeminiClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{
		apiKey:      strings.TrimSpace(opts.APIKey),
		model:       model,
		baseURL:     baseURL,
		temperature: opts.Temperature,
		client:      httpClient(opts),
	}, nil
}

func (g *GeminiClient) Provider() string { return ProviderGemini }

func (g *GeminiClient) Generate(ctx context.Context, req Request) (json.RawMessage, error) {
	if req.Schema == nil {
		return nil, errMissingSchema
	}
	payload := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: req.User}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:      g.temperature,
			CandidateCount:   1,
			ResponseMimeType: "application/json",
			ResponseSchema:   geminiSchema(req.Schema.Doc),
		},
	}
	if strings.TrimSpace(req.System) != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}

	text, err := g.complete(ctx, payload)
	if err != nil {
		return nil, err
	}
	return validated(req.Schema, json.RawMessage(strings.TrimSpace(text)))
}

func (g *GeminiClient) complete(ctx context.Context, payload geminiRequest) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", g.transportErr(0, fmt.Errorf("encode request: %w", err))
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), &buf)
	if err != nil {
		return "", g.transportErr(0, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", g.transportErr(0, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", g.transportErr(resp.StatusCode, fmt.Errorf("gemini error: %s", errorSnippet(body)))
	}
	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", g.transportErr(resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return "", g.transportErr(resp.StatusCode, fmt.Errorf("prompt blocked: %s", out.PromptFeedback.BlockReason))
	}
	if len(out.Candidates) == 0 {
		return "", g.transportErr(resp.StatusCode, errors.New("no candidates"))
	}
	var sb strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func (g *GeminiClient) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, url.PathEscape(g.model))
}

func (g *GeminiClient) transportErr(status int, err error) error {
	return &TransportError{Provider: ProviderGemini, StatusCode: status, Err: err}
}

// geminiSchema converts a JSON Schema document into the OpenAPI subset that
// generateContent accepts. Unsupported keywords such as
// additionalProperties are dropped.
func geminiSchema(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := map[string]any{}
	if t, ok := doc["type"].(string); ok {
		out["type"] = strings.ToUpper(t)
	}
	for _, key := range []string{"description", "enum", "format", "nullable"} {
		if v, ok := doc[key]; ok {
			out[key] = v
		}
	}
	if req, ok := doc["required"]; ok {
		out["required"] = req
	}
	if props, ok := doc["properties"].(map[string]any); ok {
		converted := make(map[string]any, len(props))
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				converted[name] = geminiSchema(pm)
			}
		}
		out["properties"] = converted
		if req, ok := doc["required"].([]any); ok && len(req) > 0 {
			out["propertyOrdering"] = req
		}
	}
	if items, ok := doc["items"].(map[string]any); ok {
		out["items"] = geminiSchema(items)
	}
	return out
}

var _ Generator = (*GeminiClient)(nil)
