// Package collector flattens generated datasets into export artifacts. It
// only reads from the scenario store.
package collector

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vishalgoel2/telco-incident-analysis/internal/domain"
)

type promptContent struct {
	IssueDescription string   `json:"issueDescription"`
	ActionsTaken     []string `json:"actionsTaken"`
}

type completionContent struct {
	RCA        string `json:"rca"`
	Resolution string `json:"resolution"`
}

// TrainingExamples builds one example per record, in payload order. The
// prompt is instruction, a newline, then the issue and actions as compact
// JSON; the completion is the rca and resolution as compact JSON.
func TrainingExamples(instruction string, payloads []json.RawMessage) ([]domain.TrainingExample, error) {
	lists, err := decodePayloads(payloads)
	if err != nil {
		return nil, err
	}
	out := []domain.TrainingExample{}
	for _, list := range lists {
		for _, rec := range list.Datasets {
			actions := []string(rec.ActionsTaken)
			if actions == nil {
				actions = []string{}
			}
			prompt, err := compactJSON(promptContent{IssueDescription: rec.IssueDescription, ActionsTaken: actions})
			if err != nil {
				return nil, err
			}
			completion, err := compactJSON(completionContent{RCA: rec.RCA, Resolution: rec.Resolution})
			if err != nil {
				return nil, err
			}
			out = append(out, domain.TrainingExample{
				Prompt:     instruction + "\n" + prompt,
				Completion: completion,
			})
		}
	}
	return out, nil
}

// EncodeTrainingExamples renders the examples as a 4-space indented JSON array.
func EncodeTrainingExamples(examples []domain.TrainingExample) ([]byte, error) {
	if examples == nil {
		examples = []domain.TrainingExample{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(examples); err != nil {
		return nil, fmt.Errorf("encode training examples: %w", err)
	}
	return buf.Bytes(), nil
}

func compactJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func decodePayloads(payloads []json.RawMessage) ([]domain.DatasetList, error) {
	out := make([]domain.DatasetList, 0, len(payloads))
	for i, raw := range payloads {
		var list domain.DatasetList
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("dataset %d: %w", i, err)
		}
		out = append(out, list)
	}
	return out, nil
}
