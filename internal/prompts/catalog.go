// Package prompts holds the prompt texts used by the generation jobs and the
// training collector. Defaults are embedded; a YAML file may override any
// subset of them.
package prompts

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultCatalog []byte

// Catalog is the set of prompt texts. System prompts are text/template
// sources; the scenario prompt sees .Count and the dataset prompt .Records.
type Catalog struct {
	ScenarioSystem      string `yaml:"scenario_system"`
	ScenarioUser        string `yaml:"scenario_user"`
	DatasetSystem       string `yaml:"dataset_system"`
	DatasetUserPrefix   string `yaml:"dataset_user_prefix"`
	TrainingInstruction string `yaml:"training_instruction"`

	scenarioTmpl *template.Template
	datasetTmpl  *template.Template
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(defaultCatalog, &c); err != nil {
		return nil, fmt.Errorf("parse embedded prompts: %w", err)
	}
	if err := c.compile(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load returns the embedded catalog with every non-empty field from the file
// at path applied on top. An empty path yields the defaults.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	var c Catalog
	if err := yaml.Unmarshal(defaultCatalog, &c); err != nil {
		return nil, fmt.Errorf("parse embedded prompts: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}
	c.merge(override)
	if err := c.compile(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) merge(o Catalog) {
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	set(&c.ScenarioSystem, o.ScenarioSystem)
	set(&c.ScenarioUser, o.ScenarioUser)
	set(&c.DatasetSystem, o.DatasetSystem)
	set(&c.DatasetUserPrefix, o.DatasetUserPrefix)
	set(&c.TrainingInstruction, o.TrainingInstruction)
}

func (c *Catalog) compile() error {
	if strings.TrimSpace(c.ScenarioSystem) == "" || strings.TrimSpace(c.DatasetSystem) == "" {
		return errors.New("prompts: system prompts must not be empty")
	}
	var err error
	if c.scenarioTmpl, err = template.New("scenario_system").Option("missingkey=error").Parse(c.ScenarioSystem); err != nil {
		return fmt.Errorf("prompts: scenario_system: %w", err)
	}
	if c.datasetTmpl, err = template.New("dataset_system").Option("missingkey=error").Parse(c.DatasetSystem); err != nil {
		return fmt.Errorf("prompts: dataset_system: %w", err)
	}
	return nil
}

// ScenarioSystemPrompt renders the scenario generator instructions for count scenarios.
func (c *Catalog) ScenarioSystemPrompt(count int) (string, error) {
	var sb strings.Builder
	if err := c.scenarioTmpl.Execute(&sb, struct{ Count int }{count}); err != nil {
		return "", fmt.Errorf("render scenario prompt: %w", err)
	}
	return sb.String(), nil
}

// DatasetSystemPrompt renders the dataset generator instructions.
func (c *Catalog) DatasetSystemPrompt(records int) (string, error) {
	var sb strings.Builder
	if err := c.datasetTmpl.Execute(&sb, struct{ Records int }{records}); err != nil {
		return "", fmt.Errorf("render dataset prompt: %w", err)
	}
	return sb.String(), nil
}

func (c *Catalog) DatasetUserPrompt(scenario string) string {
	return c.DatasetUserPrefix + scenario
}
