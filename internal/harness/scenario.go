package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/efsmcheck/internal/compiler"
	"github.com/roach88/efsmcheck/internal/engine"
	"github.com/roach88/efsmcheck/internal/ir"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Model is the path of the model document. Relative paths are resolved
	// against the scenario file's directory by LoadScenario.
	Model string `yaml:"model,omitempty"`

	// Definition is an inline model document, used when Model is empty.
	Definition yaml.Node `yaml:"definition,omitempty"`

	// Limits overrides the default exploration limits. Zero fields keep
	// their defaults.
	Limits *engine.Limits `yaml:"limits,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// Assertion is one expectation about a run. Which fields apply depends on
// Type.
type Assertion struct {
	Type string `yaml:"type"`

	// State is the deadlocked state (deadlock, conditional_deadlock).
	State string `yaml:"state,omitempty"`

	// Variables is a subset of the deadlocked valuation (deadlock).
	Variables map[string]any `yaml:"variables,omitempty"`

	// Trace is the exact transition path to the deadlock (deadlock).
	Trace []string `yaml:"trace,omitempty"`

	// Inputs are the input events the state waits on (conditional_deadlock).
	Inputs []string `yaml:"inputs,omitempty"`

	// States are the states checked by reachable and unreachable.
	States []string `yaml:"states,omitempty"`

	// Code and Kind select diagnostics (diagnostic, no_diagnostic).
	Code string `yaml:"code,omitempty"`
	Kind string `yaml:"kind,omitempty"`

	// Count is the exact number of matching diagnostics. Nil means at
	// least one.
	Count *int `yaml:"count,omitempty"`

	// Status is the expected exploration status (status).
	Status string `yaml:"status,omitempty"`

	// Verified is the expected verdict (verified).
	Verified *bool `yaml:"verified,omitempty"`

	// Action, From, and Expect describe one action execution (action).
	// From overlays the model's initial valuation; Expect is a subset
	// match on the result.
	Action string         `yaml:"action,omitempty"`
	From   map[string]any `yaml:"from,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertDeadlock            = "deadlock"
	AssertConditionalDeadlock = "conditional_deadlock"
	AssertNoDeadlock          = "no_deadlock"
	AssertReachable           = "reachable"
	AssertUnreachable         = "unreachable"
	AssertDiagnostic          = "diagnostic"
	AssertNoDiagnostic        = "no_diagnostic"
	AssertStatus              = "status"
	AssertVerified            = "verified"
	AssertAction              = "action"
)

// ErrNoModel is returned when a scenario has neither a model path nor an
// inline definition.
var ErrNoModel = errors.New("scenario has no model")

// LoadScenario reads and parses a scenario YAML file. Unknown keys are
// rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Model != "" && !filepath.IsAbs(scenario.Model) {
		scenario.Model = filepath.Join(filepath.Dir(path), scenario.Model)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadModel compiles the scenario's model. An inline definition that
// names no model takes the scenario's name.
func (s *Scenario) LoadModel() (*ir.Model, error) {
	if s.Model != "" {
		return compiler.Load(s.Model)
	}
	if s.Definition.Kind == 0 {
		return nil, ErrNoModel
	}
	data, err := yaml.Marshal(&s.Definition)
	if err != nil {
		return nil, fmt.Errorf("encoding inline definition: %w", err)
	}
	return compiler.Parse(data, compiler.FormatYAML, s.Name)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	hasDefinition := s.Definition.Kind != 0
	switch {
	case s.Model == "" && !hasDefinition:
		return fmt.Errorf("one of model or definition is required")
	case s.Model != "" && hasDefinition:
		return fmt.Errorf("model and definition are mutually exclusive")
	}
	if s.Model != "" {
		if _, err := os.Stat(s.Model); os.IsNotExist(err) {
			return fmt.Errorf("model file not found: %s", s.Model)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertDeadlock, AssertConditionalDeadlock:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for %s", index, a.Type)
		}
	case AssertNoDeadlock:
	case AssertReachable, AssertUnreachable:
		if len(a.States) == 0 {
			return fmt.Errorf("assertions[%d]: states list is required for %s", index, a.Type)
		}
	case AssertDiagnostic, AssertNoDiagnostic:
		if a.Code == "" && a.Kind == "" {
			return fmt.Errorf("assertions[%d]: code or kind is required for %s", index, a.Type)
		}
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertStatus:
		switch engine.Status(a.Status) {
		case engine.StatusExhaustive, engine.StatusDepthLimited, engine.StatusNodeLimited,
			engine.StatusTimedOut, engine.StatusCancelled:
		default:
			return fmt.Errorf("assertions[%d]: unknown status %q", index, a.Status)
		}
	case AssertVerified:
		if a.Verified == nil {
			return fmt.Errorf("assertions[%d]: verified is required for verified", index)
		}
	case AssertAction:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for action", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for action", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
