package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/extvars/internal/host/memhost"
	"github.com/roach88/extvars/internal/workspace"
)

// Scenario is one scripted engine session.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Session prefixes the session tokens. Defaults to the scenario name.
	Session string `yaml:"session,omitempty"`

	// Capacity is the per-category limit. nil means the engine default.
	Capacity *int `yaml:"capacity,omitempty"`

	// Refresh disables the rename refresh hook when false.
	Refresh *bool `yaml:"refresh,omitempty"`

	// Workspace is the initial host state.
	Workspace workspace.Document `yaml:"workspace"`

	// Steps run in order against one engine.
	Steps []Step `yaml:"steps"`

	// Assertions are checked after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one engine call.
type Step struct {
	Op       string            `yaml:"op"`
	Category string            `yaml:"category,omitempty"`
	Name     string            `yaml:"name,omitempty"`
	ID       string            `yaml:"id,omitempty"`
	Records  []RecordSpec      `yaml:"records,omitempty"`
	Failures *memhost.Failures `yaml:"failures,omitempty"`
	Expect   *Expect           `yaml:"expect,omitempty"`
}

// RecordSpec is a variable record written inline in a scenario.
type RecordSpec struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

// Expect is checked against a step's outcome. Unset fields are not checked.
type Expect struct {
	// Error is the expected engine error code. Empty means success.
	Error string `yaml:"error,omitempty"`

	// AnyOutcome skips the outcome check for steps allowed to fail.
	AnyOutcome bool `yaml:"any_outcome,omitempty"`

	ID       string `yaml:"id,omitempty"`
	Name     string `yaml:"name,omitempty"`
	Category string `yaml:"category,omitempty"`
	Count    *int   `yaml:"count,omitempty"`
	Removed  *bool  `yaml:"removed,omitempty"`

	// Created, Adopted and Failed count report entries of reconciling steps.
	Created *int `yaml:"created,omitempty"`
	Adopted *int `yaml:"adopted,omitempty"`
	Failed  *int `yaml:"failed,omitempty"`
}

// Assertion validates the state after the last step.
type Assertion struct {
	Type string `yaml:"type"`

	// Record fields (shadow_contains, live_contains).
	ID       string `yaml:"id,omitempty"`
	Name     string `yaml:"name,omitempty"`
	Category string `yaml:"category,omitempty"`

	// Count (shadow_count, live_count, trace_count, journal_count).
	Count *int `yaml:"count,omitempty"`

	// Op (trace_count, journal_count) and Ops (trace_order).
	Op  string   `yaml:"op,omitempty"`
	Ops []string `yaml:"ops,omitempty"`

	// Table, Where and Expect (final_state).
	Table  string         `yaml:"table,omitempty"`
	Where  map[string]any `yaml:"where,omitempty"`
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Step operations.
const (
	OpAdd     = "add"
	OpRename  = "rename"
	OpRemove  = "remove"
	OpSync    = "sync"
	OpResync  = "resync"
	OpAdopt   = "adopt"
	OpUsage   = "usage"
	OpDetails = "details"
	OpMerge   = "merge"
	OpFail    = "fail"
	OpSave    = "save"
	OpReopen  = "reopen"
)

// Assertion types.
const (
	AssertShadowContains = "shadow_contains"
	AssertLiveContains   = "live_contains"
	AssertShadowCount    = "shadow_count"
	AssertLiveCount      = "live_count"
	AssertTraceOrder     = "trace_order"
	AssertTraceCount     = "trace_count"
	AssertJournalCount   = "journal_count"
	AssertReplayMatches  = "replay_matches"
	AssertFinalState     = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Capacity != nil && *s.Capacity < 0 {
		return fmt.Errorf("capacity must be non-negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	switch s.Op {
	case OpAdd:
		if s.Category == "" {
			return fmt.Errorf("steps[%d]: category is required for add", index)
		}
	case OpRename:
		if s.ID == "" {
			return fmt.Errorf("steps[%d]: id is required for rename", index)
		}
	case OpRemove, OpUsage, OpDetails:
		if s.ID == "" {
			return fmt.Errorf("steps[%d]: id is required for %s", index, s.Op)
		}
	case OpMerge:
		if len(s.Records) == 0 {
			return fmt.Errorf("steps[%d]: records are required for merge", index)
		}
	case OpFail:
		if s.Failures == nil {
			return fmt.Errorf("steps[%d]: failures are required for fail", index)
		}
	case OpSync, OpResync, OpAdopt, OpSave, OpReopen:
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}
	if s.Expect != nil && s.Expect.AnyOutcome && s.Expect.Error != "" {
		return fmt.Errorf("steps[%d]: error and any_outcome are mutually exclusive", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertShadowContains, AssertLiveContains:
		if a.ID == "" && a.Name == "" {
			return fmt.Errorf("assertions[%d]: id or name is required for %s", index, a.Type)
		}
	case AssertShadowCount, AssertLiveCount, AssertJournalCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for trace_count", index)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertReplayMatches:
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
