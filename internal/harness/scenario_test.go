package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_Full(t *testing.T) {
	yaml := `
name: full
description: "every field"
session: s
capacity: 4
refresh: false
workspace:
  variables:
    - {id: EV_0001, name: score, category: Global}
  blocks:
    - {id: get, type: get_variable, variable: EV_0001}
steps:
  - op: add
    category: Team
    name: red
    expect: {id: EV_0002, category: Team}
  - op: fail
    failures: {rename: true}
  - op: merge
    records:
      - {id: EV_0009, name: x, category: VO}
assertions:
  - type: trace_order
    ops: [add, fail]
  - type: final_state
    table: projects
    where: {key: full}
    expect: {variables: 3}
`
	s, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "full", s.Name)
	assert.Equal(t, "s", s.Session)
	require.NotNil(t, s.Capacity)
	assert.Equal(t, 4, *s.Capacity)
	require.NotNil(t, s.Refresh)
	assert.False(t, *s.Refresh)
	require.Len(t, s.Workspace.Variables, 1)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, "EV_0002", s.Steps[0].Expect.ID)
	assert.True(t, s.Steps[1].Failures.Rename)
	assert.Equal(t, "VO", s.Steps[2].Records[0].Category)
	assert.Equal(t, 3, s.Assertions[1].Expect["variables"])
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: d
steps:
  - op: add
    category: Global
    nmae: score
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "description: d\nsteps: [{op: sync}]", "name is required"},
		{"missing description", "name: n\nsteps: [{op: sync}]", "description is required"},
		{"no steps", "name: n\ndescription: d", "steps list is required"},
		{"negative capacity", "name: n\ndescription: d\ncapacity: -1\nsteps: [{op: sync}]", "capacity must be non-negative"},
		{"missing op", "name: n\ndescription: d\nsteps: [{name: x}]", "steps[0]: op is required"},
		{"unknown op", "name: n\ndescription: d\nsteps: [{op: explode}]", `unknown op "explode"`},
		{"add without category", "name: n\ndescription: d\nsteps: [{op: add, name: x}]", "category is required for add"},
		{"rename without id", "name: n\ndescription: d\nsteps: [{op: rename, name: x}]", "id is required for rename"},
		{"usage without id", "name: n\ndescription: d\nsteps: [{op: usage}]", "id is required for usage"},
		{"merge without records", "name: n\ndescription: d\nsteps: [{op: merge}]", "records are required for merge"},
		{"error with any_outcome", "name: n\ndescription: d\nsteps: [{op: sync, expect: {error: HOST_UNAVAILABLE, any_outcome: true}}]", "mutually exclusive"},
		{"fail without failures", "name: n\ndescription: d\nsteps: [{op: fail}]", "failures are required for fail"},
		{"assertion without type", "name: n\ndescription: d\nsteps: [{op: sync}]\nassertions: [{id: x}]", "type is required"},
		{"unknown assertion", "name: n\ndescription: d\nsteps: [{op: sync}]\nassertions: [{type: vibes}]", `unknown assertion type "vibes"`},
		{"contains without id or name", "name: n\ndescription: d\nsteps: [{op: sync}]\nassertions: [{type: shadow_contains}]", "id or name is required"},
		{"count without count", "name: n\ndescription: d\nsteps: [{op: sync}]\nassertions: [{type: live_count}]", "non-negative count is required"},
		{"trace_count without op", "name: n\ndescription: d\nsteps: [{op: sync}]\nassertions: [{type: trace_count, count: 1}]", "op is required for trace_count"},
		{"trace_order without ops", "name: n\ndescription: d\nsteps: [{op: sync}]\nassertions: [{type: trace_order}]", "ops list is required"},
		{"final_state without table", "name: n\ndescription: d\nsteps: [{op: sync}]\nassertions: [{type: final_state, expect: {a: 1}}]", "table is required"},
		{"final_state without expect", "name: n\ndescription: d\nsteps: [{op: sync}]\nassertions: [{type: final_state, table: journal}]", "expect is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: n\ndescription: d\nsteps: [{op: resync}]\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, OpResync, s.Steps[0].Op)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Testdata(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	for _, path := range files {
		s, err := LoadScenario(path)
		require.NoError(t, err, path)
		assert.Equal(t, filepath.Base(path), s.Name+".yaml", "scenario name matches file name")
	}
}
