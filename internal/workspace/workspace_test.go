package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/usage"
)

const sampleYAML = `
variables:
  - {id: EV_0001, name: score, category: Global}
  - {id: EV_0002, name: speed, category: Vehicle}
  - {id: EV_0003, name: loose}
blocks:
  - id: set-score
    type: SetVariable
    variable: EV_0001
    children: [holder]
    next: wait
  - {id: holder, type: Add, children: [get-score]}
  - {id: get-score, type: GetVariable, variable: EV_0001}
  - {id: wait, type: Wait}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ws.yaml", sampleYAML)

	doc, err := Load(path)
	require.NoError(t, err)
	require.Len(t, doc.Variables, 3)
	assert.Equal(t, "", doc.Variables[2].Category)
	require.Len(t, doc.Blocks, 4)
	assert.Equal(t, []string{"holder"}, doc.Blocks[0].Children)
	assert.Equal(t, "wait", doc.Blocks[0].Next)
}

func TestLoad_YAMLUnknownField(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ws.yaml", "variables: []\nextra: 1\n")

	_, err := Load(path)
	require.Error(t, err)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, path, le.Path)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ws.json", `{
	"variables": [{"id": "EV_0001", "name": "score", "category": "Global"}],
	"blocks": [{"id": "b", "type": "GetVariable", "variable": "EV_0001"}]
}`)

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "score", doc.Variables[0].Name)
	assert.Equal(t, "EV_0001", doc.Blocks[0].Variable)

	bad := writeFile(t, t.TempDir(), "bad.json", `{"variables": [], "bogus": true}`)
	_, err = Load(bad)
	assert.Error(t, err)
}

func TestLoad_CUE(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ws.cue", `
variables: [
	{id: "EV_0001", name: "score", category: "Global"},
]
blocks: [
	{id: "a", type: "SetVariable", variable: "EV_0001", children: ["b"]},
	{id: "b", type: "GetVariable", variable: "EV_0001"},
]
roots: ["a"]
`)

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, doc.Roots)
	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, []string{"b"}, doc.Blocks[0].Children)
}

func TestLoad_CUEDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ws.cue", `variables: [{id: "EV_0001", name: "x"}]`)

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, doc.Variables, 1)
	assert.Empty(t, doc.Blocks)
}

func TestLoad_CUESchemaViolation(t *testing.T) {
	dir := t.TempDir()

	unknown := writeFile(t, dir, "unknown.cue", `variables: [{id: "EV_0001", name: "x", colour: "red"}]`)
	_, err := Load(unknown)
	require.Error(t, err)

	emptyID := writeFile(t, dir, "empty.cue", `blocks: [{id: ""}]`)
	_, err = Load(emptyID)
	require.Error(t, err)

	var le *LoadError
	assert.ErrorAs(t, err, &le)
}

func TestLoad_Validation(t *testing.T) {
	dir := t.TempDir()

	dup := writeFile(t, dir, "dup.yaml", "blocks:\n  - {id: a}\n  - {id: a}\n")
	_, err := Load(dup)
	assert.ErrorContains(t, err, "duplicate block id")

	noID := writeFile(t, dir, "noid.yaml", "variables:\n  - {name: x}\n")
	_, err = Load(noID)
	assert.ErrorContains(t, err, "id is required")
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "ws.toml"))
	assert.ErrorContains(t, err, "unsupported workspace extension")
}

func TestLoad_EmptyDocument(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ws.yaml", "")

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, doc.Variables)
}

func TestBuild_GraphAndUsage(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML), FormatYAML, "sample")
	require.NoError(t, err)

	ws, err := Build(doc)
	require.NoError(t, err)

	vars := ws.Variables()
	require.Len(t, vars, 3)
	assert.Equal(t, ir.Category(""), vars[2].Category, "raw host tag is preserved")

	roots, err := ws.AllRootNodes()
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "set-score", roots[0].ID())

	assert.Equal(t, 1, usage.CountUsages(roots, "EV_0001"))
}

func TestBuild_UnknownReferences(t *testing.T) {
	_, err := Build(&Document{Blocks: []BlockDoc{{ID: "a", Children: []string{"ghost"}}}})
	assert.ErrorContains(t, err, `unknown child "ghost"`)

	_, err = Build(&Document{Blocks: []BlockDoc{{ID: "a", Next: "ghost"}}})
	assert.ErrorContains(t, err, `unknown next "ghost"`)

	_, err = Build(&Document{Roots: []string{"ghost"}})
	assert.ErrorContains(t, err, `unknown root "ghost"`)
}

func TestFromWorkspace_RoundTrip(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML), FormatYAML, "sample")
	require.NoError(t, err)
	ws, err := Build(doc)
	require.NoError(t, err)

	back := FromWorkspace(ws)
	assert.Equal(t, doc.Variables, back.Variables)
	assert.Equal(t, doc.Blocks, back.Blocks)
}

func TestSave_YAMLAndJSON(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML), FormatYAML, "sample")
	require.NoError(t, err)
	dir := t.TempDir()

	for _, name := range []string{"out.yaml", "out.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, doc))

		got, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, doc.Variables, got.Variables, name)
		assert.Equal(t, doc.Blocks, got.Blocks, name)
	}

	assert.Error(t, Save(filepath.Join(dir, "out.cue"), doc))
}

func TestGlob(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "")
	writeFile(t, dir, "nested/b.yaml", "")
	writeFile(t, dir, "nested/deeper/c.cue", "")
	writeFile(t, dir, "nested/notes.txt", "")

	all, err := Glob(dir, "**/*")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "nested/b.yaml"),
		filepath.Join(dir, "nested/deeper/c.cue"),
	}, all)

	nested, err := Glob(dir, "nested/**/*.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "nested/b.yaml")}, nested)

	_, err = Glob(dir, "[")
	assert.Error(t, err)
}
