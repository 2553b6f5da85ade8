package yamlworkflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/errmap"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/patch"
)

const moduleYAML = `
name: recon
kind: module
steps:
  - name: subdomains
    type: bash
    command: subfinder -d {{ target }}
    timeout: 60
  - name: probe
    type: http
    depends_on: [subdomains]
`

func mustDecode(t *testing.T, text string) mworkflow.Document {
	t.Helper()
	doc, err := DecodeDocument([]byte(text))
	require.NoError(t, err)
	return doc
}

func TestUpdateStep(t *testing.T) {
	doc := mustDecode(t, moduleYAML)

	updated, err := UpdateStep(doc, "subdomains", map[string]any{
		"command": "amass enum -d {{ target }}",
		"retries": 2,
	})
	require.NoError(t, err)

	steps := updated["steps"].([]any)
	first := steps[0].(map[string]any)
	assert.Equal(t, "amass enum -d {{ target }}", first["command"])
	assert.Equal(t, 2, first["retries"])
	assert.Equal(t, 60, first["timeout"])
	assert.Equal(t, "bash", first["type"])

	// the input document is untouched
	orig := doc["steps"].([]any)[0].(map[string]any)
	assert.Equal(t, "subfinder -d {{ target }}", orig["command"])
	assert.NotContains(t, orig, "retries")
}

func TestUpdateStep_NoMatch(t *testing.T) {
	doc := mustDecode(t, moduleYAML)
	updated, err := UpdateStep(doc, "missing", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, doc, updated)

	// a new value, not the same map
	updated["name"] = "changed"
	assert.Equal(t, "recon", doc.Name())
}

func TestUpdateStep_FirstMatchOnly(t *testing.T) {
	doc := mustDecode(t, "steps:\n  - name: a\n    n: 1\n  - name: a\n    n: 2\n")
	updated, err := UpdateStep(doc, "a", map[string]any{"n": 9})
	require.NoError(t, err)
	steps := updated["steps"].([]any)
	assert.Equal(t, 9, steps[0].(map[string]any)["n"])
	assert.Equal(t, 2, steps[1].(map[string]any)["n"])
}

func TestUpdateStep_FlowRejected(t *testing.T) {
	doc := mustDecode(t, "name: f\nkind: flow\nmodules:\n  - name: a\n")
	_, err := UpdateStep(doc, "a", map[string]any{"x": 1})
	require.Error(t, err)
	assert.Equal(t, errmap.CodeWrongKind, errmap.CodeOf(err))
	assert.Contains(t, err.Error(), `workflow "f"`)
}

func TestUpdateStepPatch_Unset(t *testing.T) {
	doc := mustDecode(t, moduleYAML)
	updated, err := UpdateStepPatch(doc, "subdomains", patch.StepPatch{
		"timeout": patch.Unset[any](),
		"command": patch.NotSet[any](),
	})
	require.NoError(t, err)
	first := updated["steps"].([]any)[0].(map[string]any)
	assert.NotContains(t, first, "timeout")
	assert.Equal(t, "subfinder -d {{ target }}", first["command"])
}

func TestSerialize(t *testing.T) {
	doc := mworkflow.Document{
		"name": "t",
		"kind": "module",
		"steps": []any{
			map[string]any{"name": "s1", "type": "bash"},
		},
	}
	out, err := Serialize(doc)
	require.NoError(t, err)
	assert.Equal(t, "kind: module\nname: t\nsteps:\n  - name: s1\n    type: bash\n", string(out))

	_, err = Serialize(nil)
	assert.Equal(t, errmap.CodeInvalidArgument, errmap.CodeOf(err))
}

func TestSerialize_RoundTripAfterUpdate(t *testing.T) {
	doc := mustDecode(t, moduleYAML)
	updated, err := UpdateStep(doc, "probe", map[string]any{
		"headers": map[string]any{"User-Agent": "scanflow"},
		"ports":   []any{80, 443},
	})
	require.NoError(t, err)

	text, err := Serialize(updated)
	require.NoError(t, err)
	g, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, updated, g.Raw)
}

func TestApplyStepEdit(t *testing.T) {
	text, g, err := ApplyStepEdit([]byte(moduleYAML), "probe", map[string]any{
		"depends_on": []any{},
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(text), "depends_on: []"))

	// probe lost its dependency, so the document falls back to declaration order
	assert.Equal(t, []string{"_start->subdomains", "subdomains->probe", "probe->_end"}, g.EdgeIDs())

	_, _, err = ApplyStepEdit([]byte("- not a mapping"), "probe", nil)
	assert.Equal(t, errmap.CodeNotObject, errmap.CodeOf(err))

	_, _, err = ApplyStepEdit([]byte("kind: flow\n"), "probe", nil)
	assert.Equal(t, errmap.CodeWrongKind, errmap.CodeOf(err))
}
