package yamlworkflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/errmap"
)

func codes(diags []Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func TestLint_Clean(t *testing.T) {
	doc := mustDecode(t, moduleYAML)
	assert.Empty(t, Lint(doc))
	require.NoError(t, Validate(doc))
}

func TestLint_Names(t *testing.T) {
	doc := mustDecode(t, `
name: m
steps:
  - name: a
    type: bash
  - name: a
    type: bash
  - name: _start
    type: bash
  - type: bash
`)
	diags := Lint(doc)
	assert.Equal(t, []string{DiagDuplicateName, DiagReservedName, DiagUnnamed}, codes(diags))
	assert.True(t, HasErrors(diags))
	assert.Equal(t, "_unnamed_3", diags[2].Unit)

	err := Validate(doc)
	require.Error(t, err)
	assert.Equal(t, errmap.CodeDuplicateName, errmap.CodeOf(err))
	assert.Contains(t, err.Error(), `step name "a" is declared more than once`)
}

func TestLint_References(t *testing.T) {
	doc := mustDecode(t, `
steps:
  - name: a
    type: nmap
    depends_on: [ghost]
    decision:
      - condition: "{{ open_ports }} > 0"
        next: b
      - condition: "x =="
        next: phantom
  - name: b
    type: bash
  - name: c
    type: bash
`)
	diags := Lint(doc)
	assert.Equal(t, []string{
		DiagUnknownStepType,
		DiagUnknownReference,
		DiagUnknownReference,
		DiagInvalidCondition,
		DiagImplicitStart,
	}, codes(diags))
	assert.False(t, HasErrors(diags))
	assert.NoError(t, Validate(doc))
	assert.Equal(t, SeverityInfo, diags[4].Severity)
	assert.Equal(t, "c", diags[4].Unit)
	assert.Equal(t, `warning: a: unknown step type "nmap"`, diags[0].String())
}

func TestLint_DeclarationOrderIgnoresDependsOnCheck(t *testing.T) {
	doc := mustDecode(t, "steps:\n  - name: a\n    type: bash\n  - name: b\n    type: bash\n")
	assert.Empty(t, Lint(doc))
}

func TestLint_Flow(t *testing.T) {
	doc := mustDecode(t, `
kind: flow
modules:
  - name: recon
  - name: recon
  - name: report
    depends_on: [recon, notify]
`)
	diags := Lint(doc)
	assert.Equal(t, []string{DiagDuplicateName, DiagUnknownReference}, codes(diags))
	assert.Contains(t, diags[1].Message, `unknown module "notify"`)
}
