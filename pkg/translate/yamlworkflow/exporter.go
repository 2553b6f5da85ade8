package yamlworkflow

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/errmap"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/patch"
)

// Serialize renders doc as YAML with two-space indentation. Mapping keys
// are emitted in sorted order.
func Serialize(doc mworkflow.Document) ([]byte, error) {
	if doc == nil {
		return nil, errmap.New(errmap.CodeInvalidArgument, "document is nil")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any(doc)); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to flush YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// UpdateStep merges fields into the first step named stepName and returns
// the result as a new document; doc itself is not modified. When no step
// matches the copy is returned unchanged. Flow documents are rejected.
func UpdateStep(doc mworkflow.Document, stepName string, fields map[string]any) (mworkflow.Document, error) {
	p := make(patch.StepPatch, len(fields))
	for k, v := range fields {
		p[k] = patch.NewOptional(v)
	}
	return UpdateStepPatch(doc, stepName, p)
}

// UpdateStepPatch is UpdateStep with sparse semantics: fields left unset in
// p are kept, explicitly unset fields are removed.
func UpdateStepPatch(doc mworkflow.Document, stepName string, p patch.StepPatch) (mworkflow.Document, error) {
	if doc.Kind() == mworkflow.KindFlow {
		return nil, errmap.New(errmap.CodeWrongKind, "step updates apply to module documents only").
			WithWorkflow(doc.Name())
	}

	out := doc.Clone()
	if out == nil {
		out = mworkflow.Document{}
	}
	for _, item := range asSequence(out["steps"]) {
		step, ok := asMapping(item)
		if !ok || asString(step["name"]) != stepName {
			continue
		}
		p.Apply(step)
		break
	}
	return out, nil
}
