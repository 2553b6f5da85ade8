// Package yamlworkflow compiles module and flow workflow documents into
// graphs of nodes and edges, and carries partial step edits back to text.
package yamlworkflow

import (
	"fmt"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
)

// Parse decodes workflow text and compiles it into a graph. Only malformed
// text or a root that is not a mapping fails; any decodable document yields
// a graph.
func Parse(data []byte) (*mworkflow.Graph, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	return ParseDocument(doc), nil
}

// ParseDocument compiles an already decoded document.
func ParseDocument(doc mworkflow.Document) *mworkflow.Graph {
	if doc == nil {
		doc = mworkflow.Document{}
	}
	kind := doc.Kind()

	var units []unit
	if kind == mworkflow.KindFlow {
		units = moduleUnits(GetFlowModules(doc, ""))
	} else {
		units = stepUnits(decodeSteps(doc))
	}
	return build(doc, kind, units)
}

// DecodeDocument exposes the document decoder for callers that edit a
// document before compiling it.
func DecodeDocument(data []byte) (mworkflow.Document, error) {
	return decodeDocument(data)
}

// ModeOf reports the wiring mode Parse would pick for doc.
func ModeOf(doc mworkflow.Document) WiringMode {
	kind := doc.Kind()
	if kind == mworkflow.KindFlow {
		return ExplicitDependencies
	}
	return wiringModeFor(kind, stepUnits(decodeSteps(doc)))
}

// ApplyStepEdit runs one editor round trip: decode text, merge fields into
// the named step, serialize, and compile the result again so the returned
// text and graph never diverge.
func ApplyStepEdit(data []byte, stepName string, fields map[string]any) ([]byte, *mworkflow.Graph, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, nil, err
	}
	updated, err := UpdateStep(doc, stepName, fields)
	if err != nil {
		return nil, nil, err
	}
	out, err := Serialize(updated)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize workflow: %w", err)
	}
	graph, err := Parse(out)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to re-parse workflow: %w", err)
	}
	return out, graph, nil
}
