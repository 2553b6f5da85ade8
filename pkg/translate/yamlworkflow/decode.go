package yamlworkflow

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/errmap"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
)

// decodeDocument deserializes workflow text. A syntax error or a root that
// is not a mapping is the only hard failure; everything below the root is
// coerced later by the typed decoders.
func decodeDocument(data []byte) (mworkflow.Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errmap.Wrap(errmap.CodeDecode, "failed to unmarshal YAML", err)
	}
	if len(bytes.TrimSpace(data)) == 0 || len(root.Content) == 0 {
		return nil, errmap.New(errmap.CodeNotObject, "document is empty")
	}
	if root.Content[0].Kind != yaml.MappingNode {
		return nil, errmap.New(errmap.CodeNotObject, fmt.Sprintf("document root must be a mapping, got %s", nodeKindName(root.Content[0].Kind)))
	}

	var raw map[string]any
	if err := root.Content[0].Decode(&raw); err != nil {
		return nil, errmap.Wrap(errmap.CodeDecode, "failed to decode document", err)
	}
	return mworkflow.Document(normalizeMap(raw)), nil
}

func nodeKindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}

// normalizeMap rewrites nested mappings so every mapping is map[string]any.
// Non-string keys are formatted with fmt.Sprint.
func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeMap(t)
	case mworkflow.Document:
		return normalizeMap(t)
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalizeValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

// The helpers below implement the permissive field contract: a field of the
// wrong shape reads as absent.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asMapping(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case mworkflow.Document:
		return t, true
	}
	return nil, false
}

func asSequence(v any) []any {
	s, _ := v.([]any)
	return s
}

// asStringList keeps the non-empty string items of a sequence.
func asStringList(v any) []string {
	var out []string
	for _, item := range asSequence(v) {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func asBoolPtr(v any) *bool {
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

func decodeSteps(doc mworkflow.Document) []mworkflow.Step {
	var steps []mworkflow.Step
	for _, item := range asSequence(doc["steps"]) {
		m, ok := asMapping(item)
		if !ok {
			continue
		}
		steps = append(steps, decodeStep(m))
	}
	return steps
}

func decodeStep(m map[string]any) mworkflow.Step {
	return mworkflow.Step{
		Name:      asString(m["name"]),
		Type:      mworkflow.StepType(asString(m["type"])),
		DependsOn: asStringList(m["depends_on"]),
		Decision:  decodeDecision(m["decision"]),
		Raw:       m,
	}
}

func decodeModules(v any) []mworkflow.FlowModule {
	var modules []mworkflow.FlowModule
	for _, item := range asSequence(v) {
		m, ok := asMapping(item)
		if !ok {
			continue
		}
		params, _ := asMapping(m["params"])
		modules = append(modules, mworkflow.FlowModule{
			Name:      asString(m["name"]),
			Path:      asString(m["path"]),
			Extends:   asString(m["extends"]),
			DependsOn: asStringList(m["depends_on"]),
			Condition: asString(m["condition"]),
			Params:    params,
			Decision:  decodeDecision(m["decision"]),
			Raw:       m,
		})
	}
	return modules
}

// decodeDecision reads either decision form. A sequence is a rule list. A
// mapping with a `switch` key whose `cases` is a mapping or absent is a
// switch. Any other shape, including a sequence under `cases`, is no
// decision.
func decodeDecision(v any) mworkflow.Decision {
	if rules, ok := v.([]any); ok {
		return decodeRules(rules)
	}
	m, ok := asMapping(v)
	if !ok {
		return nil
	}
	if _, hasSwitch := m["switch"]; !hasSwitch {
		return nil
	}

	switch cases := m["cases"].(type) {
	case map[string]any:
		return decodeSwitch(m, cases)
	case nil:
		return decodeSwitch(m, nil)
	}
	return nil
}

func decodeRules(items []any) mworkflow.RuleDecision {
	d := mworkflow.RuleDecision{}
	for _, item := range items {
		m, ok := asMapping(item)
		if !ok {
			continue
		}
		d.Rules = append(d.Rules, mworkflow.Rule{
			Condition: asString(m["condition"]),
			Next:      asString(m["next"]),
		})
	}
	return d
}

func decodeSwitch(m, cases map[string]any) mworkflow.SwitchDecision {
	d := mworkflow.SwitchDecision{
		Switch:  asString(m["switch"]),
		Default: branchTarget(m["default"]),
	}
	// Mappings carry no order once decoded; sort labels so the edge list is
	// stable across parses.
	labels := make([]string, 0, len(cases))
	for label := range cases {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		d.Cases = append(d.Cases, mworkflow.Case{Label: label, Target: branchTarget(cases[label])})
	}
	return d
}

// branchTarget resolves `{goto: x}`, `{next: x}` or a bare string.
func branchTarget(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	m, ok := asMapping(v)
	if !ok {
		return ""
	}
	if t := asString(m["goto"]); t != "" {
		return t
	}
	return asString(m["next"])
}
