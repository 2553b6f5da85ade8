package yamlworkflow

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/errmap"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/patch"
)

// EditStepText applies p to the first step named stepName directly on the
// YAML node tree of data, so key order and comments outside the changed
// values survive. found is false when no step matches; data is then
// returned as is.
func EditStepText(data []byte, stepName string, p patch.StepPatch) (out []byte, found bool, err error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, false, err
	}
	if doc.Kind() == mworkflow.KindFlow {
		return nil, false, errmap.New(errmap.CodeWrongKind, "step updates apply to module documents only").
			WithWorkflow(doc.Name())
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, false, errmap.Wrap(errmap.CodeDecode, "failed to unmarshal YAML", err)
	}
	step := findStepNode(root.Content[0], stepName)
	if step == nil {
		return data, false, nil
	}
	for _, key := range p.Keys() {
		o := p[key]
		if o.IsUnset() {
			removeKey(step, key)
			continue
		}
		var value yaml.Node
		if err := value.Encode(*o.Value()); err != nil {
			return nil, true, fmt.Errorf("encode %s: %w", key, err)
		}
		setKey(step, key, &value)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return nil, true, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, true, fmt.Errorf("failed to flush YAML: %w", err)
	}
	return buf.Bytes(), true, nil
}

func findStepNode(doc *yaml.Node, stepName string) *yaml.Node {
	steps := mappingValue(doc, "steps")
	if steps == nil || steps.Kind != yaml.SequenceNode {
		return nil
	}
	for _, item := range steps.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		name := mappingValue(item, "name")
		if name != nil && name.Kind == yaml.ScalarNode && name.ShortTag() == "!!str" && name.Value == stepName {
			return item
		}
	}
	return nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setKey(m *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			value.LineComment = m.Content[i+1].LineComment
			m.Content[i+1] = value
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

func removeKey(m *yaml.Node, key string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content = append(m.Content[:i], m.Content[i+2:]...)
			return
		}
	}
}
