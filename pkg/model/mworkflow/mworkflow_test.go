package mworkflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEdgeKeyID(t *testing.T) {
	tests := []struct {
		key  EdgeKey
		want string
	}{
		{key: EdgeKey{Source: "a", Target: "b", Kind: EdgeKindSequence}, want: "a->b"},
		{key: EdgeKey{Source: "a", Target: "b", Kind: EdgeKindDependency}, want: "a->b"},
		{key: EdgeKey{Source: "a", Target: "b", Kind: EdgeKindRule, Label: "x > 1"}, want: "a->b:rule:x > 1"},
		{key: EdgeKey{Source: "a", Target: "b", Kind: EdgeKindDefault, Label: "default"}, want: "a->b:default:default"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.key.ID())
	}

	// names containing the delimiters stay distinct as keys
	k1 := EdgeKey{Source: "a->b", Target: "c", Kind: EdgeKindSequence}
	k2 := EdgeKey{Source: "a", Target: "b->c", Kind: EdgeKindSequence}
	assert.NotEqual(t, k1, k2)
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, KindFlow, ParseKind("flow"))
	assert.Equal(t, KindModule, ParseKind("module"))
	assert.Equal(t, KindModule, ParseKind("Flow"))
	assert.Equal(t, KindModule, ParseKind(nil))
	assert.Equal(t, KindModule, Document(nil).Kind())
}

func TestDocumentClone(t *testing.T) {
	doc := Document{
		"name":  "m",
		"steps": []any{map[string]any{"name": "a", "tags": []any{"x"}}},
	}
	cp := doc.Clone()
	require.Equal(t, doc, cp)

	cp["steps"].([]any)[0].(map[string]any)["name"] = "b"
	cp["steps"].([]any)[0].(map[string]any)["tags"].([]any)[0] = "y"
	step := doc["steps"].([]any)[0].(map[string]any)
	assert.Equal(t, "a", step["name"])
	assert.Equal(t, []any{"x"}, step["tags"])
}

func TestDecisionBranches(t *testing.T) {
	rules := RuleDecision{Rules: []Rule{
		{Condition: "a", Next: "x"},
		{Condition: "b"},
		{Condition: "c", Next: "y"},
	}}
	assert.Equal(t, []Branch{
		{Kind: BranchRule, Label: "a", Target: "x"},
		{Kind: BranchRule, Label: "c", Target: "y"},
	}, rules.Branches())

	sw := SwitchDecision{
		Switch:  "mode",
		Cases:   []Case{{Label: "fast", Target: "f"}, {Label: "none"}},
		Default: "d",
	}
	assert.Equal(t, []Branch{
		{Kind: BranchCase, Label: "fast", Target: "f"},
		{Kind: BranchDefault, Label: "default", Target: "d"},
	}, sw.Branches())

	assert.Nil(t, BranchesOf(nil))
}

func TestStepTypeIsKnown(t *testing.T) {
	assert.True(t, StepTypeRemoteBash.IsKnown())
	assert.False(t, StepType("nmap").IsKnown())
}

func TestFlowModuleToMap(t *testing.T) {
	m := FlowModule{Name: "f", Extends: "base", DependsOn: []string{"a"}, Params: map[string]any{"x": 1}}
	assert.Equal(t, map[string]any{
		"name":       "f",
		"extends":    "base",
		"depends_on": []any{"a"},
		"params":     map[string]any{"x": 1},
	}, m.ToMap())

	raw := map[string]any{"name": "r", "custom": true}
	assert.Equal(t, raw, FlowModule{Name: "r", Raw: raw}.ToMap())
}

func TestGraphAccessors(t *testing.T) {
	g := &Graph{
		Nodes: []Node{{ID: StartNodeID}, {ID: "a"}, {ID: EndNodeID}},
		Edges: []Edge{
			{ID: "_start->a", Source: StartNodeID, Target: "a"},
			{ID: "a->_end", Source: "a", Target: EndNodeID},
		},
	}
	assert.Equal(t, []string{"_start", "a", "_end"}, g.NodeIDs())
	assert.Equal(t, []string{"_start->a", "a->_end"}, g.EdgeIDs())
	assert.Len(t, g.EdgesFrom("a"), 1)
	_, ok := g.Node("missing")
	assert.False(t, ok)
	assert.True(t, IsReservedID(OverrideNodeID))
	assert.False(t, IsReservedID("start"))
}
