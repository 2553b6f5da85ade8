//nolint:revive // exported
package mworkflow

import "strings"

// EdgeKind classifies why an edge exists.
type EdgeKind string

const (
	EdgeKindTrigger    EdgeKind = "trigger"
	EdgeKindStart      EdgeKind = "start"
	EdgeKindSequence   EdgeKind = "sequence"
	EdgeKindDependency EdgeKind = "dependency"
	EdgeKindRule       EdgeKind = EdgeKind(BranchRule)
	EdgeKindCase       EdgeKind = EdgeKind(BranchCase)
	EdgeKindDefault    EdgeKind = EdgeKind(BranchDefault)
	EdgeKindEnd        EdgeKind = "end"
)

// IsDecision reports whether the kind comes from a decision branch.
func (k EdgeKind) IsDecision() bool {
	switch k {
	case EdgeKindRule, EdgeKindCase, EdgeKindDefault:
		return true
	}
	return false
}

// EdgeKey is the structural identity of an edge. Two edges are the same edge
// iff their keys are equal; the string ID is derived for display only.
type EdgeKey struct {
	Source string
	Target string
	Kind   EdgeKind
	Label  string
}

// ID renders the key in the form the rendering layer expects:
// "source->target" for plain edges and "source->target:kind:label" for
// decision edges.
func (k EdgeKey) ID() string {
	var b strings.Builder
	b.WriteString(k.Source)
	b.WriteString("->")
	b.WriteString(k.Target)
	if k.Kind.IsDecision() {
		b.WriteByte(':')
		b.WriteString(string(k.Kind))
		b.WriteByte(':')
		b.WriteString(k.Label)
	}
	return b.String()
}

type Edge struct {
	ID       string            `json:"id"`
	Source   string            `json:"source"`
	Target   string            `json:"target"`
	Type     string            `json:"type"`
	Kind     EdgeKind          `json:"kind"`
	Label    string            `json:"label,omitempty"`
	Animated bool              `json:"animated,omitempty"`
	Style    map[string]string `json:"style,omitempty"`
}
