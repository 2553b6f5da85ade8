//nolint:revive // exported
package mworkflow

// Decision is a conditional branch attached to a step or module. It is one
// of RuleDecision or SwitchDecision; a nil Decision means no branching.
type Decision interface {
	// Branches lists every resolvable outgoing branch in document order.
	Branches() []Branch
	isDecision()
}

// BranchKind classifies a decision edge.
type BranchKind string

const (
	BranchRule    BranchKind = "rule"
	BranchCase    BranchKind = "case"
	BranchDefault BranchKind = "default"
)

// Branch is one resolved decision outcome.
type Branch struct {
	Kind   BranchKind
	Label  string
	Target string
}

// Rule is one entry of the rule-list decision form.
type Rule struct {
	Condition string
	Next      string
}

// RuleDecision is the ordered `[{condition, next}]` form. Every rule with a
// non-empty next is a branch; evaluation order does not change the graph.
type RuleDecision struct {
	Rules []Rule
}

func (RuleDecision) isDecision() {}

func (d RuleDecision) Branches() []Branch {
	var out []Branch
	for _, r := range d.Rules {
		if r.Next == "" {
			continue
		}
		out = append(out, Branch{Kind: BranchRule, Label: r.Condition, Target: r.Next})
	}
	return out
}

// Case is one labelled arm of a switch decision.
type Case struct {
	Label  string
	Target string
}

// SwitchDecision is the `{switch, cases, default}` form. Cases are sorted
// by label.
type SwitchDecision struct {
	Switch  string
	Cases   []Case
	Default string
}

func (SwitchDecision) isDecision() {}

func (d SwitchDecision) Branches() []Branch {
	var out []Branch
	for _, c := range d.Cases {
		if c.Target == "" {
			continue
		}
		out = append(out, Branch{Kind: BranchCase, Label: c.Label, Target: c.Target})
	}
	if d.Default != "" {
		out = append(out, Branch{Kind: BranchDefault, Label: "default", Target: d.Default})
	}
	return out
}

// BranchesOf is nil-safe access to a decision's branches.
func BranchesOf(d Decision) []Branch {
	if d == nil {
		return nil
	}
	return d.Branches()
}
