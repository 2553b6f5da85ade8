//nolint:revive // exported
package mworkflow

// StepType tags a module step. Unknown values are preserved verbatim.
type StepType string

const (
	StepTypeBash          StepType = "bash"
	StepTypeParallel      StepType = "parallel"
	StepTypeParallelSteps StepType = "parallel-steps"
	StepTypeFunction      StepType = "function"
	StepTypeForeach       StepType = "foreach"
	StepTypeHTTP          StepType = "http"
	StepTypeLLM           StepType = "llm"
	StepTypeRemoteBash    StepType = "remote-bash"
	StepTypeContainer     StepType = "container"
)

var knownStepTypes = map[StepType]bool{
	StepTypeBash:          true,
	StepTypeParallel:      true,
	StepTypeParallelSteps: true,
	StepTypeFunction:      true,
	StepTypeForeach:       true,
	StepTypeHTTP:          true,
	StepTypeLLM:           true,
	StepTypeRemoteBash:    true,
	StepTypeContainer:     true,
}

// IsKnown reports whether t is one of the step types the engine runs.
func (t StepType) IsKnown() bool {
	return knownStepTypes[t]
}

// Step is one unit of work inside a module document.
type Step struct {
	Name      string
	Type      StepType
	DependsOn []string
	Decision  Decision

	// Raw is the step mapping as written, including type-specific fields.
	Raw map[string]any
}

// FlowModule is one module reference inside a flow document.
type FlowModule struct {
	Name      string
	Path      string
	Extends   string
	DependsOn []string
	Condition string
	Params    map[string]any
	Decision  Decision

	Raw map[string]any
}

// ToMap renders a module back to the generic mapping shape used in
// documents and node data. Synthesized modules have no Raw mapping.
func (m FlowModule) ToMap() map[string]any {
	if m.Raw != nil {
		return m.Raw
	}
	out := map[string]any{"name": m.Name}
	if m.Path != "" {
		out["path"] = m.Path
	}
	if m.Extends != "" {
		out["extends"] = m.Extends
	}
	if len(m.DependsOn) > 0 {
		deps := make([]any, len(m.DependsOn))
		for i, d := range m.DependsOn {
			deps[i] = d
		}
		out["depends_on"] = deps
	}
	if m.Condition != "" {
		out["condition"] = m.Condition
	}
	if m.Params != nil {
		out["params"] = m.Params
	}
	return out
}
