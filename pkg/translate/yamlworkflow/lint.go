package yamlworkflow

import (
	"fmt"
	"strings"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/errmap"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/expression"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
)

// Severity ranks a lint diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Diagnostic codes.
const (
	DiagDuplicateName    = "duplicate_name"
	DiagReservedName     = "reserved_name"
	DiagUnnamed          = "unnamed"
	DiagUnknownReference = "unknown_reference"
	DiagUnknownStepType  = "unknown_step_type"
	DiagInvalidCondition = "invalid_condition"
	DiagImplicitStart    = "implicit_start"
)

// Diagnostic is one finding about a document. Unit names the step or
// module it concerns, empty for document-level findings.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Unit     string   `json:"unit,omitempty"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Unit == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Unit, d.Message)
}

type lintUnit struct {
	name      string
	noun      string
	stepType  mworkflow.StepType
	checkType bool
	dependsOn []string
	decision  mworkflow.Decision
}

// Lint reports problems that Parse tolerates silently. It never fails.
func Lint(doc mworkflow.Document) []Diagnostic {
	var units []lintUnit
	if doc.Kind() == mworkflow.KindFlow {
		for _, m := range GetFlowModules(doc, "") {
			units = append(units, lintUnit{name: m.Name, noun: "module", dependsOn: m.DependsOn, decision: m.Decision})
		}
	} else {
		for _, s := range decodeSteps(doc) {
			units = append(units, lintUnit{
				name:      s.Name,
				noun:      "step",
				stepType:  s.Type,
				checkType: true,
				dependsOn: s.DependsOn,
				decision:  s.Decision,
			})
		}
	}

	var diags []Diagnostic
	known := make(map[string]bool, len(units))
	for i, u := range units {
		switch {
		case u.name == "":
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     DiagUnnamed,
				Unit:     unnamedID(i),
				Message:  fmt.Sprintf("%s at index %d has no name", u.noun, i),
			})
		case mworkflow.IsReservedID(u.name):
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Code:     DiagReservedName,
				Unit:     u.name,
				Message:  fmt.Sprintf("%s name %q is reserved", u.noun, u.name),
			})
		case known[u.name]:
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Code:     DiagDuplicateName,
				Unit:     u.name,
				Message:  fmt.Sprintf("%s name %q is declared more than once", u.noun, u.name),
			})
		}
		if u.name != "" {
			known[u.name] = true
		}
		if u.checkType && u.stepType != "" && !u.stepType.IsKnown() {
			diags = append(diags, Diagnostic{
				Severity: SeverityWarning,
				Code:     DiagUnknownStepType,
				Unit:     u.name,
				Message:  fmt.Sprintf("unknown step type %q", u.stepType),
			})
		}
	}

	explicit := doc.Kind() == mworkflow.KindFlow
	for _, u := range units {
		if len(u.dependsOn) > 0 {
			explicit = true
		}
	}

	for _, u := range units {
		if explicit {
			for _, dep := range u.dependsOn {
				if !known[dep] && !mworkflow.IsReservedID(dep) {
					diags = append(diags, Diagnostic{
						Severity: SeverityWarning,
						Code:     DiagUnknownReference,
						Unit:     u.name,
						Message:  fmt.Sprintf("depends_on references unknown %s %q", u.noun, dep),
					})
				}
			}
		}
		for _, br := range mworkflow.BranchesOf(u.decision) {
			if !known[br.Target] && !mworkflow.IsReservedID(br.Target) {
				diags = append(diags, Diagnostic{
					Severity: SeverityWarning,
					Code:     DiagUnknownReference,
					Unit:     u.name,
					Message:  fmt.Sprintf("decision branch %q targets unknown %s %q", br.Label, u.noun, br.Target),
				})
			}
			if br.Kind == mworkflow.BranchRule && strings.TrimSpace(br.Label) != "" {
				if err := expression.Check(br.Label); err != nil {
					diags = append(diags, Diagnostic{
						Severity: SeverityWarning,
						Code:     DiagInvalidCondition,
						Unit:     u.name,
						Message:  err.Error(),
					})
				}
			}
		}
	}

	// With explicit wiring, units without depends_on start from _start
	// regardless of where they are declared.
	if explicit && doc.Kind() == mworkflow.KindModule {
		targets := make(map[string]bool)
		for _, u := range units {
			for _, br := range mworkflow.BranchesOf(u.decision) {
				targets[br.Target] = true
			}
		}
		for i, u := range units {
			if i == 0 || len(u.dependsOn) > 0 || targets[u.name] {
				continue
			}
			diags = append(diags, Diagnostic{
				Severity: SeverityInfo,
				Code:     DiagImplicitStart,
				Unit:     u.name,
				Message:  "step has no depends_on and runs from the start, not after the previous step",
			})
		}
	}

	return diags
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate rejects documents with error-severity diagnostics, such as
// duplicate or reserved names.
func Validate(doc mworkflow.Document) error {
	var msgs []string
	for _, d := range Lint(doc) {
		if d.Severity == SeverityError {
			msgs = append(msgs, d.Message)
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return errmap.New(errmap.CodeDuplicateName, strings.Join(msgs, "; ")).WithWorkflow(doc.Name())
}
