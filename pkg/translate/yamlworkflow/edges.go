package yamlworkflow

import (
	"strings"
	"unicode/utf8"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
)

// MaxLabelLength bounds decision edge labels shown in the editor.
const MaxLabelLength = 30

// TruncateLabel trims label and cuts it to MaxLabelLength runes followed by
// "...". It only shapes what is displayed.
func TruncateLabel(label string) string {
	label = strings.TrimSpace(label)
	if utf8.RuneCountInString(label) <= MaxLabelLength {
		return label
	}
	runes := []rune(label)
	return string(runes[:MaxLabelLength]) + "..."
}

func plainEdge(source, target string, kind mworkflow.EdgeKind) mworkflow.Edge {
	key := mworkflow.EdgeKey{Source: source, Target: target, Kind: kind}
	e := mworkflow.Edge{
		ID:     key.ID(),
		Source: source,
		Target: target,
		Type:   mworkflow.EdgeTypeSmoothStep,
		Kind:   kind,
	}
	if kind == mworkflow.EdgeKindEnd {
		e.Style = map[string]string{"strokeDasharray": "4 4"}
	}
	return e
}

// decisionEdge builds the edge for one branch. The key carries the full
// trimmed label so two long conditions sharing a prefix stay distinct.
func decisionEdge(source string, br mworkflow.Branch) (mworkflow.EdgeKey, mworkflow.Edge) {
	kind := mworkflow.EdgeKind(br.Kind)
	key := mworkflow.EdgeKey{
		Source: source,
		Target: br.Target,
		Kind:   kind,
		Label:  strings.TrimSpace(br.Label),
	}
	e := mworkflow.Edge{
		ID:       key.ID(),
		Source:   source,
		Target:   br.Target,
		Type:     mworkflow.EdgeTypeSmoothStep,
		Kind:     kind,
		Label:    TruncateLabel(br.Label),
		Animated: true,
		Style:    decisionStyle(kind),
	}
	return key, e
}

func decisionStyle(kind mworkflow.EdgeKind) map[string]string {
	switch kind {
	case mworkflow.EdgeKindRule:
		return map[string]string{"stroke": "#f59e0b"}
	case mworkflow.EdgeKindCase:
		return map[string]string{"stroke": "#8b5cf6"}
	default:
		return map[string]string{"stroke": "#6b7280", "strokeDasharray": "6 3"}
	}
}
