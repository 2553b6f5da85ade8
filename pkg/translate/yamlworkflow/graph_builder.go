package yamlworkflow

import (
	"fmt"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
)

// WiringMode selects how step nodes receive their incoming edges. It is
// decided once per document.
type WiringMode int

const (
	// DeclarationOrder links each step to the one declared before it.
	DeclarationOrder WiringMode = iota
	// ExplicitDependencies takes incoming edges only from depends_on lists.
	ExplicitDependencies
)

func (m WiringMode) String() string {
	if m == ExplicitDependencies {
		return "explicit-dependencies"
	}
	return "declaration-order"
}

// unit is a step or a flow module reduced to what wiring needs.
type unit struct {
	id        string
	node      mworkflow.Node
	dependsOn []string
	branches  []mworkflow.Branch
}

// wiringModeFor returns ExplicitDependencies for flows and for module
// documents where any step declares depends_on.
func wiringModeFor(kind mworkflow.Kind, units []unit) WiringMode {
	if kind == mworkflow.KindFlow {
		return ExplicitDependencies
	}
	for _, u := range units {
		if len(u.dependsOn) > 0 {
			return ExplicitDependencies
		}
	}
	return DeclarationOrder
}

const unnamedLabel = "(unnamed)"

func unnamedID(index int) string {
	return fmt.Sprintf("_unnamed_%d", index)
}

func stepUnits(steps []mworkflow.Step) []unit {
	units := make([]unit, 0, len(steps))
	for i, s := range steps {
		id, label := s.Name, s.Name
		if id == "" {
			id, label = unnamedID(i), unnamedLabel
		}
		nodeType := mworkflow.NodeType(s.Type)
		if nodeType == "" {
			nodeType = mworkflow.NodeTypeUnknown
		}
		units = append(units, unit{
			id: id,
			node: mworkflow.Node{
				ID:   id,
				Type: nodeType,
				Data: mworkflow.NodeData{Label: label, Step: s.Raw},
			},
			dependsOn: s.DependsOn,
			branches:  mworkflow.BranchesOf(s.Decision),
		})
	}
	return units
}

func moduleUnits(modules []mworkflow.FlowModule) []unit {
	units := make([]unit, 0, len(modules))
	for i, m := range modules {
		id, label := m.Name, m.Name
		if id == "" {
			id, label = unnamedID(i), unnamedLabel
		}
		units = append(units, unit{
			id: id,
			node: mworkflow.Node{
				ID:   id,
				Type: mworkflow.NodeTypeModule,
				Data: mworkflow.NodeData{Label: label, Module: m.ToMap()},
			},
			dependsOn: m.DependsOn,
			branches:  mworkflow.BranchesOf(m.Decision),
		})
	}
	return units
}

// graphBuilder accumulates nodes and edges. Edges are deduplicated on their
// structural key and out-degrees are tracked as edges are added.
type graphBuilder struct {
	nodes     []mworkflow.Node
	nodeIndex map[string]int
	edges     []mworkflow.Edge
	edgeSeen  map[mworkflow.EdgeKey]struct{}
	edgeIDs   map[string]struct{}
	outDegree map[string]int
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{
		nodeIndex: make(map[string]int),
		edgeSeen:  make(map[mworkflow.EdgeKey]struct{}),
		edgeIDs:   make(map[string]struct{}),
		outDegree: make(map[string]int),
	}
}

func (b *graphBuilder) hasNode(id string) bool {
	_, ok := b.nodeIndex[id]
	return ok
}

// addNode appends n unless its id is taken; the first declaration wins.
func (b *graphBuilder) addNode(n mworkflow.Node) bool {
	if b.hasNode(n.ID) {
		return false
	}
	b.nodeIndex[n.ID] = len(b.nodes)
	b.nodes = append(b.nodes, n)
	return true
}

func (b *graphBuilder) ensurePlaceholder(id string) {
	if id == "" || id == mworkflow.EndNodeID || b.hasNode(id) {
		return
	}
	b.addNode(mworkflow.Node{
		ID:   id,
		Type: mworkflow.NodeTypeMissing,
		Data: mworkflow.NodeData{Label: "Missing: " + id},
	})
}

// addEdge appends e once per key. Plain edges of different kinds between the
// same pair render to the same id, so the id is checked as well.
func (b *graphBuilder) addEdge(key mworkflow.EdgeKey, e mworkflow.Edge) {
	if _, dup := b.edgeSeen[key]; dup {
		return
	}
	if _, dup := b.edgeIDs[e.ID]; dup {
		return
	}
	b.edgeSeen[key] = struct{}{}
	b.edgeIDs[e.ID] = struct{}{}
	b.edges = append(b.edges, e)
	b.outDegree[e.Source]++
}

func (b *graphBuilder) addPlainEdge(source, target string, kind mworkflow.EdgeKind) {
	b.addEdge(mworkflow.EdgeKey{Source: source, Target: target, Kind: kind}, plainEdge(source, target, kind))
}

// build runs the two-pass construction: real nodes first, then placeholder
// nodes for every referenced name that has none, then edges.
func build(doc mworkflow.Document, kind mworkflow.Kind, units []unit) *mworkflow.Graph {
	b := newGraphBuilder()

	// Entry chain: [_trigger] -> [_override] -> _start.
	var chain []string
	if triggers := NormalizeTriggers(doc); len(triggers) > 0 {
		label := "Trigger"
		if len(triggers) > 1 {
			label = fmt.Sprintf("Triggers (%d)", len(triggers))
		}
		b.addNode(mworkflow.Node{
			ID:   mworkflow.TriggerNodeID,
			Type: mworkflow.NodeTypeTrigger,
			Data: mworkflow.NodeData{Label: label, Triggers: triggers},
		})
		chain = append(chain, mworkflow.TriggerNodeID)
	}
	if params := OverrideParams(doc); params != nil {
		b.addNode(mworkflow.Node{
			ID:   mworkflow.OverrideNodeID,
			Type: mworkflow.NodeTypeOverride,
			Data: mworkflow.NodeData{Label: "Override", Params: params},
		})
		chain = append(chain, mworkflow.OverrideNodeID)
	}
	b.addNode(mworkflow.Node{
		ID:   mworkflow.StartNodeID,
		Type: mworkflow.NodeTypeStart,
		Data: mworkflow.NodeData{Label: "Start"},
	})
	chain = append(chain, mworkflow.StartNodeID)

	// Pass one: real nodes. Duplicate and reserved names add nothing.
	live := make([]unit, 0, len(units))
	for _, u := range units {
		if mworkflow.IsReservedID(u.id) || !b.addNode(u.node) {
			continue
		}
		live = append(live, u)
	}

	mode := wiringModeFor(kind, live)

	// Pass two: placeholders for dangling references.
	decisionTargets := make(map[string]bool)
	for _, u := range live {
		if mode == ExplicitDependencies {
			for _, dep := range u.dependsOn {
				b.ensurePlaceholder(dep)
			}
		}
		for _, br := range u.branches {
			decisionTargets[br.Target] = true
			b.ensurePlaceholder(br.Target)
		}
	}

	for i := 1; i < len(chain); i++ {
		b.addPlainEdge(chain[i-1], chain[i], mworkflow.EdgeKindTrigger)
	}

	if len(live) == 0 {
		b.addPlainEdge(mworkflow.StartNodeID, mworkflow.EndNodeID, mworkflow.EdgeKindEnd)
	} else {
		wireIncoming(b, mode, live, decisionTargets)
		for _, u := range live {
			for _, br := range u.branches {
				b.addEdge(decisionEdge(u.id, br))
			}
		}
		for _, n := range b.nodes {
			switch n.Type {
			case mworkflow.NodeTypeStart, mworkflow.NodeTypeTrigger, mworkflow.NodeTypeOverride:
				continue
			}
			if b.outDegree[n.ID] == 0 {
				b.addPlainEdge(n.ID, mworkflow.EndNodeID, mworkflow.EdgeKindEnd)
			}
		}
	}

	b.addNode(mworkflow.Node{
		ID:   mworkflow.EndNodeID,
		Type: mworkflow.NodeTypeEnd,
		Data: mworkflow.NodeData{Label: "End"},
	})

	return &mworkflow.Graph{
		Nodes: b.nodes,
		Edges: b.edges,
		Metadata: mworkflow.Metadata{
			Name:        doc.Name(),
			Description: doc.Description(),
			Kind:        kind,
		},
		Raw: doc,
	}
}

// wireIncoming adds the non-decision incoming edges of every unit.
func wireIncoming(b *graphBuilder, mode WiringMode, units []unit, decisionTargets map[string]bool) {
	for i, u := range units {
		switch mode {
		case ExplicitDependencies:
			if len(u.dependsOn) > 0 {
				for _, dep := range u.dependsOn {
					b.addPlainEdge(dep, u.id, mworkflow.EdgeKindDependency)
				}
				continue
			}
			if !decisionTargets[u.id] {
				b.addPlainEdge(mworkflow.StartNodeID, u.id, mworkflow.EdgeKindStart)
			}
		default:
			if decisionTargets[u.id] {
				continue
			}
			if i == 0 {
				b.addPlainEdge(mworkflow.StartNodeID, u.id, mworkflow.EdgeKindStart)
				continue
			}
			if prev := units[i-1]; len(prev.branches) == 0 {
				b.addPlainEdge(prev.id, u.id, mworkflow.EdgeKindSequence)
			}
		}
	}
}
