//nolint:revive // exported
package mworkflow

// Reserved node ids. Step and module names must not use them.
const (
	StartNodeID    = "_start"
	EndNodeID      = "_end"
	TriggerNodeID  = "_trigger"
	OverrideNodeID = "_override"
)

// IsReservedID reports whether id belongs to a synthetic node.
func IsReservedID(id string) bool {
	switch id {
	case StartNodeID, EndNodeID, TriggerNodeID, OverrideNodeID:
		return true
	}
	return false
}

// NodeType tags a graph node. Step nodes carry their step type.
type NodeType string

const (
	NodeTypeStart    NodeType = "start"
	NodeTypeEnd      NodeType = "end"
	NodeTypeTrigger  NodeType = "trigger"
	NodeTypeOverride NodeType = "override"
	NodeTypeModule   NodeType = "module"
	NodeTypeMissing  NodeType = "missing"
	NodeTypeUnknown  NodeType = "unknown"
)

const EdgeTypeSmoothStep = "smoothstep"

// Graph is the compiled form of a workflow document.
type Graph struct {
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
	Metadata Metadata `json:"metadata"`
	Raw      Document `json:"raw"`
}

type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`
}

type Node struct {
	ID   string   `json:"id"`
	Type NodeType `json:"type"`
	Data NodeData `json:"data"`
}

type NodeData struct {
	Label    string         `json:"label"`
	Step     map[string]any `json:"step,omitempty"`
	Module   map[string]any `json:"module,omitempty"`
	Triggers []Trigger      `json:"triggers,omitempty"`
	Params   map[string]any `json:"params,omitempty"`
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// EdgesFrom returns every edge whose source is id, in graph order.
func (g *Graph) EdgesFrom(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// NodeIDs lists node ids in graph order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// EdgeIDs lists edge ids in graph order.
func (g *Graph) EdgeIDs() []string {
	ids := make([]string, len(g.Edges))
	for i, e := range g.Edges {
		ids[i] = e.ID
	}
	return ids
}
