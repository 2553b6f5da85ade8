// Package flowgraph provides traversal helpers over compiled workflow graphs.
package flowgraph

import (
	"fmt"
	"sort"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
)

// BuildOutgoingAdjacency builds a map of node ID -> list of target node IDs.
func BuildOutgoingAdjacency(edges []mworkflow.Edge) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}

// BuildIncomingAdjacency builds a map of node ID -> list of source node IDs.
func BuildIncomingAdjacency(edges []mworkflow.Edge) map[string][]string {
	adj := make(map[string][]string)
	for _, e := range edges {
		adj[e.Target] = append(adj[e.Target], e.Source)
	}
	return adj
}

// OutDegree counts outgoing edges per node.
func OutDegree(edges []mworkflow.Edge) map[string]int {
	deg := make(map[string]int)
	for _, e := range edges {
		deg[e.Source]++
	}
	return deg
}

// FindStartNode finds the start node in a node slice.
func FindStartNode(nodes []mworkflow.Node) (*mworkflow.Node, bool) {
	for i := range nodes {
		if nodes[i].Type == mworkflow.NodeTypeStart {
			return &nodes[i], true
		}
	}
	return nil, false
}

// EdgeExists checks if an edge exists between source and target.
func EdgeExists(edges []mworkflow.Edge, source, target string) bool {
	for _, e := range edges {
		if e.Source == source && e.Target == target {
			return true
		}
	}
	return false
}

// BuildNodeMap creates a map of node ID -> node pointer for quick lookup.
func BuildNodeMap(nodes []mworkflow.Node) map[string]*mworkflow.Node {
	nodeMap := make(map[string]*mworkflow.Node, len(nodes))
	for i := range nodes {
		nodeMap[nodes[i].ID] = &nodes[i]
	}
	return nodeMap
}

// ValidateReferences checks that node ids are unique and that every edge
// endpoint is a node.
func ValidateReferences(g *mworkflow.Graph) error {
	seen := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}
	for _, e := range g.Edges {
		if !seen[e.Source] {
			return fmt.Errorf("edge %q has unknown source %q", e.ID, e.Source)
		}
		if !seen[e.Target] {
			return fmt.Errorf("edge %q has unknown target %q", e.ID, e.Target)
		}
	}
	return nil
}

// Levels assigns every node reachable from startID its BFS depth. Nodes
// that cannot be reached are absent from the result.
func Levels(edges []mworkflow.Edge, startID string) map[string]int {
	adj := BuildOutgoingAdjacency(edges)
	levels := map[string]int{startID: 0}
	queue := []string{startID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range adj[current] {
			if _, ok := levels[next]; ok {
				continue
			}
			levels[next] = levels[current] + 1
			queue = append(queue, next)
		}
	}
	return levels
}

// Unreachable lists node ids, in graph order, that cannot be reached from
// the start node.
func Unreachable(g *mworkflow.Graph) []string {
	start, ok := FindStartNode(g.Nodes)
	if !ok {
		return g.NodeIDs()
	}
	levels := Levels(g.Edges, start.ID)
	var out []string
	for _, n := range g.Nodes {
		if _, ok := levels[n.ID]; !ok {
			out = append(out, n.ID)
		}
	}
	return out
}

// LevelGroups returns node ids grouped by level, each group in graph order.
func LevelGroups(g *mworkflow.Graph, levels map[string]int) [][]string {
	maxLevel := -1
	for _, l := range levels {
		if l > maxLevel {
			maxLevel = l
		}
	}
	groups := make([][]string, maxLevel+1)
	order := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		order[n.ID] = i
	}
	for id, l := range levels {
		groups[l] = append(groups[l], id)
	}
	for _, group := range groups {
		sort.Slice(group, func(i, j int) bool { return order[group[i]] < order[group[j]] })
	}
	return groups
}

// HasAlternativePath checks if there's a path from source to target that
// doesn't use the direct edge.
func HasAlternativePath(adj map[string][]string, source, target string) bool {
	visited := make(map[string]bool)
	var queue []string
	for _, neighbor := range adj[source] {
		if neighbor != target && !visited[neighbor] {
			queue = append(queue, neighbor)
			visited[neighbor] = true
		}
	}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == target {
			return true
		}
		for _, neighbor := range adj[current] {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}
	return false
}

// RedundantEdges returns the ids of dependency edges implied by a longer
// path, for example `c` depending on both `a` and `b` where `b` already
// depends on `a`.
func RedundantEdges(g *mworkflow.Graph) []string {
	adj := BuildOutgoingAdjacency(g.Edges)
	var out []string
	for _, e := range g.Edges {
		if e.Kind != mworkflow.EdgeKindDependency {
			continue
		}
		if HasAlternativePath(adj, e.Source, e.Target) {
			out = append(out, e.ID)
		}
	}
	return out
}
