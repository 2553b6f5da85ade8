package fuzzyfinder

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
)

type Rank struct {
	// Source is used as the source for matching.
	Source string

	// Target is the word matched against.
	Target string

	// Distance is the Levenshtein distance between Source and Target.
	Distance int

	// Location of Target in original list
	OriginalIndex int
}

// RankFind matches query against keys, ignoring case and diacritics, and
// returns the hits ordered by distance.
func RankFind(keys []string, query string) []Rank {
	ranksLib := fuzzy.RankFindNormalizedFold(query, keys)
	sort.Stable(ranksLib)
	ranks := make([]Rank, ranksLib.Len())
	for i, r := range ranksLib {
		ranks[i] = Rank{
			Source:        r.Source,
			Target:        r.Target,
			Distance:      r.Distance,
			OriginalIndex: r.OriginalIndex,
		}
	}
	return ranks
}

// NodeMatch is one node found by SearchNodes.
type NodeMatch struct {
	ID       string             `json:"id"`
	Label    string             `json:"label"`
	Type     mworkflow.NodeType `json:"type"`
	Distance int                `json:"distance"`
}

// SearchNodes ranks the graph's nodes by how closely their id or label
// matches query. Synthetic start and end nodes are skipped. Each node
// appears once, with its best distance; ties keep graph order.
func SearchNodes(g *mworkflow.Graph, query string) []NodeMatch {
	if g == nil || query == "" {
		return nil
	}

	var keys []string
	var owners []int
	for i, n := range g.Nodes {
		if n.Type == mworkflow.NodeTypeStart || n.Type == mworkflow.NodeTypeEnd {
			continue
		}
		keys = append(keys, n.ID)
		owners = append(owners, i)
		if n.Data.Label != "" && n.Data.Label != n.ID {
			keys = append(keys, n.Data.Label)
			owners = append(owners, i)
		}
	}

	best := make(map[int]int)
	for _, r := range RankFind(keys, query) {
		node := owners[r.OriginalIndex]
		if d, ok := best[node]; !ok || r.Distance < d {
			best[node] = r.Distance
		}
	}

	out := make([]NodeMatch, 0, len(best))
	for idx, dist := range best {
		n := g.Nodes[idx]
		out = append(out, NodeMatch{ID: n.ID, Label: n.Data.Label, Type: n.Type, Distance: dist})
	}
	order := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		order[n.ID] = i
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return order[out[i].ID] < order[out[j].ID]
	})
	return out
}
