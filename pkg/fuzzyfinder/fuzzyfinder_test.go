package fuzzyfinder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
)

func TestRankFind(t *testing.T) {
	ranks := RankFind([]string{"portscan-full", "port-scan", "dns"}, "portscan")
	require.Len(t, ranks, 2)
	assert.Equal(t, "port-scan", ranks[0].Target)
	assert.Equal(t, 1, ranks[0].OriginalIndex)
	assert.Equal(t, "portscan-full", ranks[1].Target)

	ranks = RankFind([]string{"dns"}, "DNS")
	require.Len(t, ranks, 1)

	ranks = RankFind([]string{"subdomain-enum", "sub"}, "sub")
	require.Len(t, ranks, 2)
	assert.Equal(t, "sub", ranks[0].Target)
	assert.Equal(t, 0, ranks[0].Distance)
}

func TestSearchNodes(t *testing.T) {
	g := &mworkflow.Graph{
		Nodes: []mworkflow.Node{
			{ID: mworkflow.StartNodeID, Type: mworkflow.NodeTypeStart, Data: mworkflow.NodeData{Label: "Start"}},
			{ID: "http-probe", Type: "http", Data: mworkflow.NodeData{Label: "http-probe"}},
			{ID: "probe", Type: "bash", Data: mworkflow.NodeData{Label: "probe"}},
			{ID: "report", Type: mworkflow.NodeTypeMissing, Data: mworkflow.NodeData{Label: "Missing: report"}},
			{ID: mworkflow.EndNodeID, Type: mworkflow.NodeTypeEnd, Data: mworkflow.NodeData{Label: "End"}},
		},
	}

	matches := SearchNodes(g, "probe")
	require.Len(t, matches, 2)
	assert.Equal(t, "probe", matches[0].ID)
	assert.Equal(t, 0, matches[0].Distance)
	assert.Equal(t, "http-probe", matches[1].ID)

	matches = SearchNodes(g, "missing")
	require.Len(t, matches, 1)
	assert.Equal(t, "report", matches[0].ID)

	assert.Empty(t, SearchNodes(g, "start"))
	assert.Nil(t, SearchNodes(g, ""))
	assert.Nil(t, SearchNodes(nil, "x"))
}
