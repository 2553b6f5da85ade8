package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/flowgraph"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/translate/yamlworkflow"
)

func newGraphCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "graph [workflow-file]",
		Short: "Compile a workflow into its graph",
		Long: `Compile a module or flow document into nodes and edges. Text output groups
nodes by their distance from _start; json output prints the full graph.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(v)
			if err != nil {
				return err
			}
			_, doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			g := yamlworkflow.ParseDocument(doc)
			if format == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), g)
			}
			return printGraphSummary(cmd.OutOrStdout(), g, yamlworkflow.ModeOf(doc))
		},
	}
}

func printGraphSummary(w io.Writer, g *mworkflow.Graph, mode yamlworkflow.WiringMode) error {
	var b strings.Builder
	name := g.Metadata.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(&b, "%s (%s, %s)\n", name, g.Metadata.Kind, mode)
	if g.Metadata.Description != "" {
		fmt.Fprintf(&b, "  %s\n", g.Metadata.Description)
	}
	fmt.Fprintf(&b, "nodes: %d  edges: %d\n", len(g.Nodes), len(g.Edges))

	nodes := flowgraph.BuildNodeMap(g.Nodes)
	if start, ok := flowgraph.FindStartNode(g.Nodes); ok {
		levels := flowgraph.Levels(g.Edges, start.ID)
		for i, group := range flowgraph.LevelGroups(g, levels) {
			labels := make([]string, len(group))
			for j, id := range group {
				labels[j] = nodeLabel(nodes[id])
			}
			fmt.Fprintf(&b, "  %d: %s\n", i, strings.Join(labels, ", "))
		}
	}

	if unreachable := flowgraph.Unreachable(g); len(unreachable) > 0 {
		fmt.Fprintf(&b, "unreachable: %s\n", strings.Join(unreachable, ", "))
	}
	if redundant := flowgraph.RedundantEdges(g); len(redundant) > 0 {
		fmt.Fprintf(&b, "redundant dependencies: %s\n", strings.Join(redundant, ", "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func nodeLabel(n *mworkflow.Node) string {
	if n == nil {
		return "?"
	}
	if mworkflow.IsReservedID(n.ID) || n.Type == mworkflow.NodeTypeMissing {
		return n.ID
	}
	return fmt.Sprintf("%s [%s]", n.ID, n.Type)
}
