package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/fuzzyfinder"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/translate/yamlworkflow"
)

func newSearchCmd(v *viper.Viper) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search [workflow-file] [query]",
		Short: "Fuzzy search the nodes of a workflow graph",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(v)
			if err != nil {
				return err
			}
			_, doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			matches := fuzzyfinder.SearchNodes(yamlworkflow.ParseDocument(doc), args[1])
			if limit > 0 && len(matches) > limit {
				matches = matches[:limit]
			}

			w := cmd.OutOrStdout()
			if format == OutputJSON {
				if matches == nil {
					matches = []fuzzyfinder.NodeMatch{}
				}
				return writeJSON(w, matches)
			}
			for _, m := range matches {
				fmt.Fprintf(w, "%-24s %-10s %s\n", m.ID, m.Type, m.Label)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of matches (0 for all)")
	return cmd
}
