package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/translate/yamlworkflow"
)

func newModulesCmd(v *viper.Viper) *cobra.Command {
	var fallbackName string
	cmd := &cobra.Command{
		Use:   "modules [flow-file]",
		Short: "List the modules of a flow document",
		Long: `List the modules of a flow document. A flow without modules that extends a
base module yields one synthesized module.`,
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
			modules := yamlworkflow.GetFlowModules(doc, fallbackName)

			if format == OutputJSON {
				out := make([]map[string]any, len(modules))
				for i, m := range modules {
					out[i] = m.ToMap()
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			if len(modules) == 0 {
				_, err := fmt.Fprintln(w, "no modules")
				return err
			}
			for _, m := range modules {
				line := m.Name
				if m.Path != "" {
					line += "  path=" + m.Path
				}
				if m.Extends != "" {
					line += "  extends=" + m.Extends
				}
				if len(m.DependsOn) > 0 {
					line += "  depends_on=" + strings.Join(m.DependsOn, ",")
				}
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fallbackName, "fallback-name", "", "module name used when the flow has no name")
	return cmd
}
