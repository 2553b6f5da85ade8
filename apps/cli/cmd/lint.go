package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/translate/yamlworkflow"
)

var ErrLintFailed = errors.New("lint found errors")

func newLintCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [workflow-file]",
		Short: "Report problems the compiler tolerates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(v)
			if err != nil {
				return err
			}
			_, doc, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}
			diags := yamlworkflow.Lint(doc)

			w := cmd.OutOrStdout()
			if format == OutputJSON {
				if diags == nil {
					diags = []yamlworkflow.Diagnostic{}
				}
				if err := writeJSON(w, diags); err != nil {
					return err
				}
			} else {
				for _, d := range diags {
					fmt.Fprintf(w, "%s: %s\n", args[0], d)
				}
				if len(diags) == 0 {
					fmt.Fprintln(w, "ok")
				}
			}

			if yamlworkflow.HasErrors(diags) {
				return ErrLintFailed
			}
			return nil
		},
	}
}
