package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/patch"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/translate/yamlworkflow"
)

var ErrStepNotFound = errors.New("step not found")

func newUpdateStepCmd() *cobra.Command {
	var (
		unset  []string
		stdout bool
	)
	cmd := &cobra.Command{
		Use:   "update-step [workflow-file] [step] [key=value...]",
		Short: "Edit one step of a module document",
		Long: `Merge key=value pairs into the first step with the given name and rewrite
the file. Values are read as YAML, so "depends_on=[a, b]" sets a list.
Use --unset to remove keys. Key order and comments of the file are kept.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, step := args[0], args[1]
			p, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			for _, key := range unset {
				p[key] = patch.Unset[any]()
			}
			if !p.HasChanges() {
				return fmt.Errorf("nothing to update: pass key=value pairs or --unset")
			}

			data, err := readInput(cmd, path)
			if err != nil {
				return err
			}
			out, found, err := yamlworkflow.EditStepText(data, step, p)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if !found {
				return fmt.Errorf("%w: %q in %s", ErrStepNotFound, step, path)
			}

			if stdout || path == "-" {
				_, err := cmd.OutOrStdout().Write(out)
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "updated %s in %s: %s\n", step, path, strings.Join(p.Keys(), ", "))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&unset, "unset", nil, "keys to remove from the step")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the result instead of rewriting the file")
	return cmd
}

// parseAssignments turns key=value arguments into a patch. Values are
// decoded as YAML scalars or flow collections.
func parseAssignments(args []string) (patch.StepPatch, error) {
	p := make(patch.StepPatch, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected key=value", arg)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", key, err)
		}
		if value == nil {
			value = raw
		}
		p[key] = patch.NewOptional(value)
	}
	return p, nil
}
