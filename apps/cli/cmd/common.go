package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/model/mworkflow"
	"github.com/the-dev-tools/dev-tools/packages/scanflow/pkg/translate/yamlworkflow"
)

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func readDocument(cmd *cobra.Command, path string) ([]byte, mworkflow.Document, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, nil, err
	}
	doc, err := yamlworkflow.DecodeDocument(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, doc, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
