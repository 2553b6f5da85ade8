package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	ConfigFileName      = ".scanflow"
	ConfigFileExtension = ".yaml"
)

// Config keys. Each can also be set as SCANFLOW_<KEY>.
const (
	KeyOutput = "output"
)

const (
	OutputText = "text"
	OutputJSON = "json"
)

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetDefault(KeyOutput, OutputText)
	v.SetEnvPrefix("SCANFLOW")
	v.AutomaticEnv()

	var cfgFilePath string
	rootCmd := &cobra.Command{
		Use:   "scanflow",
		Short: "scanflow compiles workflow YAML into graphs",
		Long: `scanflow reads module and flow workflow documents, renders them as graphs,
lists flow modules, lints documents and edits steps in place.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFilePath)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFilePath, "config", "", "config file (default is $HOME/.scanflow.yaml)")
	rootCmd.PersistentFlags().StringP(KeyOutput, "o", OutputText, "output format: text or json")
	_ = v.BindPFlag(KeyOutput, rootCmd.PersistentFlags().Lookup(KeyOutput))

	rootCmd.AddCommand(
		newGraphCmd(v),
		newModulesCmd(v),
		newLintCmd(v),
		newUpdateStepCmd(),
		newSearchCmd(v),
		newVersionCmd(),
	)
	return rootCmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// initConfig reads the config file if there is one. A missing default
// file is not an error; a missing explicit --config file is.
func initConfig(v *viper.Viper, cfgFilePath string) error {
	v.SetConfigType("yaml")
	if cfgFilePath != "" {
		v.SetConfigFile(cfgFilePath)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}
		v.SetConfigFile(filepath.Join(home, ConfigFileName+ConfigFileExtension))
	}

	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if cfgFilePath == "" && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("error reading config file: %w", err)
}

func outputFormat(v *viper.Viper) (string, error) {
	switch out := v.GetString(KeyOutput); out {
	case OutputText, OutputJSON:
		return out, nil
	default:
		return "", fmt.Errorf("unknown output format %q", out)
	}
}
