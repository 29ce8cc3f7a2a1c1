package cmd

import (
	"os"

	"github.com/CoderCouple/context0"
	"github.com/CoderCouple/context0/config"
	"github.com/CoderCouple/context0/errors"
	"github.com/CoderCouple/context0/internal/mylog"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

type rootParams struct {
	DBPath       string
	SettingsFile string
	LogLevel     string
	MaxMemories  int
}

func NewRootCmd() *cobra.Command {
	params := &rootParams{}

	cmd := &cobra.Command{
		Use:          "context0",
		Short:        "Personal memory engine: extract, store and recall facts from text",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&params.DBPath, "db", "context0.db", "path to the sqlite database (empty for in-memory)")
	cmd.PersistentFlags().StringVar(&params.SettingsFile, "settings", "", "path to a YAML settings file")
	cmd.PersistentFlags().StringVar(&params.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().IntVar(&params.MaxMemories, "max-memories", 0, "override the memory capacity cap")

	cmd.AddCommand(
		newRememberCmd(params),
		newRecallCmd(params),
		newListCmd(params),
		newForgetCmd(params),
		newClearCmd(params),
		newExportCmd(params),
		newImportCmd(params),
		newServeCmd(params),
	)

	return cmd
}

// newEngine builds the engine shared by every subcommand: defaults, then the
// YAML settings file, then environment, then flags, most specific last.
func newEngine(cmd *cobra.Command, params *rootParams) (*context0.Engine, *mylog.Logger, error) {
	memoryConfig := config.NewMemoryConfig()

	if params.SettingsFile != "" {
		raw, err := os.ReadFile(params.SettingsFile)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to read settings file %s", params.SettingsFile)
		}
		if err := yaml.Unmarshal(raw, memoryConfig); err != nil {
			return nil, nil, errors.Wrapf(err, "failed to parse settings file %s", params.SettingsFile)
		}
	}
	if err := config.ResolveConfig(memoryConfig); err != nil {
		return nil, nil, err
	}

	if params.DBPath != "" {
		memoryConfig.SqliteEnabled = true
		memoryConfig.SqlitePath = params.DBPath
	}
	if params.MaxMemories > 0 {
		memoryConfig.MaxMemories = params.MaxMemories
	}

	logger := mylog.NewLogger(params.LogLevel, "default")

	engine, err := context0.NewEngine(cmd.Context(),
		context0.WithLogger(logger),
		context0.WithMemoryConfig(memoryConfig),
	)
	if err != nil {
		return nil, nil, err
	}
	return engine, logger, nil
}
