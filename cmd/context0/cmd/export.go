package cmd

import (
	"encoding/json"
	"os"

	"github.com/CoderCouple/context0"
	"github.com/CoderCouple/context0/errors"
	"github.com/spf13/cobra"
)

func newExportCmd(params *rootParams) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of every memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, logger, err := newEngine(cmd, params)
			if err != nil {
				return err
			}
			defer engine.Close()

			payload, err := engine.ExportAll(cmd.Context())
			if err != nil {
				return errors.Wrapf(err, "failed to export memories")
			}

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrapf(err, "failed to create %s", output)
				}
				defer f.Close()
				out = f
			}

			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(payload); err != nil {
				return errors.Wrapf(err, "failed to encode export")
			}
			logger.Info("exported memories", "count", len(payload.Memories))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}

func newImportCmd(params *rootParams) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "import <backup.json>",
		Short: "Restore a JSON backup, replacing current memories wholesale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("import replaces every stored memory; pass --yes to confirm")
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrapf(err, "failed to read %s", args[0])
			}
			var payload context0.ExportPayload
			if err := json.Unmarshal(raw, &payload); err != nil {
				return errors.Wrapf(err, "failed to parse %s", args[0])
			}

			engine, logger, err := newEngine(cmd, params)
			if err != nil {
				return err
			}
			defer engine.Close()

			if _, err := engine.ImportAll(cmd.Context(), &payload); err != nil {
				return errors.Wrapf(err, "failed to import memories")
			}
			logger.Info("imported memories", "count", len(payload.Memories))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive restore")
	return cmd
}
