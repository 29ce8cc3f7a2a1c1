package cmd

import (
	"encoding/json"
	"os"

	"github.com/CoderCouple/context0/errors"
	"github.com/spf13/cobra"
)

func newListCmd(params *rootParams) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every stored memory, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, err := newEngine(cmd, params)
			if err != nil {
				return err
			}
			defer engine.Close()

			memories, err := engine.Store().All(cmd.Context())
			if err != nil {
				return errors.Wrapf(err, "failed to list memories")
			}

			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return errors.WithStack(encoder.Encode(memories))
		},
	}
}
