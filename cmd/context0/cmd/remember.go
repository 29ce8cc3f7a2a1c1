package cmd

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/CoderCouple/context0/errors"
	"github.com/CoderCouple/context0/memory"
	"github.com/spf13/cobra"
)

func newRememberCmd(params *rootParams) *cobra.Command {
	var sourceTag string

	cmd := &cobra.Command{
		Use:   "remember <text...>",
		Short: "Extract facts from text and store them as memories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, logger, err := newEngine(cmd, params)
			if err != nil {
				return err
			}
			defer engine.Close()

			text := strings.Join(args, " ")
			memories, err := engine.StoreMemory(cmd.Context(), text, memory.Metadata{
				SourceTag: sourceTag,
			})
			if err != nil {
				return errors.Wrapf(err, "failed to store memory")
			}

			logger.Info("stored memories", "count", len(memories))
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return errors.WithStack(encoder.Encode(memories))
		},
	}

	cmd.Flags().StringVar(&sourceTag, "source", "manual", "source tag recorded on stored memories")
	return cmd
}
