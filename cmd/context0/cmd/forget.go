package cmd

import (
	"github.com/CoderCouple/context0/errors"
	"github.com/spf13/cobra"
)

func newForgetCmd(params *rootParams) *cobra.Command {
	return &cobra.Command{
		Use:   "forget <memory-id>",
		Short: "Delete one memory by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, logger, err := newEngine(cmd, params)
			if err != nil {
				return err
			}
			defer engine.Close()

			deleted, err := engine.DeleteMemory(cmd.Context(), args[0])
			if err != nil {
				return errors.Wrapf(err, "failed to delete memory")
			}
			if !deleted {
				logger.Warn("no memory with that id", "id", args[0])
				return nil
			}
			logger.Info("memory deleted", "id", args[0])
			return nil
		},
	}
}

func newClearCmd(params *rootParams) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}

			engine, logger, err := newEngine(cmd, params)
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.ClearAllMemories(cmd.Context()); err != nil {
				return errors.Wrapf(err, "failed to clear memories")
			}
			logger.Info("all memories cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")
	return cmd
}
