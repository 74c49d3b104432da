package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStorageCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Maintenance operations on the books storage",
	}
	cmd.AddCommand(newStorageResetCmd(opts))
	return cmd
}

func newStorageResetCmd(opts *cliOptions) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the books storage",
		Long: `Reset removes every stored book and restarts ids allocation.
When the boltdb mirror is enabled the reset is forwarded to it.`,
		Example: `  books-catalog storage reset --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("storage reset deletes all books: confirm with --yes")
			}
			config, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, closer, err := SetupLogger(config)
			if err != nil {
				return err
			}
			defer closer()

			backends, err := SetupBackends(logger, config)
			if err != nil {
				return err
			}
			defer backends.Close()

			maintainer := NewStorageMaintainer(logger.With(zap.String("cli.command", "storage reset")), backends.Store, backends.Queue)
			if err = maintainer.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("failed to reset %s storage: %w", config.Storage.Driver, err)
			}
			cmd.Printf("%s storage has been reset\n", config.Storage.Driver)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm the destructive reset")
	return cmd
}
