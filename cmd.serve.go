package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newServeCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the books catalog api server",
		Example: `  # Start server with the default configuration files
  books-catalog serve

  # Start server with a custom configuration file
  books-catalog serve --config /etc/books/config.yml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *cliOptions) error {
	config, err := opts.loadConfig()
	if err != nil {
		return err
	}
	app, err := NewApp(config)
	if err != nil {
		return fmt.Errorf("application failed to initialize: %w", err)
	}
	if err = app.Run(cmd.Context()); err != nil {
		return fmt.Errorf("application exited. check logs for more details: %w", err)
	}
	return nil
}
