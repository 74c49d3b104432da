package main

import (
	"github.com/spf13/cobra"
)

// cliOptions holds the flags shared by every command.
type cliOptions struct {
	configFile string
	envFile    string
}

// loadConfig builds the configuration from the files named by the flags.
func (o *cliOptions) loadConfig() (*Config, error) {
	return LoadAndInitConfigs(o.configFile, o.envFile, GitCommit, GitTag, BuildTime)
}

// NewRootCmd provides the books catalog command. Without any
// subcommand it behaves like `serve`.
func NewRootCmd() *cobra.Command {
	opts := &cliOptions{}
	cmd := &cobra.Command{
		Use:   "books-catalog",
		Short: "Books catalog web service",
		Long: `Books catalog exposes a small json api to add, list and fetch books.

Books are persisted in redis, boltdb, sqlite or postgres depending on the
configured storage driver. A login endpoint issues access tokens required
by protected resources.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "./config.yml", "Path to the yaml configuration file")
	cmd.PersistentFlags().StringVarP(&opts.envFile, "env-file", "e", "./config.env", "Path to the optional env file")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newStorageCmd(opts))

	return cmd
}
