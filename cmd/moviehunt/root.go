package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var opts rootOptions

	ctx := newCommandContext(&opts)

	rootCmd := &cobra.Command{
		Use:           "moviehunt",
		Short:         "Query the film catalog through the result cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Configuration file path")
	flags.StringVar(&opts.seedPath, "seed", "", "JSON file of films to load into an empty database")
	flags.StringVar(&opts.logLevel, "log-level", "", "Override log.level")
	flags.IntVar(&opts.repeat, "repeat", 1, "Run the query this many times to show cache hits")
	flags.BoolVar(&opts.stats, "stats", false, "Print cache statistics after the query")
	flags.BoolVar(&opts.json, "json", false, "Print results as JSON")

	rootCmd.AddCommand(newTopRatedCommand(ctx))
	rootCmd.AddCommand(newGenreCommand(ctx))
	rootCmd.AddCommand(newYearsCommand(ctx))
	rootCmd.AddCommand(newLatestCommand(ctx))
	rootCmd.AddCommand(newFilmCommand(ctx))
	rootCmd.AddCommand(newProvidersCommand(ctx))

	return rootCmd
}
