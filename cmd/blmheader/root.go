package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chrissnell/blmheader/internal/app"
	"github.com/chrissnell/blmheader/internal/constants"
	"github.com/chrissnell/blmheader/internal/log"
	"github.com/chrissnell/blmheader/pkg/config"
)

func newRootCommand() *cobra.Command {
	var (
		opts      app.Options
		cfgFile   string
		verbosity int
	)

	rootCmd := &cobra.Command{
		Use:   "blmheader <t>",
		Short: "Bruteforce the LHC's BLM headers",
		Long: `Build the header of a vector BLM signal: for every column, the individual
BLM signal it most likely carries, found by comparing the signals around t.

t is an epoch number (UTC) or a date string; zone-less dates are read in the
configured timezone.`,
		Version:       constants.Version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := log.Init(verbosity); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer log.Sync()

			filename, err := filepath.Abs(cfgFile)
			if err != nil {
				return err
			}
			opts.T = args[0]
			return app.New(config.NewYAMLProvider(filename), log.GetSugaredLogger()).Run(cmd.Context(), opts)
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&opts.T2, "t2", "", `end of the window, same format as t; when set --look-back and --look-forward are ignored`)
	f.StringVarP(&opts.LookBack, "look-back", "b", "30M", `look back amount, e.g. "1M", "4H"`)
	f.StringVarP(&opts.LookForward, "look-forward", "f", "30M", `look forward amount, e.g. "1M", "4H"`)
	f.IntVarP(&opts.Threads, "threads", "t", 1, "number of threads fetching candidate data")
	f.IntVarP(&opts.Jobs, "jobs", "n", -1, "number of parallel distance jobs, -1 for one per CPU")
	f.CountVarP(&verbosity, "verbose", "v", "verbosity, -v for info, -vv for debug")
	f.StringVarP(&opts.Output, "output", "o", app.Stdout, `file to write the header to; "{t}" is replaced by the requested time`)
	f.StringVar(&cfgFile, "config", "config.yaml", "path to the configuration file")
	f.BoolVar(&opts.Report, "report", false, "print a table of the matches to stderr")

	return rootCmd
}
