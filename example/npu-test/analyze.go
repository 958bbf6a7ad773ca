package main

import (
	"github.com/spf13/cobra"
	"github.com/swdee/go-rkiva/analyze"
)

// newAnalyzeCmd returns the analyze subcommand
func newAnalyzeCmd() *cobra.Command {

	var opts analyze.Options

	cmd := &cobra.Command{
		Use:   "analyze LOG...",
		Short: "Summarise detection scores of one or more result logs",
		Long: `Reads result logs written with -o, prints the detection rate, score statistics
and a score histogram of each and writes the files of each score range to text
files.  With --compare the logs are printed side by side instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Logs = args
			return analyze.Run(opts, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()

	flags.BoolVar(&opts.Compare, "compare", false, "compare the logs side by side")
	flags.StringVar(&opts.OutDir, "out", ".", "directory to write score range file lists")
	flags.StringVar(&opts.ROI, "roi", "", "region of interest polygon x1,y1,x2,y2,...")
	flags.Float64Var(&opts.ROIMin, "roi_min", 0.5, "fraction of a box inside the region to count as a hit")

	return cmd
}
