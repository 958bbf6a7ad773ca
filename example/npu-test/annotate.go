package main

import (
	"github.com/spf13/cobra"
	"github.com/swdee/go-rkiva/logger"
	"github.com/swdee/go-rkiva/render"
)

// newAnnotateCmd returns the annotate subcommand
func newAnnotateCmd() *cobra.Command {

	opts := render.DefaultAnnotateOptions()

	cmd := &cobra.Command{
		Use:   "annotate LOG",
		Short: "Draw the detections of a result log over their frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			_, err := render.AnnotateLog(args[0], opts, logger.Component("annotate"))

			return err
		},
	}

	flags := cmd.Flags()

	flags.StringVarP(&opts.OutDir, "output", "o", "annotated", "output directory")
	flags.IntVarP(&opts.Width, "width", "w", opts.Width, "frame width")
	flags.IntVarP(&opts.Height, "height", "h", opts.Height, "frame height")
	flags.BoolVar(&opts.Tracked, "tracked", false, "colour by object id and draw movement trails")
	flags.IntVar(&opts.TrailSize, "trail_size", opts.TrailSize, "trail points kept per object")
	flags.IntVar(&opts.MinScore, "min_score", 0, "skip objects scoring below this")

	return cmd
}
