package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/swdee/go-rkiva"
	"github.com/swdee/go-rkiva/convert"
	"github.com/swdee/go-rkiva/logger"
	"github.com/swdee/go-rkiva/nv12"
)

// convertFlags are the options of the convert subcommand
type convertFlags struct {
	opts        convert.Options
	format      string
	imagesToYUV bool
}

// newConvertCmd returns the convert subcommand
func newConvertCmd() *cobra.Command {

	cf := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert INPUT",
		Short: "Extract NV12 input frames from a video or a directory of images",
		Long: `Given a video file, saves every Nth frame resized to the target size as jpeg,
raw RGB or NV12.  Given a directory of images, converts each one to an NV12
.yuv file.`,
		Args: cobra.ExactArgs(1),
		RunE: cf.run,
	}

	flags := cmd.Flags()

	flags.StringVarP(&cf.opts.OutDir, "output", "o", "output_images", "output directory")
	flags.IntVarP(&cf.opts.Interval, "interval", "i", 1, "save every Nth video frame")
	flags.IntVarP(&cf.opts.Width, "width", "w", rkiva.DefaultWidth, "output width")
	flags.IntVarP(&cf.opts.Height, "height", "H", rkiva.DefaultHeight, "output height")
	flags.StringVarP(&cf.format, "format", "f", string(convert.JPEG), "video frame format, jpeg|yuv|rgb")
	flags.BoolVar(&cf.imagesToYUV, "images-to-yuv", false, "treat INPUT as a directory of images to convert to NV12")

	return cmd
}

func (cf *convertFlags) run(cmd *cobra.Command, args []string) error {

	log := logger.Component("convert")
	input := args[0]

	info, err := os.Stat(input)

	if err != nil {
		return errors.Mark(errors.Wrapf(err, "input %s", input), rkiva.ErrConfig)
	}

	if info.IsDir() {
		n, err := nv12.ConvertDir(input, cf.opts.OutDir, cf.opts.Width,
			cf.opts.Height, log)

		if err != nil {
			return err
		}

		log.Infow("images converted", "count", n, "output", cf.opts.OutDir)
		return nil
	}

	if cf.imagesToYUV {
		log.Warnw("--images-to-yuv expects a directory, treating input as a video",
			logger.FieldFile, input)
	}

	format, ok := convert.ParseFormat(cf.format)

	if !ok {
		log.Warnw("unknown format, saving jpeg", "format", cf.format)
	}

	cf.opts.Format = format

	n, err := convert.VideoToFrames(input, cf.opts, log)

	if err != nil {
		return err
	}

	log.Infow("frames extracted", "count", n, "output", cf.opts.OutDir)

	return nil
}
