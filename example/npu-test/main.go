// Command npu-test feeds NV12 frames into the IVA object detection engine at a
// fixed rate and records the detections.  Subcommands analyse result logs,
// convert video or images into input frames and draw logged detections.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/swdee/go-rkiva"
	"github.com/swdee/go-rkiva/harness"
	"github.com/swdee/go-rkiva/logger"
	"github.com/swdee/go-rkiva/sim"
)

// errUsage is returned when usage was printed in response to bad flags
var errUsage = errors.New("usage")

// boundKeys are the flags read through viper
var boundKeys = []string{"width", "height", "path", "directory", "model_path",
	"model_name", "result_output", "loop_count", "sort", "engine", "sim_latency",
	"platform", "cpu_cores"}

// cli holds the state of one command line invocation
type cli struct {
	cfg *viper.Viper

	// run executes the detection test
	run func(harness.Options) (int, error)

	// exitCode of the detection run
	exitCode int

	// framerate is shared by -r and -t so the last one given wins
	framerate uint32

	configFile string
	logJSON    bool
	logLevel   string
}

// newCLI returns the root command and its state
func newCLI() (*cli, *cobra.Command) {

	c := &cli{
		cfg: viper.New(),
		run: harness.Run,
	}

	rootCmd := &cobra.Command{
		Use:   "npu-test",
		Short: "Run IVA object detection over YUV frames",
		Long: `Feeds raw NV12 frames, a single file or a directory of .yuv files, into the
IVA object detection engine at a target frame rate with one frame in flight and
optionally writes each detection result to a result log.`,
		Example: `  npu-test -w 720 -h 480 -p /mnt/sdcard/test_image.yuv -l /tmp/ -n iva_object_detection_v3_pfp_nn_640x384.data -r 10 -o result.txt
  npu-test -w 720 -h 480 -d /mnt/sdcard/yuv_images/ -l /tmp/ -n iva_object_detection_v3_pfp_nn_640x384.data -r 10 -o result.txt`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Initialize(logger.Options{JSON: c.logJSON, Level: c.logLevel})
		},
		RunE: c.runDetect,
	}

	flags := rootCmd.Flags()

	flags.SortFlags = false
	flags.Uint32P("width", "w", rkiva.DefaultWidth, "input image width")
	flags.Uint32P("height", "h", rkiva.DefaultHeight, "input image height")
	flags.StringP("path", "p", "", "input image path")
	flags.StringP("directory", "d", "", "input images directory")
	flags.Uint32VarP(&c.framerate, "framerate", "r", rkiva.DefaultFrameRate, "iva detect framerate")
	flags.Uint32VarP(&c.framerate, "detectrate", "t", rkiva.DefaultFrameRate, "iva detect framerate, same as -r")
	flags.StringP("model_path", "l", rkiva.DefaultModelPath, "model path")
	flags.StringP("model_name", "n", rkiva.DefaultModelName, "model name")
	flags.StringP("result_output", "o", "", "output result file path")
	flags.IntP("loop_count", "c", -1, "number of frames to submit, negative runs until interrupted (default one pass over the input)")
	flags.Bool("sort", false, "process directory files in name order")
	flags.String("engine", harness.DefaultEngine(), "detection engine, rockiva or sim")
	flags.Duration("sim_latency", sim.DefaultLatency, "processing time per frame of the sim engine")
	flags.String("platform", "", "pin cpu affinity for platform rv1103|rv1106|rk3562|rk3566|rk3568|rk3576|rk3588")
	flags.String("cpu_cores", "all", "cores to pin to with --platform, fast|slow|all")
	flags.StringVar(&c.configFile, "config", "", "config file (yaml, toml or json)")
	flags.BoolP("help", "?", false, "show usage")

	rootCmd.PersistentFlags().BoolVar(&c.logJSON, "log_json", false, "log as json")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log_level", "info", "log level, debug|info|warn|error")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		_ = cmd.Usage()
		return errUsage
	})

	for _, key := range boundKeys {
		_ = c.cfg.BindPFlag(key, flags.Lookup(key))
	}

	rootCmd.AddCommand(newAnalyzeCmd(), newConvertCmd(), newAnnotateCmd())

	return c, rootCmd
}

// runDetect is the detection test
func (c *cli) runDetect(cmd *cobra.Command, args []string) error {

	// no options at all, print the usage as a hint
	if cmd.Flags().NFlag() == 0 && len(args) == 0 && c.configFile == "" {
		return cmd.Usage()
	}

	opts, err := c.options(cmd)

	if err != nil {
		c.exitCode = 1
		return err
	}

	c.exitCode, err = c.run(opts)

	return err
}

// options resolves the run options from flags, environment and config file
func (c *cli) options(cmd *cobra.Command) (harness.Options, error) {

	if err := c.loadConfig(cmd); err != nil {
		return harness.Options{}, err
	}

	return harness.FromViper(c.cfg)
}

// loadConfig layers the config file and environment under the flags
func (c *cli) loadConfig(cmd *cobra.Command) error {

	harness.SetDefaults(c.cfg)

	c.cfg.SetEnvPrefix("RKIVA")
	c.cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.cfg.AutomaticEnv()

	if c.configFile != "" {
		c.cfg.SetConfigFile(c.configFile)

		if err := c.cfg.ReadInConfig(); err != nil {
			return errors.Mark(errors.Wrapf(err, "reading config file %s", c.configFile),
				rkiva.ErrConfig)
		}
	}

	// -r and -t share a variable so whichever was parsed last holds the value
	flags := cmd.Flags()

	if flags.Changed("framerate") || flags.Changed("detectrate") {
		c.cfg.Set("framerate", c.framerate)
	}

	return nil
}

func main() {

	c, rootCmd := newCLI()

	err := rootCmd.Execute()
	logger.Sync()

	code := c.exitCode

	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		// bad flags print the usage and are not a failure
		code = 0
	case errors.Is(err, rkiva.ErrInterrupted):
		// interrupting the run is a normal exit
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)

		if hints := errors.FlattenHints(err); hints != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hints)
		}

		if code == 0 {
			code = 1
		}
	}

	os.Exit(code)
}
