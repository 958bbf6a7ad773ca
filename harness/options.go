package harness

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"github.com/swdee/go-rkiva"
	"github.com/swdee/go-rkiva/framesource"
	"github.com/swdee/go-rkiva/pump"
	"github.com/swdee/go-rkiva/sim"
)

// engine names
const (
	EngineRockIVA = "rockiva"
	EngineSim     = "sim"
)

// Options are the run parameters, decoded from viper
type Options struct {
	Width     uint32 `mapstructure:"width"`
	Height    uint32 `mapstructure:"height"`
	Path      string `mapstructure:"path"`
	Directory string `mapstructure:"directory"`
	FrameRate uint32 `mapstructure:"framerate"`
	ModelPath string `mapstructure:"model_path"`
	ModelName string `mapstructure:"model_name"`
	// ResultOutput is the result log path, empty disables it
	ResultOutput string `mapstructure:"result_output"`
	// LoopCount is nil when not given, a negative count runs until
	// interrupted
	LoopCount *int `mapstructure:"-"`
	// Sort orders the directory listing by name
	Sort       bool          `mapstructure:"sort"`
	Engine     string        `mapstructure:"engine"`
	SimLatency time.Duration `mapstructure:"sim_latency"`
	// Platform and CPUCores pin the process to a set of cores
	Platform string `mapstructure:"platform"`
	CPUCores string `mapstructure:"cpu_cores"`
}

// DefaultEngine is the hardware engine when compiled in, otherwise the
// simulator
func DefaultEngine() string {
	if rkiva.Available() {
		return EngineRockIVA
	}

	return EngineSim
}

// SetDefaults registers the option defaults on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("width", rkiva.DefaultWidth)
	v.SetDefault("height", rkiva.DefaultHeight)
	v.SetDefault("framerate", rkiva.DefaultFrameRate)
	v.SetDefault("model_path", rkiva.DefaultModelPath)
	v.SetDefault("model_name", rkiva.DefaultModelName)
	v.SetDefault("engine", DefaultEngine())
	v.SetDefault("sim_latency", sim.DefaultLatency)
}

// FromViper decodes Options from v.  The loop count is only set when it was
// given on the command line, environment or config file.
func FromViper(v *viper.Viper) (Options, error) {

	var opts Options

	if err := v.Unmarshal(&opts); err != nil {
		return opts, errors.Mark(errors.Wrap(err, "decoding options"), rkiva.ErrConfig)
	}

	if v.IsSet("loop_count") {
		n := v.GetInt("loop_count")
		opts.LoopCount = &n
	}

	return opts, nil
}

// Plan is the resolved form of Options ready to run
type Plan struct {
	Source *framesource.Source
	Engine rkiva.Config
	Pump   pump.Config
}

// Resolve validates the options, scans the input and works out the loop
// count.  A single path given with no loop count runs once, a directory with
// no loop count runs once per file.  When both a path and a directory are
// given the directory supplies the files.
func (o Options) Resolve() (*Plan, error) {

	engine := strings.ToLower(o.Engine)

	if engine != EngineRockIVA && engine != EngineSim {
		return nil, errors.Mark(errors.Newf("unknown engine %q, use %s or %s",
			o.Engine, EngineRockIVA, EngineSim), rkiva.ErrConfig)
	}

	if o.Path == "" && o.Directory == "" {
		return nil, errors.Mark(
			errors.WithHint(errors.New("no input given"),
				"set an input file with -p or a directory with -d"),
			rkiva.ErrConfig)
	}

	loop := -1
	loopSet := false

	if o.LoopCount != nil {
		loop = *o.LoopCount
		loopSet = true
	} else if o.Path != "" {
		loop = 1
		loopSet = true
	}

	var src *framesource.Source

	if o.Directory != "" {
		files, err := framesource.ScanDirectory(o.Directory, framesource.ScanOptions{Sort: o.Sort})

		if err != nil {
			return nil, err
		}

		src, err = framesource.NewDirectory(files)

		if err != nil {
			return nil, err
		}

		if !loopSet {
			loop = len(files)
		}

	} else {
		src = framesource.NewSingle(o.Path)
	}

	cfg := rkiva.DefaultConfig()
	cfg.Width = o.Width
	cfg.Height = o.Height
	cfg.FrameRate = o.FrameRate

	if o.ModelPath != "" {
		cfg.ModelPath = o.ModelPath
	}

	if o.ModelName != "" {
		cfg.ModelName = o.ModelName
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Plan{
		Source: src,
		Engine: cfg,
		Pump: pump.Config{
			Width:     cfg.Width,
			Height:    cfg.Height,
			Format:    cfg.Format,
			Transform: cfg.Transform,
			FrameRate: cfg.FrameRate,
			LoopCount: loop,
		},
	}, nil
}
