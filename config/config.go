package config

import (
	"os"
	"runtime"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xfleet/lib/fleet"
	"github.com/benz9527/xfleet/lib/hrtime"
	"github.com/benz9527/xfleet/lib/infra"
	"github.com/benz9527/xfleet/observability"
)

type LogConfig struct {
	Level   string `yaml:"level"`
	Encoder string `yaml:"encoder"`
}

// BenchConfig drives the scaling checks. Trial i measures InputSize*Scaling^i
// ships and averages Repeats runs. Neighbouring trials pass when their time
// ratio is within Variability of the expected n*log(n) ratio.
type BenchConfig struct {
	InputSize   int     `yaml:"inputSize"`
	Trials      int     `yaml:"trials"`
	Repeats     int     `yaml:"repeats"`
	Scaling     int     `yaml:"scaling"`
	Variability float64 `yaml:"variability"`
	Workers     int     `yaml:"workers"`
	Clock       string  `yaml:"clock"`
	Seed        uint64  `yaml:"seed"`
}

type FixtureConfig struct {
	Size      int     `yaml:"size"`
	LostRatio float64 `yaml:"lostRatio"`
	Seed      uint64  `yaml:"seed"`
}

type MetricsConfig struct {
	Exporter string        `yaml:"exporter"`
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Bench   BenchConfig   `yaml:"bench"`
	Fixture FixtureConfig `yaml:"fixture"`
	Metrics MetricsConfig `yaml:"metrics"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "INFO",
			Encoder: "plaintext",
		},
		Bench: BenchConfig{
			InputSize:   1000,
			Trials:      2,
			Repeats:     50,
			Scaling:     2,
			Variability: 0.4,
			Workers:     runtime.NumCPU(),
			Clock:       hrtime.ProcessCPU.String(),
			Seed:        1,
		},
		Fixture: FixtureConfig{
			Size:      20,
			LostRatio: 0.25,
			Seed:      1,
		},
		Metrics: MetricsConfig{
			Exporter: observability.NoneExporter.String(),
			Interval: 10 * time.Second,
		},
	}
}

// Parse overlays the YAML document on the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, infra.WrapErrorStack(err, "parse config")
	}
	return cfg, nil
}

// Load reads the YAML file at path. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if len(strings.TrimSpace(path)) == 0 {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "read config "+path)
	}
	return Parse(data)
}

func (cfg *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(cfg)
}

func invalid(field string) error {
	return infra.NewErrorStack("invalid config " + field)
}

// Validate reports every invalid field at once.
func (cfg *Config) Validate() error {
	var err error
	b := cfg.Bench
	if b.InputSize <= 0 {
		err = multierr.Append(err, invalid("bench.inputSize"))
	}
	if b.Trials < 2 {
		err = multierr.Append(err, invalid("bench.trials"))
	}
	if b.Repeats < 1 {
		err = multierr.Append(err, invalid("bench.repeats"))
	}
	if b.Scaling < 2 {
		err = multierr.Append(err, invalid("bench.scaling"))
	}
	if b.Variability < 0 || b.Variability >= 1 {
		err = multierr.Append(err, invalid("bench.variability"))
	}
	if b.Workers < 1 {
		err = multierr.Append(err, invalid("bench.workers"))
	}
	if b.Clock != hrtime.ProcessCPU.String() && b.Clock != hrtime.Monotonic.String() {
		err = multierr.Append(err, invalid("bench.clock"))
	}
	if b.Trials >= 2 && b.Scaling >= 2 && b.InputSize > 0 {
		// Remove trials insert twice the input size.
		largest := 2 * b.InputSize
		for i := 1; i < b.Trials && largest <= fleet.MaxID; i++ {
			largest *= b.Scaling
		}
		if largest > fleet.MaxID-fleet.MinID+1 {
			err = multierr.Append(err, invalid("bench.inputSize exceeds id range"))
		}
	}

	f := cfg.Fixture
	if f.Size < 0 || f.Size > fleet.MaxID-fleet.MinID+1 {
		err = multierr.Append(err, invalid("fixture.size"))
	}
	if f.LostRatio < 0 || f.LostRatio > 1 {
		err = multierr.Append(err, invalid("fixture.lostRatio"))
	}

	if _, e := observability.ParseExporterType(cfg.Metrics.Exporter); e != nil {
		err = multierr.Append(err, e)
	}
	if cfg.Metrics.Interval < 0 {
		err = multierr.Append(err, invalid("metrics.interval"))
	}
	return err
}
