package config

import (
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/benz9527/xfleet/lib/infra"
)

const (
	FlagConfig        = "config"
	FlagLogLevel      = "log-level"
	FlagLogEncoder    = "log-encoder"
	FlagMetrics       = "metrics"
	FlagInputSize     = "input-size"
	FlagTrials        = "trials"
	FlagRepeats       = "repeats"
	FlagWorkers       = "workers"
	FlagClock         = "clock"
	FlagFixtureSize   = "size"
	FlagFixtureLost   = "lost-ratio"
	FlagFixtureSeed   = "seed"
	FlagBenchSeed     = "bench-seed"
	FlagVariability   = "variability"
	FlagMetricsPeriod = "metrics-interval"
)

// RegisterGlobalFlags adds the flags shared by every command.
func RegisterGlobalFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.String(FlagConfig, "", "path of the YAML config file")
	fs.String(FlagLogLevel, def.Log.Level, "log level, DEBUG|INFO|WARN|ERROR")
	fs.String(FlagLogEncoder, def.Log.Encoder, "log encoder, json|plaintext")
	fs.String(FlagMetrics, def.Metrics.Exporter, "metrics exporter, none|stdout|prometheus")
	fs.Duration(FlagMetricsPeriod, def.Metrics.Interval, "stdout metrics export interval")
}

func RegisterBenchFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.Int(FlagInputSize, def.Bench.InputSize, "ships in the first trial")
	fs.Int(FlagTrials, def.Bench.Trials, "number of trials, the size scales up per trial")
	fs.Int(FlagRepeats, def.Bench.Repeats, "measured runs averaged per trial")
	fs.Int(FlagWorkers, def.Bench.Workers, "workers preparing the fleets")
	fs.String(FlagClock, def.Bench.Clock, "clock measuring the runs, cpu|monotonic")
	fs.Float64(FlagVariability, def.Bench.Variability, "allowed distance from the expected scaling")
	fs.Uint64(FlagBenchSeed, def.Bench.Seed, "seed of the generated workloads")
}

func RegisterFixtureFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.Int(FlagFixtureSize, def.Fixture.Size, "ships in the demo fleet")
	fs.Float64(FlagFixtureLost, def.Fixture.LostRatio, "ratio of ships marked LOST")
	fs.Uint64(FlagFixtureSeed, def.Fixture.Seed, "seed of the demo fleet")
}

// FromFlags loads the config file named by --config, then overrides it with
// every flag set explicitly on the command line.
func FromFlags(fs *pflag.FlagSet) (*Config, error) {
	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return nil, infra.WrapErrorStack(err, "flag "+FlagConfig)
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	var merr error
	overrideString := func(name string, dst *string) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			v, e := fs.GetString(name)
			merr = multierr.Append(merr, e)
			*dst = v
		}
	}
	overrideInt := func(name string, dst *int) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			v, e := fs.GetInt(name)
			merr = multierr.Append(merr, e)
			*dst = v
		}
	}
	overrideFloat := func(name string, dst *float64) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			v, e := fs.GetFloat64(name)
			merr = multierr.Append(merr, e)
			*dst = v
		}
	}
	overrideUint64 := func(name string, dst *uint64) {
		if f := fs.Lookup(name); f != nil && f.Changed {
			v, e := fs.GetUint64(name)
			merr = multierr.Append(merr, e)
			*dst = v
		}
	}

	overrideString(FlagLogLevel, &cfg.Log.Level)
	overrideString(FlagLogEncoder, &cfg.Log.Encoder)
	overrideString(FlagMetrics, &cfg.Metrics.Exporter)
	if f := fs.Lookup(FlagMetricsPeriod); f != nil && f.Changed {
		v, e := fs.GetDuration(FlagMetricsPeriod)
		merr = multierr.Append(merr, e)
		cfg.Metrics.Interval = v
	}
	overrideInt(FlagInputSize, &cfg.Bench.InputSize)
	overrideInt(FlagTrials, &cfg.Bench.Trials)
	overrideInt(FlagRepeats, &cfg.Bench.Repeats)
	overrideInt(FlagWorkers, &cfg.Bench.Workers)
	overrideString(FlagClock, &cfg.Bench.Clock)
	overrideFloat(FlagVariability, &cfg.Bench.Variability)
	overrideUint64(FlagBenchSeed, &cfg.Bench.Seed)
	overrideInt(FlagFixtureSize, &cfg.Fixture.Size)
	overrideFloat(FlagFixtureLost, &cfg.Fixture.LostRatio)
	overrideUint64(FlagFixtureSeed, &cfg.Fixture.Seed)
	if merr != nil {
		return nil, infra.WrapErrorStack(merr, "read flags")
	}
	return cfg, nil
}
