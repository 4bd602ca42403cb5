// Package config loads the settings of the range analysis from vrp.conf
// files.
//
// Configuration files are looked up in a directory and all of its
// parents. Settings in files closer to the directory override those further
// away, which in turn override the defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"honnef.co/go/vrp/go/vrp"
)

type config struct {
	cfg  Config
	meta toml.MetaData
}

func (cfg config) Merge(ocfg config) config {
	if ocfg.meta.IsDefined("analysis", "narrowing") {
		cfg.cfg.Analysis.Narrowing = ocfg.cfg.Analysis.Narrowing
	}
	if ocfg.meta.IsDefined("analysis", "bit_width") {
		cfg.cfg.Analysis.BitWidth = ocfg.cfg.Analysis.BitWidth
	}
	if ocfg.meta.IsDefined("analysis", "interprocedural") {
		cfg.cfg.Analysis.Interprocedural = ocfg.cfg.Analysis.Interprocedural
	}
	if ocfg.meta.IsDefined("analysis", "workers") {
		cfg.cfg.Analysis.Workers = ocfg.cfg.Analysis.Workers
	}

	if ocfg.meta.IsDefined("output", "color") {
		cfg.cfg.Output.Color = ocfg.cfg.Output.Color
	}
	if ocfg.meta.IsDefined("output", "trace") {
		cfg.cfg.Output.Trace = ocfg.cfg.Output.Trace
	}
	if ocfg.meta.IsDefined("output", "format") {
		cfg.cfg.Output.Format = ocfg.cfg.Output.Format
	}
	return cfg
}

type Config struct {
	Analysis AnalysisConfig `toml:"analysis"`
	Output   OutputConfig   `toml:"output"`
}

type AnalysisConfig struct {
	// Narrowing is "cousot" or "crop".
	Narrowing string `toml:"narrowing"`
	// BitWidth overrides the width of the sentinels. Zero uses the widest
	// type of the input.
	BitWidth        int  `toml:"bit_width"`
	Interprocedural bool `toml:"interprocedural"`
	// Workers limits the number of functions solved in parallel. Zero
	// means no limit.
	Workers int `toml:"workers"`
}

type OutputConfig struct {
	// Color is "auto", "always" or "never".
	Color string `toml:"color"`
	Trace bool   `toml:"trace"`
	// Format is "text", "dot" or "json".
	Format string `toml:"format"`
}

var defaultConfig = Config{
	Analysis: AnalysisConfig{
		Narrowing:       vrp.Cousot.String(),
		Interprocedural: true,
	},
	Output: OutputConfig{
		Color:  "auto",
		Format: "text",
	},
}

// Default returns the configuration used when no file overrides it.
func Default() Config { return defaultConfig }

const configName = "vrp.conf"

func parseConfigs(dir string) ([]config, error) {
	var out []config

	for dir != "" {
		f, err := os.Open(filepath.Join(dir, configName))
		if os.IsNotExist(err) {
			ndir := filepath.Dir(dir)
			if ndir == dir {
				break
			}
			dir = ndir
			continue
		}
		if err != nil {
			return nil, err
		}
		var cfg Config
		meta, err := toml.DecodeReader(f, &cfg)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Join(dir, configName), err)
		}
		out = append(out, config{cfg, meta})
		ndir := filepath.Dir(dir)
		if ndir == dir {
			break
		}
		dir = ndir
	}
	out = append(out, config{
		cfg:  defaultConfig,
		meta: toml.MetaData{}, // meta of the base config should never be accessed
	})
	for i := 0; i < len(out)/2; i++ {
		out[i], out[len(out)-1-i] = out[len(out)-1-i], out[i]
	}
	return out, nil
}

func mergeConfigs(confs []config) Config {
	if len(confs) == 0 {
		// This shouldn't happen because we always have at least a
		// default config.
		panic("trying to merge zero configs")
	}
	conf := confs[0]
	for _, oconf := range confs[1:] {
		conf = conf.Merge(oconf)
	}
	return conf.cfg
}

// Load returns the configuration that applies to dir.
func Load(dir string) (Config, error) {
	confs, err := parseConfigs(dir)
	if err != nil {
		return Config{}, err
	}
	conf := mergeConfigs(confs)
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// Validate checks that every setting has a known value.
func (cfg Config) Validate() error {
	if _, err := cfg.Options(); err != nil {
		return err
	}
	if cfg.Analysis.Workers < 0 {
		return fmt.Errorf("invalid number of workers %d", cfg.Analysis.Workers)
	}
	switch cfg.Output.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color setting %q", cfg.Output.Color)
	}
	switch cfg.Output.Format {
	case "text", "dot", "json":
	default:
		return fmt.Errorf("invalid output format %q", cfg.Output.Format)
	}
	return nil
}

// Options returns the solver options of the configuration.
func (cfg Config) Options() (vrp.Options, error) {
	n, err := vrp.ParseNarrowing(cfg.Analysis.Narrowing)
	if err != nil {
		return vrp.Options{}, err
	}
	if cfg.Analysis.BitWidth < 0 {
		return vrp.Options{}, fmt.Errorf("invalid bit width %d", cfg.Analysis.BitWidth)
	}
	return vrp.Options{Narrowing: n, BitWidth: cfg.Analysis.BitWidth}, nil
}
