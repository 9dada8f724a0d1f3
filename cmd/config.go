package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/procsim/procsim/sim"
)

// envPrefix prefixes every environment override, e.g. PROCSIM_MEMORY.
const envPrefix = "PROCSIM_"

// simFlags binds the simulation parameters to a command's flags.
type simFlags struct {
	configPath string
	envFile    string
	values     sim.Config
}

// param ties a flag and its environment variable to a Config field.
type param struct {
	flag  string
	env   string
	field func(*sim.Config) *int64
}

var params = []param{
	{"memory", "MEMORY", func(c *sim.Config) *int64 { return &c.MemoryCapacity }},
	{"quantum", "QUANTUM", func(c *sim.Config) *int64 { return &c.CPUQuantum }},
	{"io-time", "IO_TIME", func(c *sim.Config) *int64 { return &c.AvgIODuration }},
	{"length", "LENGTH", func(c *sim.Config) *int64 { return &c.SimulationLength }},
	{"arrival-interval", "ARRIVAL_INTERVAL", func(c *sim.Config) *int64 { return &c.AvgArrivalInterval }},
	{"seed", "SEED", func(c *sim.Config) *int64 { return &c.Seed }},
}

func (f *simFlags) register(fs *pflag.FlagSet) {
	d := sim.DefaultConfig()
	fs.StringVar(&f.configPath, "config", "", "YAML file with simulation parameters")
	fs.StringVar(&f.envFile, "env-file", "", "dotenv file with "+envPrefix+"* overrides")
	fs.Int64Var(&f.values.MemoryCapacity, "memory", d.MemoryCapacity, "Memory capacity (KB, at least 400)")
	fs.Int64Var(&f.values.CPUQuantum, "quantum", d.CPUQuantum, "CPU time slice (ms)")
	fs.Int64Var(&f.values.AvgIODuration, "io-time", d.AvgIODuration, "Average I/O operation duration (ms)")
	fs.Int64Var(&f.values.SimulationLength, "length", d.SimulationLength, "Simulated time (ms)")
	fs.Int64Var(&f.values.AvgArrivalInterval, "arrival-interval", d.AvgArrivalInterval, "Average time between process arrivals (ms); 0 disables arrivals")
	fs.StringVar(&f.values.ArrivalProcess, "arrival-process", d.ArrivalProcess, "Inter-arrival distribution (uniform, poisson, gamma, weibull)")
	fs.Float64Var(&f.values.ArrivalCV, "arrival-cv", d.ArrivalCV, "Coefficient of variation of gamma and weibull arrivals")
	fs.Int64Var(&f.values.Seed, "seed", d.Seed, "Seed for process demands, arrivals and I/O durations")
	fs.BoolVar(&f.values.Debug, "debug", false, "Panic on invariant violations and stale events")
}

// resolve layers the defaults, the config file, the environment and the
// flags that were set explicitly, in that order, and validates the result.
func (f *simFlags) resolve(fs *pflag.FlagSet) (sim.Config, error) {
	cfg := sim.DefaultConfig()

	if f.configPath != "" {
		var err error
		if cfg, err = loadConfigFile(f.configPath, cfg); err != nil {
			return cfg, err
		}
	}

	lookup, err := envLookup(f.envFile)
	if err != nil {
		return cfg, err
	}
	if cfg, err = applyEnv(cfg, lookup); err != nil {
		return cfg, err
	}

	for _, p := range params {
		if fs.Changed(p.flag) {
			*p.field(&cfg) = *p.field(&f.values)
		}
	}
	if fs.Changed("arrival-process") {
		cfg.ArrivalProcess = f.values.ArrivalProcess
	}
	if fs.Changed("arrival-cv") {
		cfg.ArrivalCV = f.values.ArrivalCV
	}
	if fs.Changed("debug") {
		cfg.Debug = f.values.Debug
	}

	return cfg, cfg.Validate()
}

// loadConfigFile overlays the YAML file at path onto base.
// Unknown keys are errors so typos do not go unnoticed.
func loadConfigFile(path string, base sim.Config) (sim.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config file: %w", err)
	}

	cfg := base
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// envLookup returns the process environment, backed by the dotenv file at
// path when one is given. Variables already set in the environment win.
func envLookup(path string) (func(string) (string, bool), error) {
	if path == "" {
		return os.LookupEnv, nil
	}
	fileValues, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileValues[key]
		return v, ok
	}, nil
}

func applyEnv(cfg sim.Config, lookup func(string) (string, bool)) (sim.Config, error) {
	for _, p := range params {
		raw, ok := lookup(envPrefix + p.env)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("%s%s=%q is not an integer", envPrefix, p.env, raw)
		}
		*p.field(&cfg) = v
	}

	if raw, ok := lookup(envPrefix + "ARRIVAL_PROCESS"); ok && strings.TrimSpace(raw) != "" {
		cfg.ArrivalProcess = strings.TrimSpace(raw)
	}
	if raw, ok := lookup(envPrefix + "ARRIVAL_CV"); ok && strings.TrimSpace(raw) != "" {
		cv, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return cfg, fmt.Errorf("%sARRIVAL_CV=%q is not a number", envPrefix, raw)
		}
		cfg.ArrivalCV = cv
	}

	if raw, ok := lookup(envPrefix + "DEBUG"); ok && strings.TrimSpace(raw) != "" {
		debug, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return cfg, fmt.Errorf("%sDEBUG=%q is not a boolean", envPrefix, raw)
		}
		cfg.Debug = debug
	}
	return cfg, nil
}
