package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/clydemeng/xcall/core/vm"
	"github.com/holiman/uint256"
	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// RuntimeConfig configures the runtime and the limits every message of the
// demo is sent with. Zero limits are unbounded.
type RuntimeConfig struct {
	MaxDepth            int
	RefTimeLimit        uint64
	ProofSizeLimit      uint64
	StorageDepositLimit uint64 `toml:",omitempty"`
	DepositPerItem      uint64
}

// LogConfig configures the logger. Logs go to the terminal unless File is
// set, in which case they go to a size-rotated file.
type LogConfig struct {
	Verbosity  int
	Color      bool
	File       string `toml:",omitempty"`
	MaxSize    int    // megabytes before rotation
	MaxBackups int
	Compress   bool
}

type xcallConfig struct {
	Runtime RuntimeConfig
	Log     LogConfig
}

func defaultConfig() xcallConfig {
	return xcallConfig{
		Runtime: RuntimeConfig{
			MaxDepth:       vm.DefaultMaxDepth,
			RefTimeLimit:   10_000_000,
			ProofSizeLimit: 1 << 20,
			DepositPerItem: vm.DefaultSchedule().DepositPerItem.Uint64(),
		},
		Log: LogConfig{Verbosity: 3, Color: true, MaxSize: 100, MaxBackups: 10},
	}
}

func loadConfig(file string, cfg *xcallConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the configuration file, if any, and applies the command
// line flags on top of it.
func makeConfig(ctx *cli.Context) (xcallConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(verbosityFlag.Name) {
		cfg.Log.Verbosity = ctx.Int(verbosityFlag.Name)
	}
	if ctx.IsSet(logFileFlag.Name) {
		cfg.Log.File = ctx.String(logFileFlag.Name)
	}
	if ctx.IsSet(maxDepthFlag.Name) {
		cfg.Runtime.MaxDepth = ctx.Int(maxDepthFlag.Name)
	}
	if ctx.IsSet(refTimeFlag.Name) {
		cfg.Runtime.RefTimeLimit = ctx.Uint64(refTimeFlag.Name)
	}
	if ctx.IsSet(proofSizeFlag.Name) {
		cfg.Runtime.ProofSizeLimit = ctx.Uint64(proofSizeFlag.Name)
	}
	if ctx.IsSet(depositFlag.Name) {
		cfg.Runtime.StorageDepositLimit = ctx.Uint64(depositFlag.Name)
	}
	return cfg, nil
}

// vmConfig returns the runtime configuration.
func (c RuntimeConfig) vmConfig() *vm.Config {
	sched := vm.DefaultSchedule()
	sched.DepositPerItem = uint256.NewInt(c.DepositPerItem)
	return &vm.Config{MaxDepth: c.MaxDepth, Schedule: sched}
}

// limits returns the limits top-level messages are sent with.
func (c RuntimeConfig) limits() vm.Limits {
	l := vm.Limits{RefTime: c.RefTimeLimit, ProofSize: c.ProofSizeLimit}
	if c.StorageDepositLimit != 0 {
		l.StorageDepositLimit = uint256.NewInt(c.StorageDepositLimit)
	}
	return l
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	_, err = dump.Write(out)
	return err
}
