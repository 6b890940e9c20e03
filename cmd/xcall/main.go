// xcall runs the cross-contract flipper scenario against an in-memory state
// database and prints how each invocation style commits storage.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Write logs to a rotated file instead of the terminal",
	}
	maxDepthFlag = &cli.IntFlag{
		Name:  "maxdepth",
		Usage: "Maximum number of stacked frames per message",
	}
	refTimeFlag = &cli.Uint64Flag{
		Name:  "reftime",
		Usage: "Ref time limit of every message (0 = unbounded)",
	}
	proofSizeFlag = &cli.Uint64Flag{
		Name:  "proofsize",
		Usage: "Proof size limit of every message (0 = unbounded)",
	}
	depositFlag = &cli.Uint64Flag{
		Name:  "deposit",
		Usage: "Storage deposit limit of every message (0 = unbounded)",
	}
	flushesFlag = &cli.BoolFlag{
		Name:  "flushes",
		Usage: "Print the flush log of every message",
	}
	dumpFlag = &cli.BoolFlag{
		Name:  "dump",
		Usage: "Dump every receipt in full",
	}
)

var app = &cli.App{
	Name:  "xcall",
	Usage: "cross-contract invocation runtime",
	Flags: []cli.Flag{configFileFlag, verbosityFlag, logFileFlag},
	Commands: []*cli.Command{
		{
			Name:   "demo",
			Usage:  "Deploy the flipper contracts in memory and run the delegate scenario",
			Flags:  []cli.Flag{maxDepthFlag, refTimeFlag, proofSizeFlag, depositFlag, flushesFlag, dumpFlag},
			Action: runDemo,
		},
		{
			Name:      "selector",
			Usage:     "Print the selectors of entry-point names",
			ArgsUsage: "<name> [<name>...]",
			Action:    printSelectors,
		},
		{
			Name:      "dumpconfig",
			Usage:     "Export configuration values in a TOML format",
			ArgsUsage: "<dumpfile (optional)>",
			Flags:     []cli.Flag{maxDepthFlag, refTimeFlag, proofSizeFlag, depositFlag},
			Action:    dumpConfig,
		},
	},
	Before: func(ctx *cli.Context) error {
		cfg, err := makeConfig(ctx)
		if err != nil {
			return err
		}
		setupLogging(cfg.Log)
		return nil
	},
}

func setupLogging(cfg LogConfig) {
	var (
		output   = io.Writer(os.Stderr)
		useColor = cfg.Color && (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	)
	switch {
	case cfg.File != "":
		output = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
		useColor = false
	case useColor:
		output = colorable.NewColorableStderr()
	}
	handler := log.NewGlogHandler(log.NewTerminalHandler(output, useColor))
	handler.Verbosity(log.FromLegacyLevel(cfg.Verbosity))
	log.SetDefault(log.NewLogger(handler))
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
