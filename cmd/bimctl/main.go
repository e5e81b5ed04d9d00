// Package main is the bimsight command line tool.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"bimsight/internal/logging"
)

const (
	flagConfig     = "config"
	flagDebug      = "debug"
	flagModel      = "model"
	flagDetections = "detections"
	flagSession    = "session"
	flagDB         = "db"
	flagLimit      = "limit"
	flagFormat     = "format"
	flagMinConf    = "min-confidence"
	flagOutput     = "output"
)

var logger = zap.NewNop()

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "bimctl",
		Usage: "check detections against a BIM reference model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if !c.Bool(flagDebug) {
				return nil
			}
			l, err := logging.NewLogger("bimctl", "debug")
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "evaluate",
				Usage:     "score recorded detection frames against the model",
				UsageText: "bimctl evaluate --detections frames.json [--model model.json]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagModel, Usage: "reference model `FILE` (default: config or simulated)"},
					&cli.StringFlag{Name: flagDetections, Usage: "recorded frames `FILE`", Required: true},
					&cli.StringFlag{Name: flagSession, Usage: "session name", Value: "cli"},
					&cli.Float64Flag{Name: flagMinConf, Usage: "drop detections below this confidence"},
					&cli.StringFlag{Name: flagDB, Usage: "store every frame as a sample in this database"},
				},
				Action: evaluateAction,
			},
			{
				Name:  "model",
				Usage: "inspect the reference model",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagModel, Usage: "reference model `FILE` (default: config or simulated)"},
				},
				Action: modelAction,
				Subcommands: []*cli.Command{
					{
						Name:  "export",
						Usage: "write the normalized model as json or yaml",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: flagModel, Usage: "reference model `FILE`"},
							&cli.StringFlag{Name: flagFormat, Usage: "json or yaml", Value: "yaml"},
						},
						Action: modelExportAction,
					},
				},
			},
			{
				Name:  "sessions",
				Usage: "list stored sessions",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagDB, Usage: "database `FILE` (default: config)"},
				},
				Action: sessionsAction,
			},
			{
				Name:  "summary",
				Usage: "show statistics of a stored session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagDB, Usage: "database `FILE` (default: config)"},
					&cli.StringFlag{Name: flagSession, Usage: "session name", Required: true},
					&cli.IntFlag{Name: flagLimit, Usage: "also list up to `N` samples"},
				},
				Action: summaryAction,
			},
			{
				Name:   "config",
				Usage:  "show or create the configuration",
				Action: configShowAction,
				Subcommands: []*cli.Command{
					{
						Name:  "init",
						Usage: "write a default configuration file",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: flagOutput, Usage: "destination `FILE` (default: user config path)"},
						},
						Action: configInitAction,
					},
				},
			},
		},
	}
}
