package cmd

import (
	"context"
	"fmt"

	"github.com/mordilloSan/go-xtlog/logger"
	"github.com/urfave/cli/v3"
)

// GlobalFlags are shared by every command. Unset flags defer to the LOG_*
// environment and then to the logger defaults.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "level",
			Usage: "Minimum level (TRACE, DEBUG, INFO, SUCCESS, WARNING, ERROR, CRITICAL)",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Line format (default, simple, detailed, json)",
		},
		&cli.StringFlag{
			Name:  "dir",
			Usage: "Log directory",
		},
		&cli.StringFlag{
			Name:  "file",
			Usage: "Log file name; {date} expands to YYYYMMDD",
		},
		&cli.StringFlag{
			Name:  "rotation",
			Usage: "Rotate the file past this size, e.g. \"16 MB\"",
		},
		&cli.StringFlag{
			Name:  "retention",
			Usage: "Delete rotated files older than this, e.g. \"30 days\"",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Serialize entries as JSON",
		},
		&cli.BoolFlag{
			Name:  "color",
			Usage: "Colorize levels on the console",
		},
		&cli.StringSliceFlag{
			Name:  "env-file",
			Usage: "Load variables from these files (default: .env if present)",
		},
	}
}

// LoadEnv loads the --env-file files, or ./.env when none are given.
func LoadEnv(ctx context.Context, c *cli.Command) (context.Context, error) {
	if err := logger.LoadEnvFile(c.StringSlice("env-file")...); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// configFromFlags builds the explicit logger configuration from the flags
// the user set.
func configFromFlags(c *cli.Command) (logger.Config, error) {
	cfg := logger.Config{
		Format:       c.String("format"),
		Dir:          c.String("dir"),
		FileName:     c.String("file"),
		RotationSize: c.String("rotation"),
		Retention:    c.String("retention"),
	}
	if c.IsSet("json") {
		cfg.Serialize = logger.Bool(c.Bool("json"))
	}
	if c.IsSet("color") {
		cfg.Colorize = logger.Bool(c.Bool("color"))
	}
	if s := c.String("level"); s != "" {
		level, err := logger.ParseLevel(s)
		if err != nil {
			return cfg, fmt.Errorf("--level: %w", err)
		}
		cfg.Level = level
	}
	return cfg, nil
}
