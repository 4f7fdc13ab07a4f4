package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mordilloSan/go-xtlog/logger"
	"github.com/urfave/cli/v3"
)

// DemoCommand writes one entry of every kind through the process-wide logger.
func DemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "Log a sample of every level and logging style",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := configFromFlags(c)
			if err != nil {
				return err
			}
			if err := logger.Init(cfg); err != nil {
				return err
			}
			defer logger.Close() // Don't forget to close the log file!

			runDemo()
			fmt.Printf("logged to %s\n", logger.Default().Settings().Path)
			return nil
		},
	}
}

func runDemo() {
	// Formatted logging (classic)
	logger.Tracef("starting at %v", time.Now())
	logger.Debugf("debug is on")
	logger.Infof("hello %s", "world")
	logger.Success("migration finished")
	logger.Warning("be careful")
	logger.Errorf("oops: %v", "something happened")
	logger.Critical("disk almost full")

	// Structured logging with key-value pairs
	logger.InfoKV("request completed",
		"duration_ms", 42,
		"status", 200,
		"path", "/api/users",
		"method", "GET")

	logger.ErrorKV("database connection failed", logger.Fields{
		"host":        "localhost",
		"port":        5432,
		"retry_count": 3,
	})

	// API logging (automatic level selection based on HTTP status code)
	logger.Api(200, "request successful")
	logger.Api(301, "redirect to new location")
	logger.Api(404, "resource not found")
	logger.Api(500, "internal server error")

	// Direct form: every argument is its own INFO entry
	logger.Print("first", "second", "third")

	logger.Exception(errors.New("division by zero"), "calculation failed", "operand", 0)

	// Explicit attribution
	logger.CallFrom(runDemo).Info("attributed to runDemo's declaration")

	logger.SetLevel(logger.WarningLevel)
	logger.Info("suppressed below WARNING")
	logger.Warning("still visible at WARNING")
}
