package cmd

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/mordilloSan/go-xtlog/logger"
	"github.com/urfave/cli/v3"
)

// ConfigCommand prints the effective configuration without opening any sink.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show the resolved logger configuration",
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := configFromFlags(c)
			if err != nil {
				return err
			}
			s, err := logger.Resolve(cfg)
			if err != nil {
				return err
			}
			fmt.Printf("level:      %s\n", s.Level)
			fmt.Printf("format:     %s\n", s.Format.Name)
			fmt.Printf("file:       %s\n", s.Path)
			fmt.Printf("rotation:   %s (%d MB)\n", humanize.Bytes(s.RotationBytes), s.MaxSizeMB())
			fmt.Printf("retention:  %s (%d days)\n", s.Retention, s.MaxAgeDays())
			fmt.Printf("serialize:  %t\n", s.Serialize)
			fmt.Printf("console:    %t\n", s.Console)
			fmt.Printf("compress:   %t\n", s.Compress)
			return nil
		},
	}
}

// FormatsCommand lists the format registry.
func FormatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "formats",
		Usage: "List the available line formats",
		Action: func(ctx context.Context, c *cli.Command) error {
			for _, name := range logger.Formats() {
				f, err := logger.LookupFormat(name)
				if err != nil {
					return err
				}
				fmt.Printf("%-9s %s\n", f.Name, f.Template)
			}
			return nil
		},
	}
}
