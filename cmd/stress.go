package cmd

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mordilloSan/go-xtlog/logger"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// StressCommand logs from many goroutines at once and checks that the file
// holds one complete line per entry.
func StressCommand() *cli.Command {
	return &cli.Command{
		Name:  "stress",
		Usage: "Log concurrently and verify the file sink line count",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent writers",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  "messages",
				Usage: "Entries per writer",
				Value: 100,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := configFromFlags(c)
			if err != nil {
				return err
			}
			// Keep the console quiet and the file to this run only.
			cfg.Env = "stress"
			cfg.Level = logger.InfoLevel
			if cfg.FileName == "" {
				cfg.FileName = fmt.Sprintf("stress_%d.log", time.Now().UnixNano())
			}
			if err := logger.Init(cfg); err != nil {
				return err
			}
			defer logger.Close()

			workers, messages := int(c.Int("workers")), int(c.Int("messages"))
			start := time.Now()
			if err := stress(ctx, workers, messages); err != nil {
				return err
			}
			elapsed := time.Since(start)

			path := logger.Default().Settings().Path
			if err := logger.Sync(); err != nil {
				return err
			}
			lines, err := countRunLines(path, start)
			if err != nil {
				return err
			}
			want := workers * messages
			fmt.Printf("%d entries in %s (%.0f/s), %d lines in %s\n",
				want, elapsed, float64(want)/elapsed.Seconds(), lines, path)
			if lines != want {
				return fmt.Errorf("expected %d lines, found %d", want, lines)
			}
			return nil
		},
	}
}

func stress(ctx context.Context, workers, messages int) error {
	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			for seq := range messages {
				if err := ctx.Err(); err != nil {
					return err
				}
				logger.InfoKV("stress", "worker", w, "seq", seq)
			}
			return nil
		})
	}
	return g.Wait()
}

// countRunLines counts the lines of path and of the archives lumberjack
// rotated out of it ("<name>-<timestamp><ext>", optionally gzipped) since
// the run started.
func countRunLines(path string, since time.Time) (int, error) {
	n, err := countLines(path)
	if err != nil {
		return 0, err
	}
	ext := filepath.Ext(path)
	prefix := strings.TrimSuffix(filepath.Base(path), ext) + "-"
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		return 0, err
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) ||
			!(strings.HasSuffix(name, ext) || strings.HasSuffix(name, ext+".gz")) {
			continue
		}
		// A .gz next to its source is still being written.
		if strings.HasSuffix(name, ".gz") && names[strings.TrimSuffix(name, ".gz")] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return 0, err
		}
		if info.ModTime().Before(since) {
			continue
		}
		archived, err := countLines(filepath.Join(filepath.Dir(path), name))
		if err != nil {
			return 0, err
		}
		n += archived
	}
	return n, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, err
		}
		defer gz.Close()
		r = gz
	}

	n := 0
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		n++
	}
	return n, sc.Err()
}
