package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Dependency injection point for testing console output and diagnostics.
var outStderr io.Writer = os.Stderr

// diagMu serializes the facade's own diagnostics on stderr.
var diagMu sync.Mutex

// report writes a facade diagnostic. It is the last-resort channel for
// failures that must not reach the caller.
func report(format string, v ...any) {
	diagMu.Lock()
	defer diagMu.Unlock()
	fmt.Fprintf(outStderr, "logger: "+format+"\n", v...)
}

// guardedSink swallows write and sync failures of a sink, reporting write
// failures on stderr.
type guardedSink struct {
	zapcore.WriteSyncer
	name string
}

func (g guardedSink) Write(p []byte) (int, error) {
	if _, err := g.WriteSyncer.Write(p); err != nil {
		report("write to %s failed: %v", g.name, err)
	}
	return len(p), nil
}

func (g guardedSink) Sync() error {
	_ = g.WriteSyncer.Sync()
	return nil
}

// newFileSink opens the rotating file target. lumberjack enforces the size
// threshold and deletes archives past the retention window; its own mutex
// keeps each line a single uninterrupted write.
func newFileSink(s Settings) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("logger: create log dir: %w", err)
	}
	return &lumberjack.Logger{
		Filename:  s.Path,
		MaxSize:   s.MaxSizeMB(),
		MaxAge:    s.MaxAgeDays(),
		Compress:  s.Compress,
		LocalTime: true,
	}, nil
}

func fileCore(s Settings, w io.Writer, enabler zapcore.LevelEnabler) zapcore.Core {
	var enc zapcore.Encoder
	if s.Serialize {
		enc = newJSONEncoder()
	} else {
		enc = newTemplateEncoder(s.Format, false, false)
	}
	return zapcore.NewCore(enc, guardedSink{WriteSyncer: zapcore.AddSync(w), name: s.Path}, enabler)
}

func consoleCore(s Settings, enabler zapcore.LevelEnabler) zapcore.Core {
	var enc zapcore.Encoder
	if s.Serialize {
		enc = newJSONEncoder()
	} else {
		enc = newTemplateEncoder(s.Format, s.Colorize, s.Syslog)
	}
	ws := zapcore.Lock(zapcore.AddSync(outStderr))
	return zapcore.NewCore(enc, guardedSink{WriteSyncer: ws, name: "console"}, enabler)
}
