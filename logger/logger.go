package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// state is the engine shared by a Logger and the handles derived from it.
type state struct {
	mu       sync.RWMutex
	closed   bool
	core     zapcore.Core
	level    zap.AtomicLevel
	file     io.Closer
	settings Settings
}

// Logger writes leveled entries to the console and rotating file sinks.
// It is safe for concurrent use; handles returned by With and CallFrom share
// the sinks and the level of their parent.
type Logger struct {
	st   *state
	core zapcore.Core
	ref  *Attribution
}

// New builds a standalone Logger from cfg. Most programs use the
// process-wide instance through Default, Instance or Init instead.
func New(cfg Config) (*Logger, error) {
	s, err := Resolve(cfg)
	if err != nil {
		return nil, err
	}
	return newLogger(s)
}

func newLogger(s Settings) (*Logger, error) {
	st := &state{
		level:    zap.NewAtomicLevelAt(s.Level.zap()),
		settings: s,
	}
	var cores []zapcore.Core
	if s.Path != "" {
		file, err := newFileSink(s)
		if err != nil {
			return nil, err
		}
		st.file = file
		cores = append(cores, fileCore(s, file, st.level))
	}
	if s.Console {
		cores = append(cores, consoleCore(s, st.level))
	}
	st.core = zapcore.NewTee(cores...)
	if s.Serialize {
		st.core = st.core.With([]zapcore.Field{zap.Int("process", os.Getpid())})
	}
	return &Logger{st: st, core: st.core}, nil
}

// consoleOnly is installed when the environment cannot be resolved, so that
// logging keeps working.
func consoleOnly() *Logger {
	format, _ := LookupFormat(DefaultFormat)
	l, _ := newLogger(Settings{Level: DefaultLevel, Format: format, Console: true})
	return l
}

// Close flushes and closes the file sink. Entries logged through l or its
// derived handles afterwards are dropped.
func (l *Logger) Close() error {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	if l.st.closed {
		return nil
	}
	l.st.closed = true
	_ = l.st.core.Sync()
	if l.st.file != nil {
		return l.st.file.Close()
	}
	return nil
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.core.Sync()
}

// SetLevel changes the threshold of l and every handle sharing its sinks.
// It applies to subsequent calls only. Invalid levels are ignored.
func (l *Logger) SetLevel(level Level) {
	if level.Valid() {
		l.st.level.SetLevel(level.zap())
	}
}

// Level returns the current threshold.
func (l *Logger) Level() Level {
	return fromZap(l.st.level.Level())
}

// Enabled reports whether entries at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l.st.level.Enabled(level.zap())
}

// Settings returns the resolved configuration with the current level.
func (l *Logger) Settings() Settings {
	s := l.st.settings
	s.Level = l.Level()
	return s
}

// With returns a handle that adds the key/value pairs to every entry.
func (l *Logger) With(keyvals ...any) *Logger {
	return &Logger{st: l.st, core: l.core.With(kvFields(keyvals)), ref: l.ref}
}

// CallFrom returns a handle that attributes its entries to ref (a function
// value, runtime.Frame or Attribution) instead of walking the stack.
func (l *Logger) CallFrom(ref any) *Logger {
	a := AttributionOf(ref)
	return &Logger{st: l.st, core: l.core, ref: &a}
}

// Zap returns a zap.Logger writing to the same sinks. Its native levels are
// mapped onto this package's: Debug, Info, Warn, Error and anything above
// as CRITICAL.
func (l *Logger) Zap() *zap.Logger {
	return zap.New(nativeCore{Core: l.core, st: l.st},
		zap.AddCaller(),
		zap.ErrorOutput(zapcore.Lock(zapcore.AddSync(outStderr))),
	)
}

// nativeCore translates zap's level scale for Logger.Zap.
type nativeCore struct {
	zapcore.Core
	st *state
}

func (c nativeCore) Enabled(z zapcore.Level) bool {
	return c.Core.Enabled(fromNative(z))
}

func (c nativeCore) With(fields []zapcore.Field) zapcore.Core {
	return nativeCore{Core: c.Core.With(fields), st: c.st}
}

func (c nativeCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	ent.Level = fromNative(ent.Level)
	if !c.Core.Enabled(ent.Level) {
		return ce
	}
	return ce.AddCore(ent, c)
}

// Write holds the state's read lock for the whole write, so an entry racing
// Close is either written before the file sink closes or dropped.
func (c nativeCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	fields = materializeAll(fields)
	c.st.mu.RLock()
	defer c.st.mu.RUnlock()
	if c.st.closed {
		return nil
	}
	return c.Core.Write(ent, fields)
}

func (l *Logger) attribution() Attribution {
	if l.ref != nil {
		return *l.ref
	}
	return Locate()
}

// write hands one entry to the engine. It never panics and never returns an
// error to the caller.
func (l *Logger) write(level Level, msg string, fields []zap.Field, stack bool) {
	defer func() {
		if r := recover(); r != nil {
			report("dropped %s entry %q: %v", level, msg, r)
		}
	}()

	l.st.mu.RLock()
	defer l.st.mu.RUnlock()
	if l.st.closed {
		return
	}

	ent := zapcore.Entry{
		Level:   level.zap(),
		Time:    time.Now(),
		Message: msg,
		Caller:  l.attribution().entryCaller(),
	}
	if stack {
		ent.Stack = stackTrace()
	}
	if ce := l.core.Check(ent, nil); ce != nil {
		ce.Write(fields...)
	}
}

// renderFunc builds the message and fields of an entry. It runs before any
// lock is taken, so String, Error and MarshalJSON methods may log too.
type renderFunc func() (string, []zap.Field)

func sprint(args []any) renderFunc {
	return func() (string, []zap.Field) { return fmt.Sprint(args...), nil }
}

func sprintf(format string, args []any) renderFunc {
	return func() (string, []zap.Field) { return fmt.Sprintf(format, args...), nil }
}

func withKV(msg string, keyvals []any) renderFunc {
	return func() (string, []zap.Field) { return msg, kvFields(keyvals) }
}

func withError(err error, msg string, keyvals []any) renderFunc {
	return func() (string, []zap.Field) {
		fields := kvFields(keyvals)
		if err != nil {
			fields = append(fields, materialize(zap.Error(err))...)
		}
		return msg, fields
	}
}

func apiMessage(statusCode int, msg string) renderFunc {
	return sprintf("[%d] %s", []any{statusCode, msg})
}

// render runs r, reporting a panic instead of propagating it.
func render(level Level, r renderFunc) (msg string, fields []zap.Field, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			report("dropped %s entry: %v", level, p)
			ok = false
		}
	}()
	msg, fields = r()
	return msg, fields, true
}

func (l *Logger) log(level Level, stack bool, r renderFunc) {
	if l == nil || !l.Enabled(level) {
		return
	}
	if msg, fields, ok := render(level, r); ok {
		l.write(level, msg, fields, stack)
	}
}

func (l *Logger) logArgs(level Level, args []any) {
	l.log(level, false, sprint(args))
}

func (l *Logger) logf(level Level, format string, args []any) {
	l.log(level, false, sprintf(format, args))
}

func (l *Logger) logKV(level Level, msg string, keyvals []any) {
	l.log(level, false, withKV(msg, keyvals))
}

// Log writes msg with key/value pairs at an arbitrary level. Invalid levels
// are logged at INFO.
func (l *Logger) Log(level Level, msg string, keyvals ...any) {
	if !level.Valid() {
		level = InfoLevel
	}
	l.logKV(level, msg, keyvals)
}

// Print logs each argument as its own INFO entry.
func (l *Logger) Print(msgs ...any) {
	for _, m := range msgs {
		l.log(InfoLevel, false, sprint([]any{m}))
	}
}

// Exception logs msg at ERROR with err and the caller's stack trace.
func (l *Logger) Exception(err error, msg string, keyvals ...any) {
	l.log(ErrorLevel, true, withError(err, msg, keyvals))
}

// Api logs an HTTP API call with the level chosen by status code:
// 1xx/3xx INFO, 2xx SUCCESS, 4xx WARNING, 5xx ERROR.
func (l *Logger) Api(statusCode int, msg string) {
	l.log(statusCodeToLevel(statusCode), false, apiMessage(statusCode, msg))
}

func statusCodeToLevel(code int) Level {
	switch {
	case code >= 500:
		return ErrorLevel
	case code >= 400:
		return WarningLevel
	case code >= 300:
		return InfoLevel
	case code >= 200:
		return SuccessLevel
	default:
		return InfoLevel
	}
}

// Trace logs at TRACE, joining args with fmt.Sprint.
func (l *Logger) Trace(args ...any) { l.logArgs(TraceLevel, args) }

// Tracef logs at TRACE with fmt.Sprintf formatting.
func (l *Logger) Tracef(format string, args ...any) { l.logf(TraceLevel, format, args) }

// TraceKV logs at TRACE with key/value pairs.
func (l *Logger) TraceKV(msg string, keyvals ...any) { l.logKV(TraceLevel, msg, keyvals) }

// Debug logs at DEBUG, joining args with fmt.Sprint.
func (l *Logger) Debug(args ...any) { l.logArgs(DebugLevel, args) }

// Debugf logs at DEBUG with fmt.Sprintf formatting.
func (l *Logger) Debugf(format string, args ...any) { l.logf(DebugLevel, format, args) }

// DebugKV logs at DEBUG with key/value pairs.
func (l *Logger) DebugKV(msg string, keyvals ...any) { l.logKV(DebugLevel, msg, keyvals) }

// Info logs at INFO, joining args with fmt.Sprint.
func (l *Logger) Info(args ...any) { l.logArgs(InfoLevel, args) }

// Infof logs at INFO with fmt.Sprintf formatting.
func (l *Logger) Infof(format string, args ...any) { l.logf(InfoLevel, format, args) }

// InfoKV logs at INFO with key/value pairs.
func (l *Logger) InfoKV(msg string, keyvals ...any) { l.logKV(InfoLevel, msg, keyvals) }

// Success logs at SUCCESS, joining args with fmt.Sprint.
func (l *Logger) Success(args ...any) { l.logArgs(SuccessLevel, args) }

// Successf logs at SUCCESS with fmt.Sprintf formatting.
func (l *Logger) Successf(format string, args ...any) { l.logf(SuccessLevel, format, args) }

// SuccessKV logs at SUCCESS with key/value pairs.
func (l *Logger) SuccessKV(msg string, keyvals ...any) { l.logKV(SuccessLevel, msg, keyvals) }

// Warning logs at WARNING, joining args with fmt.Sprint.
func (l *Logger) Warning(args ...any) { l.logArgs(WarningLevel, args) }

// Warningf logs at WARNING with fmt.Sprintf formatting.
func (l *Logger) Warningf(format string, args ...any) { l.logf(WarningLevel, format, args) }

// WarningKV logs at WARNING with key/value pairs.
func (l *Logger) WarningKV(msg string, keyvals ...any) { l.logKV(WarningLevel, msg, keyvals) }

// Error logs at ERROR, joining args with fmt.Sprint.
func (l *Logger) Error(args ...any) { l.logArgs(ErrorLevel, args) }

// Errorf logs at ERROR with fmt.Sprintf formatting.
func (l *Logger) Errorf(format string, args ...any) { l.logf(ErrorLevel, format, args) }

// ErrorKV logs at ERROR with key/value pairs.
func (l *Logger) ErrorKV(msg string, keyvals ...any) { l.logKV(ErrorLevel, msg, keyvals) }

// Critical logs at CRITICAL, joining args with fmt.Sprint.
func (l *Logger) Critical(args ...any) { l.logArgs(CriticalLevel, args) }

// Criticalf logs at CRITICAL with fmt.Sprintf formatting.
func (l *Logger) Criticalf(format string, args ...any) { l.logf(CriticalLevel, format, args) }

// CriticalKV logs at CRITICAL with key/value pairs.
func (l *Logger) CriticalKV(msg string, keyvals ...any) { l.logKV(CriticalLevel, msg, keyvals) }
