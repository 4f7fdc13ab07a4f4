package logger

import (
	"sync"

	"go.uber.org/zap"
)

// global state
var (
	// mu guards instance. Package-level logging holds the read lock for the
	// whole write, so Reset and Init never tear down a logger mid-entry.
	mu       sync.RWMutex
	instance *Logger
)

// Default returns the process-wide Logger, building it from the environment
// on first use. If the environment is invalid the error is reported on
// stderr and a console-only logger is installed instead.
func Default() *Logger {
	mu.RLock()
	l := instance
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		l, err := New(Config{})
		if err != nil {
			report("%v; falling back to console output", err)
			l = consoleOnly()
		}
		instance = l
	}
	return instance
}

// Instance returns the process-wide Logger, building it from cfg if none is
// active. cfg is ignored when an instance already exists; use Init to
// replace it.
func Instance(cfg Config) (*Logger, error) {
	mu.RLock()
	l := instance
	mu.RUnlock()
	if l != nil {
		return l, nil
	}

	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		return instance, nil
	}
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}
	instance = l
	return l, nil
}

// Init replaces the process-wide Logger with one built from cfg. The old
// instance is closed first. On error no instance is active.
// Call Close() to properly close the log file when shutting down.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()
	if err := resetLocked(); err != nil {
		report("closing previous logger: %v", err)
	}
	l, err := New(cfg)
	if err != nil {
		return err
	}
	instance = l
	return nil
}

// Reset closes the process-wide Logger. The next use builds a new one.
func Reset() error {
	mu.Lock()
	defer mu.Unlock()
	return resetLocked()
}

// Close is Reset under the name programs use at shutdown.
func Close() error {
	return Reset()
}

func resetLocked() error {
	if instance == nil {
		return nil
	}
	err := instance.Close()
	instance = nil
	return err
}

// HasInstance reports whether a process-wide Logger is active.
func HasInstance() bool {
	mu.RLock()
	defer mu.RUnlock()
	return instance != nil
}

// current returns the active instance with the read lock held; the caller
// must call done when its write is finished.
func current() (l *Logger, done func()) {
	for {
		mu.RLock()
		if instance != nil {
			return instance, mu.RUnlock
		}
		mu.RUnlock()
		Default()
	}
}

// logGlobal renders the entry first and only then takes the read lock that
// pins the current instance, so a rendering callback that logs cannot wait
// on a pending Reset that is waiting on it.
func logGlobal(level Level, stack bool, r renderFunc) {
	if !Default().Enabled(level) {
		return
	}
	msg, fields, ok := render(level, r)
	if !ok {
		return
	}
	l, done := current()
	defer done()
	l.write(level, msg, fields, stack)
}

// SetLevel changes the threshold of the process-wide Logger.
func SetLevel(level Level) {
	l, done := current()
	defer done()
	l.SetLevel(level)
}

// CurrentLevel returns the threshold of the process-wide Logger.
func CurrentLevel() Level {
	l, done := current()
	defer done()
	return l.Level()
}

// With returns a handle on the process-wide Logger with bound fields.
// The handle stops writing once the instance is reset.
func With(keyvals ...any) *Logger {
	return Default().With(keyvals...)
}

// CallFrom returns a handle on the process-wide Logger attributing entries
// to ref. The handle stops writing once the instance is reset.
func CallFrom(ref any) *Logger {
	return Default().CallFrom(ref)
}

// Zap returns a zap.Logger writing to the process-wide Logger's sinks.
func Zap() *zap.Logger {
	return Default().Zap()
}

// Sync flushes the process-wide Logger.
func Sync() error {
	l, done := current()
	defer done()
	return l.Sync()
}

// Log writes msg at level with key/value pairs.
func Log(level Level, msg string, keyvals ...any) {
	if !level.Valid() {
		level = InfoLevel
	}
	logGlobal(level, false, withKV(msg, keyvals))
}

// Print logs each argument as its own INFO entry.
func Print(msgs ...any) {
	for _, m := range msgs {
		logGlobal(InfoLevel, false, sprint([]any{m}))
	}
}

// Exception logs msg at ERROR with err and the caller's stack trace.
func Exception(err error, msg string, keyvals ...any) {
	logGlobal(ErrorLevel, true, withError(err, msg, keyvals))
}

// Api logs an HTTP API call with automatic level selection based on status code.
//
// Example:
//
//	logger.Api(200, "api call successful")
//	logger.Api(404, "resource not found")
//	logger.Api(500, "internal server error")
func Api(statusCode int, msg string) {
	logGlobal(statusCodeToLevel(statusCode), false, apiMessage(statusCode, msg))
}

// --- Plain logging (fmt.Sprint style) ---

// Trace logs at TRACE on the process-wide Logger.
func Trace(args ...any) {
	logGlobal(TraceLevel, false, sprint(args))
}

// Debug logs at DEBUG on the process-wide Logger.
func Debug(args ...any) {
	logGlobal(DebugLevel, false, sprint(args))
}

// Info logs at INFO on the process-wide Logger.
func Info(args ...any) {
	logGlobal(InfoLevel, false, sprint(args))
}

// Success logs at SUCCESS on the process-wide Logger.
func Success(args ...any) {
	logGlobal(SuccessLevel, false, sprint(args))
}

// Warning logs at WARNING on the process-wide Logger.
func Warning(args ...any) {
	logGlobal(WarningLevel, false, sprint(args))
}

// Error logs at ERROR on the process-wide Logger.
func Error(args ...any) {
	logGlobal(ErrorLevel, false, sprint(args))
}

// Critical logs at CRITICAL on the process-wide Logger.
func Critical(args ...any) {
	logGlobal(CriticalLevel, false, sprint(args))
}

// --- Formatted logging (fmt.Sprintf style) ---

// Tracef logs a formatted TRACE message on the process-wide Logger.
func Tracef(format string, args ...any) {
	logGlobal(TraceLevel, false, sprintf(format, args))
}

// Debugf logs a formatted DEBUG message on the process-wide Logger.
func Debugf(format string, args ...any) {
	logGlobal(DebugLevel, false, sprintf(format, args))
}

// Infof logs a formatted INFO message on the process-wide Logger.
func Infof(format string, args ...any) {
	logGlobal(InfoLevel, false, sprintf(format, args))
}

// Successf logs a formatted SUCCESS message on the process-wide Logger.
func Successf(format string, args ...any) {
	logGlobal(SuccessLevel, false, sprintf(format, args))
}

// Warningf logs a formatted WARNING message on the process-wide Logger.
func Warningf(format string, args ...any) {
	logGlobal(WarningLevel, false, sprintf(format, args))
}

// Errorf logs a formatted ERROR message on the process-wide Logger.
func Errorf(format string, args ...any) {
	logGlobal(ErrorLevel, false, sprintf(format, args))
}

// Criticalf logs a formatted CRITICAL message on the process-wide Logger.
func Criticalf(format string, args ...any) {
	logGlobal(CriticalLevel, false, sprintf(format, args))
}

// --- Structured logging (key-value pairs) ---

// TraceKV logs a TRACE message with key-value pairs on the process-wide Logger.
func TraceKV(msg string, keyvals ...any) {
	logGlobal(TraceLevel, false, withKV(msg, keyvals))
}

// DebugKV logs a DEBUG message with key-value pairs on the process-wide Logger.
func DebugKV(msg string, keyvals ...any) {
	logGlobal(DebugLevel, false, withKV(msg, keyvals))
}

// InfoKV logs an INFO message with key-value pairs on the process-wide Logger.
func InfoKV(msg string, keyvals ...any) {
	logGlobal(InfoLevel, false, withKV(msg, keyvals))
}

// SuccessKV logs a SUCCESS message with key-value pairs on the process-wide Logger.
func SuccessKV(msg string, keyvals ...any) {
	logGlobal(SuccessLevel, false, withKV(msg, keyvals))
}

// WarningKV logs a WARNING message with key-value pairs on the process-wide Logger.
func WarningKV(msg string, keyvals ...any) {
	logGlobal(WarningLevel, false, withKV(msg, keyvals))
}

// ErrorKV logs an ERROR message with key-value pairs on the process-wide Logger.
func ErrorKV(msg string, keyvals ...any) {
	logGlobal(ErrorLevel, false, withKV(msg, keyvals))
}

// CriticalKV logs a CRITICAL message with key-value pairs on the process-wide Logger.
func CriticalKV(msg string, keyvals ...any) {
	logGlobal(CriticalLevel, false, withKV(msg, keyvals))
}
