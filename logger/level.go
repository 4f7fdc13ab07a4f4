package logger

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Level is a log severity. Values are ordered; a higher value is more severe.
// The zero Level means "unset" inside Config.
type Level int

const (
	// TraceLevel enables the most verbose tracing output.
	TraceLevel Level = 5
	// DebugLevel enables debug logging.
	DebugLevel Level = 10
	// InfoLevel enables informational logging.
	InfoLevel Level = 20
	// SuccessLevel marks a completed operation.
	SuccessLevel Level = 25
	// WarningLevel enables warning logging.
	WarningLevel Level = 30
	// ErrorLevel enables error logging.
	ErrorLevel Level = 40
	// CriticalLevel enables critical logging. It never exits or panics.
	CriticalLevel Level = 50
)

// AllLevels returns all supported levels in ascending order.
func AllLevels() []Level {
	return []Level{
		TraceLevel,
		DebugLevel,
		InfoLevel,
		SuccessLevel,
		WarningLevel,
		ErrorLevel,
		CriticalLevel,
	}
}

func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case SuccessLevel:
		return "SUCCESS"
	case WarningLevel:
		return "WARNING"
	case ErrorLevel:
		return "ERROR"
	case CriticalLevel:
		return "CRITICAL"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Icon returns the pictogram shown by the default and detailed formats.
func (l Level) Icon() string {
	switch l {
	case TraceLevel:
		return "✏️"
	case DebugLevel:
		return "\U0001f41e"
	case InfoLevel:
		return "ℹ️"
	case SuccessLevel:
		return "✅"
	case WarningLevel:
		return "⚠️"
	case ErrorLevel:
		return "❌"
	case CriticalLevel:
		return "☠️"
	default:
		return ""
	}
}

// Valid reports whether l is one of the seven severities.
func (l Level) Valid() bool {
	switch l {
	case TraceLevel, DebugLevel, InfoLevel, SuccessLevel, WarningLevel, ErrorLevel, CriticalLevel:
		return true
	}
	return false
}

// ParseLevel parses a level name ("info", "WARNING", "crit") or its numeric
// value ("30").
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if l := Level(n); l.Valid() {
			return l, nil
		}
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	switch strings.ToUpper(s) {
	case "TRACE":
		return TraceLevel, nil
	case "DEBUG":
		return DebugLevel, nil
	case "INFO":
		return InfoLevel, nil
	case "SUCCESS":
		return SuccessLevel, nil
	case "WARNING", "WARN":
		return WarningLevel, nil
	case "ERROR":
		return ErrorLevel, nil
	case "CRITICAL", "CRIT", "FATAL":
		return CriticalLevel, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// zap levels are consecutive int8 values, so the seven severities are laid
// out from -3 to 3. CriticalLevel lands on zapcore.DPanicLevel, which only
// panics for loggers built with zap.Development; none are.
var zapLevels = map[Level]zapcore.Level{
	TraceLevel:    zapcore.DebugLevel - 2,
	DebugLevel:    zapcore.DebugLevel - 1,
	InfoLevel:     zapcore.DebugLevel,
	SuccessLevel:  zapcore.InfoLevel,
	WarningLevel:  zapcore.WarnLevel,
	ErrorLevel:    zapcore.ErrorLevel,
	CriticalLevel: zapcore.DPanicLevel,
}

func (l Level) zap() zapcore.Level {
	if z, ok := zapLevels[l]; ok {
		return z
	}
	return zapLevels[DebugLevel]
}

func fromZap(z zapcore.Level) Level {
	for l, v := range zapLevels {
		if v == z {
			return l
		}
	}
	if z > zapcore.DPanicLevel {
		return CriticalLevel
	}
	return TraceLevel
}

// fromNative maps a level chosen by code using zap's own scale (through
// Logger.Zap) onto the facade's scale.
func fromNative(z zapcore.Level) zapcore.Level {
	switch {
	case z <= zapcore.DebugLevel:
		return DebugLevel.zap()
	case z == zapcore.InfoLevel:
		return InfoLevel.zap()
	case z == zapcore.WarnLevel:
		return WarningLevel.zap()
	case z == zapcore.ErrorLevel:
		return ErrorLevel.zap()
	default:
		return CriticalLevel.zap()
	}
}

// levelEncoder writes the facade's level names instead of zap's.
func levelEncoder(z zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(fromZap(z).String())
}

// syslogPriority returns the journald priority prefix for a level.
func syslogPriority(l Level) string {
	switch l {
	case CriticalLevel:
		return "<2>"
	case ErrorLevel:
		return "<3>"
	case WarningLevel:
		return "<4>"
	case SuccessLevel:
		return "<5>"
	case InfoLevel:
		return "<6>"
	case DebugLevel, TraceLevel:
		return "<7>"
	default:
		return ""
	}
}
