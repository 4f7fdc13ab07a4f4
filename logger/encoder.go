package logger

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

var bufferPool = buffer.NewPool()

var levelColors = map[Level]color.Attribute{
	TraceLevel:    color.FgWhite,
	DebugLevel:    color.FgCyan,
	InfoLevel:     color.FgGreen,
	SuccessLevel:  color.FgHiGreen,
	WarningLevel:  color.FgYellow,
	ErrorLevel:    color.FgRed,
	CriticalLevel: color.FgHiMagenta,
}

// templateEncoder renders entries through a Format template. Context fields
// are kept in an embedded JSON encoder and appended as one JSON object.
type templateEncoder struct {
	zapcore.Encoder

	format Format
	colors map[Level]*color.Color
	syslog bool
	pid    string
}

func newTemplateEncoder(f Format, colorize, syslog bool) *templateEncoder {
	enc := &templateEncoder{
		Encoder: zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		}),
		format: f,
		syslog: syslog,
		pid:    strconv.Itoa(os.Getpid()),
	}
	if colorize {
		enc.colors = make(map[Level]*color.Color, len(levelColors))
		for l, attr := range levelColors {
			c := color.New(attr)
			c.EnableColor()
			enc.colors[l] = c
		}
	}
	return enc
}

func (e *templateEncoder) Clone() zapcore.Encoder {
	return &templateEncoder{
		Encoder: e.Encoder.Clone(),
		format:  e.format,
		colors:  e.colors,
		syslog:  e.syslog,
		pid:     e.pid,
	}
}

func (e *templateEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	ctx, err := e.Encoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return nil, err
	}
	extra := strings.TrimSpace(ctx.String())
	ctx.Free()
	if extra == "{}" {
		extra = ""
	} else {
		extra = " " + extra
	}

	level := fromZap(ent.Level)
	name := fmt.Sprintf("%-8s", level)
	if c, ok := e.colors[level]; ok {
		name = c.Sprint(name)
	}
	attr := Attribution{Function: ent.Caller.Function, File: ent.Caller.File, Line: ent.Caller.Line}

	r := strings.NewReplacer(
		"{time_ms}", ent.Time.Format("2006-01-02 15:04:05.000"),
		"{time}", ent.Time.Format("2006-01-02 15:04:05"),
		"{level}", name,
		"{icon}", level.Icon(),
		"{pid}", e.pid,
		"{caller}", attr.Short(),
		"{function}", shortFunc(attr.orUnknown().Function),
		"{file}", attr.orUnknown().File,
		"{line}", strconv.Itoa(attr.Line),
		"{message}", ent.Message,
		"{fields}", extra,
	)

	buf := bufferPool.Get()
	if e.syslog {
		buf.AppendString(syslogPriority(level))
	}
	buf.AppendString(r.Replace(e.format.Template))
	if ent.Stack != "" {
		buf.AppendByte('\n')
		buf.AppendString(ent.Stack)
	}
	buf.AppendByte('\n')
	return buf, nil
}

// newJSONEncoder is the structured mode encoder. Its keys follow the json
// format template.
func newJSONEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "message",
		CallerKey:      "path",
		FunctionKey:    "function",
		StacktraceKey:  "exception",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeLevel:    levelEncoder,
		EncodeCaller:   shortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
}

func shortCallerEncoder(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(Attribution{Function: c.Function, File: c.File, Line: c.Line}.Short())
}
