package logger

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
)

// Built-in defaults, overridden by the environment and then by Config.
const (
	DefaultLevel        = DebugLevel
	DefaultFormat       = "default"
	DefaultRotationSize = "16 MB"
	DefaultRetention    = "30 days"
	DefaultDir          = "logs"
	DefaultFileName     = "xt_{date}.log"
	DefaultEnv          = "dev"
)

// Config holds explicit options for New, Instance and Init.
// A zero field is unset: the environment value applies, then the built-in default.
// Boolean options are pointers so that an explicit false overrides the
// environment; see Bool.
type Config struct {
	// Level is the minimum severity written to any sink.
	// Env: LOG_LEVEL. Default: DebugLevel
	Level Level
	// Format names a registry template: default, simple, detailed or json.
	// Env: LOG_FORMAT. Default: "default"
	Format string
	// RotationSize rotates the file once it grows past this size ("16 MB", "512KiB").
	// Env: LOG_ROTATION_SIZE. Default: "16 MB"
	RotationSize string
	// Retention deletes rotated files older than this ("30 days", "2 weeks", "72h").
	// A bare number counts days.
	// Env: LOG_RETENTION_DAYS. Default: "30 days"
	Retention string
	// Dir is the directory holding the log file; it is created if missing.
	// Env: LOG_DIR. Default: "logs"
	Dir string
	// FileName is the log file name; "{date}" expands to YYYYMMDD.
	// Env: LOG_FILE. Default: "xt_{date}.log"
	FileName string
	// Serialize writes every sink as JSON lines.
	// Default: false (true when the json format is selected)
	Serialize *bool
	// Env selects the deployment environment; only "dev" enables the console sink.
	// Env: ENV. Default: "dev"
	Env string
	// Colorize enables ANSI colors for the level on the console sink.
	// Env: LOG_COLOR. Default: false
	Colorize *bool
	// Compress gzips rotated files.
	// Env: LOG_COMPRESS. Default: false
	Compress *bool
}

// Bool returns a pointer to b, for the boolean Config options.
func Bool(b bool) *bool {
	return &b
}

// Settings is a fully resolved Config.
type Settings struct {
	Level         Level
	Format        Format
	RotationBytes uint64
	Retention     time.Duration
	Dir           string
	Path          string
	Serialize     bool
	Console       bool
	Colorize      bool
	Compress      bool
	// Syslog prefixes console lines with journald priorities.
	Syslog bool
}

// ConfigError reports a structurally invalid configuration value.
type ConfigError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("logger: invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// now is swapped in tests to pin the {date} expansion.
var now = time.Now

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Level:        DefaultLevel,
		Format:       DefaultFormat,
		RotationSize: DefaultRotationSize,
		Retention:    DefaultRetention,
		Dir:          DefaultDir,
		FileName:     DefaultFileName,
		Env:          DefaultEnv,
		Serialize:    Bool(false),
		Colorize:     Bool(false),
		Compress:     Bool(false),
	}
}

// FromEnv reads the LOG_* and ENV variables. Unparseable levels and flags
// are ignored so the defaults apply.
func FromEnv() Config {
	var c Config
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if l, err := ParseLevel(v); err == nil {
			c.Level = l
		}
	}
	c.Format = strings.TrimSpace(os.Getenv("LOG_FORMAT"))
	c.RotationSize = strings.TrimSpace(os.Getenv("LOG_ROTATION_SIZE"))
	c.Retention = strings.TrimSpace(os.Getenv("LOG_RETENTION_DAYS"))
	c.Dir = strings.TrimSpace(os.Getenv("LOG_DIR"))
	c.FileName = strings.TrimSpace(os.Getenv("LOG_FILE"))
	c.Env = strings.TrimSpace(os.Getenv("ENV"))
	c.Colorize = envBool("LOG_COLOR")
	c.Compress = envBool("LOG_COMPRESS")
	return c
}

// envBool returns nil when key is unset or not a boolean.
func envBool(key string) *bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return nil
	}
	return &b
}

// LoadEnvFile loads KEY=value pairs into the process environment without
// overriding variables that are already set. With no paths it loads ./.env
// and a missing file is not an error.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// merge overlays the set fields of o onto c.
func (c Config) merge(o Config) Config {
	if o.Level != 0 {
		c.Level = o.Level
	}
	if o.Format != "" {
		c.Format = o.Format
	}
	if o.RotationSize != "" {
		c.RotationSize = o.RotationSize
	}
	if o.Retention != "" {
		c.Retention = o.Retention
	}
	if o.Dir != "" {
		c.Dir = o.Dir
	}
	if o.FileName != "" {
		c.FileName = o.FileName
	}
	if o.Env != "" {
		c.Env = o.Env
	}
	if o.Serialize != nil {
		c.Serialize = o.Serialize
	}
	if o.Colorize != nil {
		c.Colorize = o.Colorize
	}
	if o.Compress != nil {
		c.Compress = o.Compress
	}
	return c
}

// Resolve merges defaults, environment and cfg (highest precedence) and
// validates the result.
func Resolve(cfg Config) (Settings, error) {
	c := Defaults().merge(FromEnv()).merge(cfg)

	level := c.Level
	if !level.Valid() {
		level = DefaultLevel
	}

	format, err := LookupFormat(c.Format)
	if err != nil {
		return Settings{}, err
	}

	size, err := parseSize(c.RotationSize)
	if err != nil {
		return Settings{}, &ConfigError{Field: "rotation size", Value: c.RotationSize, Err: err}
	}
	retention, err := parseRetention(c.Retention)
	if err != nil {
		return Settings{}, &ConfigError{Field: "retention", Value: c.Retention, Err: err}
	}

	dir := c.Dir
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	name := strings.ReplaceAll(c.FileName, "{date}", now().Format("20060102"))

	return Settings{
		Level:         level,
		Format:        format,
		RotationBytes: size,
		Retention:     retention,
		Dir:           dir,
		Path:          filepath.Join(dir, name),
		Serialize:     isTrue(c.Serialize) || format.Structured,
		Console:       strings.EqualFold(c.Env, "dev"),
		Colorize:      isTrue(c.Colorize),
		Compress:      isTrue(c.Compress),
		Syslog:        os.Getenv("JOURNAL_STREAM") != "",
	}, nil
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

// MaxSizeMB is the rotation threshold in whole megabytes, rounded up.
func (s Settings) MaxSizeMB() int {
	return int(math.Max(1, math.Ceil(float64(s.RotationBytes)/(1<<20))))
}

// MaxAgeDays is the retention window in whole days, rounded up.
func (s Settings) MaxAgeDays() int {
	return int(math.Max(1, math.Ceil(s.Retention.Hours()/24)))
}

func (s Settings) String() string {
	return fmt.Sprintf("level=%s format=%s rotation=%s retention=%s path=%s serialize=%t console=%t",
		s.Level, s.Format.Name, humanize.IBytes(s.RotationBytes), s.Retention, s.Path, s.Serialize, s.Console)
}

func parseSize(s string) (uint64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("must be positive")
	}
	return n, nil
}

var retentionUnits = map[string]time.Duration{
	"":        24 * time.Hour,
	"s":       time.Second,
	"sec":     time.Second,
	"second":  time.Second,
	"seconds": time.Second,
	"m":       time.Minute,
	"min":     time.Minute,
	"minute":  time.Minute,
	"minutes": time.Minute,
	"h":       time.Hour,
	"hour":    time.Hour,
	"hours":   time.Hour,
	"d":       24 * time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
	"w":       7 * 24 * time.Hour,
	"week":    7 * 24 * time.Hour,
	"weeks":   7 * 24 * time.Hour,
	"month":   30 * 24 * time.Hour,
	"months":  30 * 24 * time.Hour,
	"y":       365 * 24 * time.Hour,
	"year":    365 * 24 * time.Hour,
	"years":   365 * 24 * time.Hour,
}

// parseRetention accepts "<n> <unit>" with the units above, a bare number of
// days, or anything time.ParseDuration understands.
func parseRetention(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) && r != '.' })
	num, unit := s, ""
	if i >= 0 {
		num, unit = s[:i], strings.ToLower(strings.TrimSpace(s[i:]))
	}
	if n, err := strconv.ParseFloat(num, 64); err == nil {
		if per, ok := retentionUnits[unit]; ok {
			if n <= 0 {
				return 0, errors.New("must be positive")
			}
			if d := n * float64(per); d < math.MaxInt64 {
				return time.Duration(d), nil
			}
			return 0, errors.New("out of range")
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("expected <number> <unit>: %w", err)
	}
	if d <= 0 {
		return 0, errors.New("must be positive")
	}
	return d, nil
}
