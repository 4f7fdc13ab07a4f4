package logger

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownFormat is returned when a format name is not in the registry.
var ErrUnknownFormat = errors.New("logger: unknown format")

// Format is a named line template.
//
// Placeholders: {time} {time_ms} {level} {icon} {pid} {caller} {function}
// {file} {line} {message} {fields}. A Structured format is not interpolated;
// it selects JSON output instead.
type Format struct {
	Name       string
	Template   string
	Structured bool
}

var formats = map[string]Format{
	"default": {
		Name:     "default",
		Template: "{time_ms} | {level} {icon} | {pid} | {caller} | {message}{fields}",
	},
	"simple": {
		Name:     "simple",
		Template: "{time} | {level} | {caller} | {message}{fields}",
	},
	"detailed": {
		Name:     "detailed",
		Template: "{time_ms} | {level} {icon} | P:{pid} | {function}:{line} | {caller} | {message}{fields}",
	},
	"json": {
		Name:       "json",
		Template:   `{"time": "{time_ms}", "level": "{level}", "message": "{message}", "path": "{caller}", "process": {pid}}`,
		Structured: true,
	},
}

// LookupFormat returns the registered format for name (case-insensitive).
func LookupFormat(name string) (Format, error) {
	f, ok := formats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Format{}, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// Formats returns the registered format names, sorted.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
