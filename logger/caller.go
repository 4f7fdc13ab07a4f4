package logger

import (
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Attribution identifies the call site responsible for a log entry.
type Attribution struct {
	Function string
	File     string
	Line     int
}

// maxCallerDepth bounds the stack walk.
const maxCallerDepth = 32

var unknownAttribution = Attribution{Function: "unknown", File: "unknown"}

// pkgPath is the import path of this package, taken from a function it owns.
var pkgPath = func() string {
	pc, _, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return ""
	}
	return funcPackage(fn.Name())
}()

// funcPackage returns the import path part of a qualified function name,
// e.g. "github.com/a/b.(*T).M" -> "github.com/a/b".
func funcPackage(name string) string {
	slash := strings.LastIndex(name, "/")
	dot := strings.Index(name[slash+1:], ".")
	if dot < 0 {
		return name
	}
	return name[:slash+1+dot]
}

// internalFrame reports whether f belongs to the facade itself. Test files
// of this package count as callers.
func internalFrame(f runtime.Frame) bool {
	return pkgPath != "" && funcPackage(f.Function) == pkgPath && !strings.HasSuffix(f.File, "_test.go")
}

// Locate walks the stack outward from its caller and returns the first
// frame outside this package. It never fails; an exhausted walk yields the
// unknown placeholder.
func Locate() Attribution {
	var pcs [maxCallerDepth]uintptr
	n := runtime.Callers(2, pcs[:])
	if n == 0 {
		return unknownAttribution
	}
	frames := runtime.CallersFrames(pcs[:n])
	for {
		f, more := frames.Next()
		if f.Function != "" && !internalFrame(f) {
			return frameAttribution(f)
		}
		if !more {
			return unknownAttribution
		}
	}
}

// AttributionOf reads the name and location of an explicit reference: a
// function value, a runtime.Frame, a *runtime.Func or an Attribution.
// Anything without usable metadata yields the unknown placeholder.
func AttributionOf(ref any) (a Attribution) {
	defer func() {
		if recover() != nil {
			a = unknownAttribution
		}
	}()

	switch r := ref.(type) {
	case nil:
		return unknownAttribution
	case Attribution:
		return r.orUnknown()
	case *Attribution:
		if r == nil {
			return unknownAttribution
		}
		return r.orUnknown()
	case runtime.Frame:
		return frameAttribution(r)
	case *runtime.Frame:
		if r == nil {
			return unknownAttribution
		}
		return frameAttribution(*r)
	case *runtime.Func:
		return funcAttribution(r)
	}

	v := reflect.ValueOf(ref)
	if v.Kind() != reflect.Func || v.IsNil() {
		return unknownAttribution
	}
	return funcAttribution(runtime.FuncForPC(v.Pointer()))
}

func funcAttribution(fn *runtime.Func) Attribution {
	if fn == nil {
		return unknownAttribution
	}
	file, line := fn.FileLine(fn.Entry())
	return Attribution{
		Function: strings.TrimSuffix(fn.Name(), "-fm"),
		File:     file,
		Line:     line,
	}.orUnknown()
}

func frameAttribution(f runtime.Frame) Attribution {
	return Attribution{Function: f.Function, File: f.File, Line: f.Line}.orUnknown()
}

func (a Attribution) orUnknown() Attribution {
	if a.Function == "" {
		a.Function = unknownAttribution.Function
	}
	if a.File == "" {
		a.File = unknownAttribution.File
	}
	return a
}

// String renders "file:line@function".
func (a Attribution) String() string {
	a = a.orUnknown()
	return fmt.Sprintf("%s:%d@%s", a.File, a.Line, a.Function)
}

// Short renders the simplified "dir/file.go:line@pkg.Function" form.
func (a Attribution) Short() string {
	a = a.orUnknown()
	return fmt.Sprintf("%s:%d@%s", shortFile(a.File), a.Line, shortFunc(a.Function))
}

func (a Attribution) entryCaller() zapcore.EntryCaller {
	a = a.orUnknown()
	return zapcore.EntryCaller{Defined: true, File: a.File, Line: a.Line, Function: a.Function}
}

// shortFile keeps the last directory and the file name.
func shortFile(file string) string {
	file = filepath.ToSlash(file)
	idx := strings.LastIndex(file, "/")
	if idx < 0 {
		return file
	}
	if prev := strings.LastIndex(file[:idx], "/"); prev >= 0 {
		return file[prev+1:]
	}
	return file
}

// shortFunc strips the package path, keeping package.Function.
func shortFunc(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 && i+1 < len(name) {
		return name[i+1:]
	}
	return name
}

// stackTrace renders the external part of the current stack, skipping this
// package's frames, in the layout of runtime/debug.Stack.
func stackTrace() string {
	var pcs [maxCallerDepth]uintptr
	n := runtime.Callers(2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	var b strings.Builder
	for {
		f, more := frames.Next()
		if f.Function != "" && !internalFrame(f) {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%s\n\t%s:%d", f.Function, f.File, f.Line)
		}
		if !more {
			break
		}
	}
	return b.String()
}
