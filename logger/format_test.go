package logger

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLookupFormat(t *testing.T) {
	for _, name := range []string{"default", "Simple", " DETAILED ", "json"} {
		f, err := LookupFormat(name)
		if err != nil {
			t.Fatalf("LookupFormat(%q): %v", name, err)
		}
		if f.Name != strings.ToLower(strings.TrimSpace(name)) || f.Template == "" {
			t.Errorf("LookupFormat(%q) = %+v", name, f)
		}
		if f.Structured != (f.Name == "json") {
			t.Errorf("%s: Structured = %t", f.Name, f.Structured)
		}
	}

	_, err := LookupFormat("xml")
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestFormats_Sorted(t *testing.T) {
	want := []string{"default", "detailed", "json", "simple"}
	if got := Formats(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Formats() = %v, want %v", got, want)
	}
}

func sampleEntry() zapcore.Entry {
	return zapcore.Entry{
		Level:   InfoLevel.zap(),
		Time:    time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		Message: "hello",
		Caller: zapcore.EntryCaller{
			Defined:  true,
			File:     "/src/dir/file.go",
			Line:     7,
			Function: "example.com/pkg.Fn",
		},
	}
}

func TestTemplateEncoder_Simple(t *testing.T) {
	f, _ := LookupFormat("simple")
	enc := newTemplateEncoder(f, false, false)

	buf, err := enc.EncodeEntry(sampleEntry(), []zapcore.Field{zap.String("k", "v")})
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Free()

	want := "2026-10-18 12:00:00 | INFO     | dir/file.go:7@pkg.Fn | hello {\"k\":\"v\"}\n"
	if got := buf.String(); got != want {
		t.Fatalf("got  %q\nwant %q", got, want)
	}
}

func TestTemplateEncoder_Detailed(t *testing.T) {
	f, _ := LookupFormat("detailed")
	enc := newTemplateEncoder(f, false, false)

	buf, err := enc.EncodeEntry(sampleEntry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Free()

	got := buf.String()
	for _, want := range []string{"2026-10-18 12:00:00.000", "INFO     " + InfoLevel.Icon(), "P:" + enc.pid, "pkg.Fn:7", "dir/file.go:7@pkg.Fn", "| hello\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("detailed output %q missing %q", got, want)
		}
	}
}

func TestTemplateEncoder_CloneKeepsContext(t *testing.T) {
	f, _ := LookupFormat("simple")
	base := newTemplateEncoder(f, false, true)
	child := base.Clone()
	child.AddString("svc", "api")

	buf, err := child.EncodeEntry(sampleEntry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Free()
	if got := buf.String(); !strings.HasPrefix(got, "<6>") || !strings.HasSuffix(got, "hello {\"svc\":\"api\"}\n") {
		t.Fatalf("clone output = %q", got)
	}

	plain, err := base.EncodeEntry(sampleEntry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer plain.Free()
	if strings.Contains(plain.String(), "svc") {
		t.Fatalf("context leaked into the parent encoder: %q", plain.String())
	}
}

func TestTemplateEncoder_AppendsStack(t *testing.T) {
	f, _ := LookupFormat("simple")
	enc := newTemplateEncoder(f, false, false)
	ent := sampleEntry()
	ent.Stack = "main.main\n\t/src/main.go:3"

	buf, err := enc.EncodeEntry(ent, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Free()
	if got := buf.String(); !strings.HasSuffix(got, "| hello\nmain.main\n\t/src/main.go:3\n") {
		t.Fatalf("stack not appended: %q", got)
	}
}

func TestJSONEncoder_Keys(t *testing.T) {
	buf, err := newJSONEncoder().EncodeEntry(sampleEntry(), []zapcore.Field{zap.Int("n", 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer buf.Free()

	want := `{"level":"INFO","time":"2026-10-18 12:00:00.000","path":"dir/file.go:7@pkg.Fn","function":"example.com/pkg.Fn","message":"hello","n":1}` + "\n"
	if got := buf.String(); got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}
