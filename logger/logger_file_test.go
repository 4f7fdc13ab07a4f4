package logger

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFileLogging_AllMethods(t *testing.T) {
	captureConsole(t)
	cfg := testConfig(t)
	initTest(t, cfg)

	Trace("t1")
	Tracef("t%d", 2)
	TraceKV("t3", "k", 1)
	Debug("d1")
	Debugf("d%d", 2)
	DebugKV("d3", "k", 1)
	Info("i1")
	Infof("i%d", 2)
	InfoKV("i3", "k", 1)
	Success("s1")
	Successf("s%d", 2)
	SuccessKV("s3", "k", 1)
	Warning("w1")
	Warningf("w%d", 2)
	WarningKV("w3", "k", 1)
	Error("e1")
	Errorf("e%d", 2)
	ErrorKV("e3", "k", 1)
	Critical("c1")
	Criticalf("c%d", 2)
	CriticalKV("c3", "k", 1)

	lines := nonEmptyLines(readLog(t, cfg))
	if len(lines) != 21 {
		t.Fatalf("expected 21 lines, got %d: %q", len(lines), lines)
	}
	for i, level := range AllLevels() {
		for j := range 3 {
			line := lines[i*3+j]
			if !strings.Contains(line, "| "+level.String()+" ") {
				t.Errorf("line %q should be %s", line, level)
			}
			if !strings.Contains(line, "logger_file_test.go:") {
				t.Errorf("line %q not attributed to the test file", line)
			}
		}
		if kv := lines[i*3+2]; !strings.HasSuffix(kv, `{"k":1}`) {
			t.Errorf("KV line missing fields: %q", kv)
		}
	}
}

func TestFileLogging_JSONPayloadUnmodified(t *testing.T) {
	captureConsole(t)
	cfg := testConfig(t)
	cfg.Format = "json"
	initTest(t, cfg)

	payload := Fields{
		"user":    "ada",
		"count":   3,
		"ratio":   0.5,
		"active":  true,
		"tags":    []string{"x", "y"},
		"nested":  map[string]any{"a": 1, "b": []int{1, 2}},
		"nothing": nil,
	}
	SuccessKV("saved", payload)

	lines := nonEmptyLines(readLog(t, cfg))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %q", lines)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", lines[0], err)
	}

	// Round-trip the payload through encoding/json to compare like with like.
	var want map[string]any
	raw, _ := json.Marshal(payload)
	if err := json.Unmarshal(raw, &want); err != nil {
		t.Fatal(err)
	}
	for k, v := range want {
		if fmt.Sprint(got[k]) != fmt.Sprint(v) {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
	if got["level"] != "SUCCESS" || got["message"] != "saved" {
		t.Errorf("level/message = %v/%v", got["level"], got["message"])
	}
	if p, _ := got["path"].(string); !strings.Contains(p, "logger_file_test.go:") || !strings.HasSuffix(p, "TestFileLogging_JSONPayloadUnmodified") {
		t.Errorf("path = %q", p)
	}
	if got["process"] != float64(os.Getpid()) {
		t.Errorf("process = %v", got["process"])
	}
	if _, err := time.Parse("2006-01-02 15:04:05.000", fmt.Sprint(got["time"])); err != nil {
		t.Errorf("time = %v: %v", got["time"], err)
	}
}

func TestFileLogging_NonSerializableValues(t *testing.T) {
	captureConsole(t)
	cfg := testConfig(t)
	cfg.Format = "json"
	initTest(t, cfg)

	type withChan struct {
		C chan int
	}
	InfoKV("odd values",
		"fn", func() {},
		"ch", make(chan int),
		"nan", math.NaN(),
		"complex", complex(1, 2),
		"struct", withChan{C: make(chan int)},
		"err", errors.New("boom"),
		"inner", map[int]any{1: math.Inf(1)},
	)

	lines := nonEmptyLines(readLog(t, cfg))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %q", lines)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", lines[0], err)
	}
	for _, k := range []string{"fn", "ch", "nan", "complex"} {
		if _, ok := got[k].(string); !ok {
			t.Errorf("%s should be stringified, got %#v", k, got[k])
		}
	}
	if st, _ := got["struct"].(map[string]any); st == nil {
		t.Errorf("struct should fall back to its fields, got %#v", got["struct"])
	} else if _, ok := st["C"].(string); !ok {
		t.Errorf("struct channel field should be stringified, got %#v", st["C"])
	}
	if got["err"] != "boom" {
		t.Errorf("err = %v", got["err"])
	}
	if inner, _ := got["inner"].(map[string]any); inner["1"] != "+Inf" {
		t.Errorf("inner = %#v", got["inner"])
	}
}

type chainLink struct {
	Name string
	Next *chainLink
}

func TestFileLogging_SelfReferencingPayloads(t *testing.T) {
	captureConsole(t)
	cfg := testConfig(t)
	cfg.Format = "json"
	initTest(t, cfg)

	m := map[string]any{"a": 1}
	m["self"] = m
	list := []any{"x", nil}
	list[1] = list
	link := &chainLink{Name: "a"}
	link.Next = link
	deep := map[string]any{}
	for cur, i := deep, 0; i < 40; i++ {
		next := map[string]any{}
		cur["next"] = next
		cur = next
	}

	InfoKV("cyclic", "m", m, "list", list, "link", link, "deep", deep)

	lines := nonEmptyLines(readLog(t, cfg))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %q", lines)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", lines[0], err)
	}

	if mm, _ := got["m"].(map[string]any); mm["a"] != float64(1) || mm["self"] != cycleValue {
		t.Errorf("m = %#v", got["m"])
	}
	if l, _ := got["list"].([]any); len(l) != 2 || l[0] != "x" || l[1] != cycleValue {
		t.Errorf("list = %#v", got["list"])
	}
	if lk, _ := got["link"].(map[string]any); lk["Name"] != "a" || lk["Next"] != cycleValue {
		t.Errorf("link = %#v", got["link"])
	}

	var cur any = got["deep"]
	for i := 0; i < maxPayloadDepth; i++ {
		node, ok := cur.(map[string]any)
		if !ok {
			t.Fatalf("deep payload cut at level %d, want %d", i, maxPayloadDepth)
		}
		cur = node["next"]
	}
	if cur != truncatedValue {
		t.Fatalf("level %d = %#v, want %q", maxPayloadDepth, cur, truncatedValue)
	}
}

func TestSanitize_SharedValuesAreNotCycles(t *testing.T) {
	shared := []any{1, 2}
	got := sanitize(map[string]any{"a": shared, "b": shared})
	out, _ := got.(map[string]any)
	for _, k := range []string{"a", "b"} {
		if l, _ := out[k].([]any); len(l) != 2 {
			t.Errorf("%s = %#v", k, out[k])
		}
	}
}

func TestZap_WriteAfterCloseDropped(t *testing.T) {
	captureConsole(t)
	cfg := testConfig(t)
	l, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	z := l.Zap()
	z.Info("before close")

	ce := z.Check(zap.WarnLevel, "racing close")
	if ce == nil {
		t.Fatal("WARN should be enabled")
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	ce.Write()
	z.Error("after close")

	log := readLog(t, cfg)
	if !strings.Contains(log, "before close") {
		t.Fatalf("missing entry written before Close: %q", log)
	}
	if strings.Contains(log, "racing close") || strings.Contains(log, "after close") {
		t.Fatalf("entry reached the closed file sink: %q", log)
	}
}

func TestKVFields_OddAndNonStringKeys(t *testing.T) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range kvFields([]any{"a", 1, 2, "two", Fields{"m": "v"}, "dangling"}) {
		f.AddTo(enc)
	}
	want := map[string]string{"a": "1", "2": "two", "m": "v", "dangling": missingValue}
	if len(enc.Fields) != len(want) {
		t.Fatalf("fields = %v", enc.Fields)
	}
	for k, v := range want {
		if got := fmt.Sprint(enc.Fields[k]); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
}

func TestFileLogging_AppendsAcrossInstances(t *testing.T) {
	captureConsole(t)
	cfg := testConfig(t)

	initTest(t, cfg)
	Info("first run")
	if err := Close(); err != nil {
		t.Fatal(err)
	}

	initTest(t, cfg)
	Info("second run")
	if err := Close(); err != nil {
		t.Fatal(err)
	}

	lines := nonEmptyLines(readLog(t, cfg))
	if len(lines) != 2 || !strings.HasSuffix(lines[0], "first run") || !strings.HasSuffix(lines[1], "second run") {
		t.Fatalf("file was not appended to: %q", lines)
	}
}

func TestFileLogging_InvalidDirectory(t *testing.T) {
	captureConsole(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(t)
	cfg.Dir = filepath.Join(blocker, "logs")

	if err := Init(cfg); err == nil {
		_ = Reset()
		t.Fatal("expected an error for a directory below a regular file")
	}
	if HasInstance() {
		t.Fatal("failed Init left an instance behind")
	}
}

func TestFileLogging_CloseTwice(t *testing.T) {
	captureConsole(t)
	cfg := testConfig(t)
	l, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("once")
	if err := l.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	l.Info("after close")
	if log := readLog(t, cfg); strings.Contains(log, "after close") {
		t.Fatalf("closed logger still wrote: %q", log)
	}
}

func TestNewFileSink_Settings(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	s := Settings{
		Dir:           dir,
		Path:          filepath.Join(dir, "app.log"),
		RotationBytes: 3 << 20,
		Retention:     48 * time.Hour,
		Compress:      true,
	}
	sink, err := newFileSink(s)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	if sink.Filename != s.Path || sink.MaxSize != 3 || sink.MaxAge != 2 || !sink.Compress || !sink.LocalTime {
		t.Fatalf("unexpected sink: %+v", sink)
	}
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		t.Fatalf("log directory not created: %v", err)
	}
}

func TestFileLogging_Rotates(t *testing.T) {
	captureConsole(t)
	cfg := testConfig(t)
	cfg.Env = "prod"
	cfg.RotationSize = "1 MiB"
	initTest(t, cfg)

	line := strings.Repeat("x", 200)
	for range 6000 {
		Info(line)
	}
	if err := Close(); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(cfg.Dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected a rotated archive next to the active file, got %d files", len(entries))
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "test") || !strings.HasSuffix(e.Name(), ".log") {
			t.Errorf("unexpected file %q", e.Name())
		}
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestGuardedSink_SwallowsFailures(t *testing.T) {
	console := captureConsole(t)
	g := guardedSink{WriteSyncer: zapcore.AddSync(failingWriter{}), name: "broken"}

	n, err := g.Write([]byte("entry\n"))
	if err != nil || n != len("entry\n") {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if err := g.Sync(); err != nil {
		t.Fatalf("Sync = %v", err)
	}
	if !strings.Contains(console.String(), "logger: write to broken failed: disk full") {
		t.Fatalf("failure not reported: %q", console.String())
	}
}
