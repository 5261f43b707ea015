package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLogger_JSONFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hf.log")
	l, err := New(&Config{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	child := l.With(String("symbol", "EURUSD"))
	child.Info("trade opened",
		Float64("entry", 1.1012),
		Int("bar", 42),
		Duration("took", 1500*time.Millisecond),
		Strings("gates", []string{"trend", "toxicity"}),
		Error(errors.New("partial fill")),
	)
	child.Debug("no error", Error(nil))

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var lines []map[string]interface{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]interface{}
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %q: %v", sc.Text(), err)
		}
		lines = append(lines, m)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %d", len(lines))
	}

	first := lines[0]
	if first["symbol"] != "EURUSD" || first["message"] != "trade opened" || first["level"] != "info" {
		t.Fatalf("first = %v", first)
	}
	if first["entry"] != 1.1012 || first["bar"] != float64(42) || first["took"] != float64(1500) {
		t.Fatalf("numeric fields = %v", first)
	}
	if first["gates"] != "trend,toxicity" || first["error"] != "partial fill" {
		t.Fatalf("string fields = %v", first)
	}
	if v, ok := lines[1]["error"]; !ok || v != nil {
		t.Fatalf("nil error field = %v", lines[1])
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud", Output: "stdout"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("dropped", String("k", "v"))
	l.With(Int("n", 1)).Error("dropped too")
}
