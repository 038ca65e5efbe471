package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize text logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("json"), WithLevel("debug")); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("yaml")); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := Init(WithLevel("loud")); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat("json"), WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	l := Named("worker").Named("w0").With(String("match_id", "m1"))
	l.Info(context.Background(), "rated",
		Int("players", 5),
		Float64("latency_ms", 1.5),
		Bool("rainbow", true),
		Duration("took", time.Millisecond),
		Error(errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not json: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "rated" {
		t.Errorf("unexpected msg: %v", rec["msg"])
	}
	if rec["logger"] != "worker.w0" {
		t.Errorf("unexpected logger name: %v", rec["logger"])
	}
	if rec["match_id"] != "m1" {
		t.Errorf("expected With field, got %v", rec["match_id"])
	}
	if rec["rainbow"] != true {
		t.Errorf("expected rainbow=true, got %v", rec["rainbow"])
	}
	if src, _ := rec["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("expected caller to point at the test, got %q", src)
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	ctx := context.Background()

	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level, got %q", buf.String())
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatal(err)
	}
	Get().Debug(ctx, "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected debug output, got %q", buf.String())
	}

	buf.Reset()
	if err := SetLevelString("error"); err != nil {
		t.Fatal(err)
	}
	Get().Warn(ctx, "quiet")
	Get().Error(ctx, "loud")
	if strings.Contains(buf.String(), "quiet") || !strings.Contains(buf.String(), "loud") {
		t.Errorf("unexpected output at error level: %q", buf.String())
	}

	for _, lvl := range []string{"", "info", "WARN", "warning", " error "} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("level %q: %v", lvl, err)
		}
	}
}
