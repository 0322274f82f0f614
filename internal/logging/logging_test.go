package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// captureLogOutput redirects the global logger to a buffer for the duration of f.
func captureLogOutput(t *testing.T, level Level, format Format, f func()) string {
	t.Helper()
	var buf bytes.Buffer
	old := defaultLogger
	InitLoggerTo(&buf, level, format)
	defer func() { defaultLogger = old }()
	f()
	return buf.String()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" warn ", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelWarn},
		{"", LevelWarn},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("JSON") != FormatJSON {
		t.Error("ParseFormat(JSON) should be FormatJSON")
	}
	if ParseFormat("text") != FormatText {
		t.Error("ParseFormat(text) should be FormatText")
	}
	if ParseFormat("") != FormatText {
		t.Error("ParseFormat(\"\") should be FormatText")
	}
}

func TestLevelFiltering(t *testing.T) {
	out := captureLogOutput(t, LevelWarn, FormatText, func() {
		Debug("hidden-debug")
		Info("hidden-info")
		Warn("shown-warn")
		Error("shown-error")
	})

	if strings.Contains(out, "hidden-") {
		t.Errorf("messages below warn leaked: %s", out)
	}
	if !strings.Contains(out, "shown-warn") || !strings.Contains(out, "shown-error") {
		t.Errorf("expected warn and error messages, got: %s", out)
	}
}

func TestJSONFormatTimestamp(t *testing.T) {
	out := captureLogOutput(t, LevelInfo, FormatJSON, func() {
		Info("hello", "key", "value")
	})

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, out)
	}
	ts, ok := entry["time"].(string)
	if !ok {
		t.Fatalf("missing time field: %v", entry)
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
}

func TestRequestIDContext(t *testing.T) {
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID(empty) = %q, want empty", got)
	}

	id := NewRequestID()
	if len(id) != 36 {
		t.Errorf("NewRequestID() = %q, want a 36-char UUID", id)
	}

	ctx := WithRequestID(context.Background(), id)
	if got := GetRequestID(ctx); got != id {
		t.Errorf("GetRequestID() = %q, want %q", got, id)
	}

	out := captureLogOutput(t, LevelInfo, FormatJSON, func() {
		InfoContext(ctx, "with-id")
	})
	if !strings.Contains(out, id) {
		t.Errorf("request id missing from log output: %s", out)
	}
}

func TestCommandExecuted(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")

	out := captureLogOutput(t, LevelInfo, FormatJSON, func() {
		CommandExecuted(ctx, "select", 3, 5*time.Millisecond, nil, "table", "fruits")
	})
	for _, want := range []string{`"msg":"command_executed"`, `"kind":"select"`, `"rows":3`, `"table":"fruits"`, `"request_id":"req-1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}

	out = captureLogOutput(t, LevelInfo, FormatJSON, func() {
		CommandExecuted(ctx, "count", 0, time.Millisecond, errors.New("table not found: x"))
	})
	if !strings.Contains(out, `"msg":"command_failed"`) || !strings.Contains(out, "table not found: x") {
		t.Errorf("failure not logged: %s", out)
	}
}

func TestPageVisitDebugOnly(t *testing.T) {
	out := captureLogOutput(t, LevelInfo, FormatText, func() {
		PageVisit(2, "leaf table", 4)
	})
	if out != "" {
		t.Errorf("PageVisit should be debug-only, got: %s", out)
	}

	out = captureLogOutput(t, LevelDebug, FormatText, func() {
		PageVisit(2, "leaf table", 4)
	})
	if !strings.Contains(out, "page_visit") || !strings.Contains(out, "page=2") {
		t.Errorf("PageVisit output = %s", out)
	}
}

func TestCombinedMiddleware(t *testing.T) {
	var seenID string
	handler := CombinedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	out := captureLogOutput(t, LevelInfo, FormatJSON, func() {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "fixed-id")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusTeapot {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
		}
		if got := rec.Header().Get("X-Request-ID"); got != "fixed-id" {
			t.Errorf("X-Request-ID = %q, want fixed-id", got)
		}
	})

	if seenID != "fixed-id" {
		t.Errorf("handler saw request id %q, want fixed-id", seenID)
	}
	if !strings.Contains(out, `"status_code":418`) || !strings.Contains(out, `"path":"/healthz"`) {
		t.Errorf("http_request log missing fields: %s", out)
	}
}

func TestRequestIDMiddlewareGeneratesID(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rec.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("generated X-Request-ID = %q, want a UUID", got)
	}
}
