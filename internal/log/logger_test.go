package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewWritesComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentMeal, Output: &buf})
	logger.Info("meal created", FieldMealMenu, "Pasta")

	out := buf.String()
	if strings.Count(out, `"component"`) != 1 || !strings.Contains(out, `"component":"meal"`) {
		t.Fatalf("unexpected output %s", out)
	}
	if !strings.Contains(out, `"meal_menu":"Pasta"`) {
		t.Fatalf("missing field in %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo, "bogus": slog.LevelInfo}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q: expected %v, got %v", in, want, got)
		}
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().WithMeal("", 2024, 3, 5, "Lunch", "Soup", 10).WithError(nil)
	if _, ok := f[FieldMealID]; ok {
		t.Fatalf("empty id should be omitted")
	}
	if _, ok := f[FieldError]; ok {
		t.Fatalf("nil error should be omitted")
	}
	f.WithError(errors.New("boom"))
	if f[FieldError] != "boom" || f[FieldMealCount] != 10 {
		t.Fatalf("unexpected fields %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("slice length mismatch")
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "text", Output: &buf})
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("expected request id in %q", buf.String())
	}
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected fallback logger")
	}
}
