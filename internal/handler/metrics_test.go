package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/taskvault/taskvault/internal/metrics"
)

func TestMetricsHandler(t *testing.T) {
	recorder := metrics.NewInMemory()
	recorder.IncUserRegistered()
	recorder.IncLoginSuccess()
	recorder.IncLoginFailure()
	recorder.IncLoginFailure()
	recorder.IncTodoCreated()

	h := NewMetricsHandler(recorder)

	req := httptest.NewRequest(http.MethodGet, "/metricsz", nil)
	rec := httptest.NewRecorder()
	h.Metrics(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Errorf("unexpected content type %q", ct)
	}

	body := rec.Body.String()
	for _, line := range []string{
		"taskvault_users_registered_total 1",
		`taskvault_logins_total{status="success"} 1`,
		`taskvault_logins_total{status="failure"} 2`,
		"taskvault_todos_created_total 1",
		"taskvault_todos_deleted_total 0",
	} {
		if !strings.Contains(body, line) {
			t.Errorf("missing metric line %q in output:\n%s", line, body)
		}
	}
}

func TestMetricsHandler_NoSnapshotter(t *testing.T) {
	h := NewMetricsHandler(nil)

	rec := httptest.NewRecorder()
	h.Metrics(rec, httptest.NewRequest(http.MethodGet, "/metricsz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
