package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSONSetsHeadersAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]int{"countdown": 42})

	if rec.Code != http.StatusOK {
		t.Fatalf("status code: got %d want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("content-type: got %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("cache-control: got %q", got)
	}
	if body := rec.Body.String(); !strings.Contains(body, `"countdown":42`) {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestWriteErrorWrapsMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "invalid limit")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status code: got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"error":"invalid limit"}` {
		t.Fatalf("unexpected body: %q", body)
	}
}
