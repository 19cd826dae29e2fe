package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError_Envelope(t *testing.T) {
	rr := httptest.NewRecorder()
	BadGateway(rr, "UPSTREAM_ERROR", "API Error: 503 Service Unavailable", "rid-1", map[string]any{"upstream_status": 503})

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Code != "UPSTREAM_ERROR" || resp.Error.RequestID != "rid-1" {
		t.Fatalf("unexpected envelope: %+v", resp.Error)
	}
	if resp.Error.Details["upstream_status"] != float64(503) {
		t.Fatalf("expected upstream_status detail, got %v", resp.Error.Details)
	}
}

func TestInternal_HidesDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	Internal(rr, "rid-2")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Code != "INTERNAL" || resp.Error.Details != nil {
		t.Fatalf("unexpected envelope: %+v", resp.Error)
	}
}

func TestWriteJSON_NoHTMLEscaping(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteJSON(rr, http.StatusOK, map[string]string{"synopsis": "Tom & Jerry <3"})
	if got := rr.Body.String(); got != "{\"synopsis\":\"Tom & Jerry <3\"}\n" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestWriteRawJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	raw := []byte("{\"data\": [ 1, 2 ]}")
	WriteRawJSON(rr, http.StatusOK, raw)
	if rr.Code != http.StatusOK || rr.Body.String() != string(raw) {
		t.Fatalf("expected raw body, got %d %q", rr.Code, rr.Body.String())
	}
}
