package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSetup_Prometheus(t *testing.T) {
	p, err := Setup("browse", "prometheus")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = p.Shutdown(context.Background()) }()
	if p.Handler == nil {
		t.Fatal("expected /metrics handler for prometheus exporter")
	}

	ctr, err := p.MeterProvider.Meter("test").Int64Counter("reqcache.hits")
	if err != nil {
		t.Fatal(err)
	}
	ctr.Add(context.Background(), 3)

	rr := httptest.NewRecorder()
	p.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	if !strings.Contains(string(body), "reqcache") || !strings.Contains(string(body), "hits") {
		t.Fatalf("expected the reqcache hits counter in scrape output, got:\n%s", body)
	}
}

func TestSetup_None(t *testing.T) {
	p, err := Setup("browse", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Handler != nil {
		t.Fatal("expected no handler without prometheus")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("unexpected shutdown error: %v", err)
	}
}

func TestSetup_Unknown(t *testing.T) {
	if _, err := Setup("browse", "statsd"); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}
