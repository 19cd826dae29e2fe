package run

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.uber.org/zap"
)

func TestRun_StartErrorExitsOne(t *testing.T) {
	r := New(zap.NewNop())
	code := r.run(context.Background(), func(context.Context) error { return errors.New("bind failed") })
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestRun_ServerClosedExitsZero(t *testing.T) {
	r := New(zap.NewNop())
	code := r.run(context.Background(), func(context.Context) error { return http.ErrServerClosed })
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}

func TestRun_CancelledParentRunsCleanupsInReverse(t *testing.T) {
	r := New(zap.NewNop())
	var order []string
	r.OnShutdown(func(context.Context) error { order = append(order, "first"); return nil })
	r.OnShutdown(func(context.Context) error { order = append(order, "second"); return errors.New("ignored") })

	parent, cancel := context.WithCancel(context.Background())
	cancel()
	code := r.run(parent, func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("unexpected cleanup order %v", order)
	}
}
