// Package metrics builds the OpenTelemetry meter provider for a service and,
// for the prometheus exporter, the handler serving /metrics.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Provider owns the meter provider; Handler is nil unless the exporter is prometheus.
type Provider struct {
	MeterProvider *sdkmetric.MeterProvider
	Handler       http.Handler
}

func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(ctx)
}

// Setup creates a provider for exporter: prometheus, stdout or none ("" = none).
func Setup(serviceName, exporter string) (*Provider, error) {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	p := &Provider{}
	switch strings.ToLower(strings.TrimSpace(exporter)) {
	case "prometheus":
		reg := prometheus.NewRegistry()
		exp, err := otelprom.New(otelprom.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("metrics: prometheus exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(exp))
		p.Handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return nil, fmt.Errorf("metrics: stdout exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
	case "none", "":
	default:
		return nil, fmt.Errorf("metrics: unknown exporter %q", exporter)
	}

	p.MeterProvider = sdkmetric.NewMeterProvider(opts...)
	return p, nil
}
