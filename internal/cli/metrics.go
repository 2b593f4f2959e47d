package cli

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/rshade/pecunia/internal/config"
)

// newMeterProvider returns the provider for the configured exporter and its shutdown
// function. The stdout exporter writes one JSON snapshot of the cache counters to w when
// the provider shuts down.
func newMeterProvider(cfg config.MetricsConfig, w io.Writer) (metric.MeterProvider, func(context.Context) error, error) {
	switch cfg.Exporter {
	case config.ExporterStdout:
		exporter, err := stdoutmetric.New(
			stdoutmetric.WithWriter(w),
			stdoutmetric.WithPrettyPrint(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("creating stdout metric exporter: %w", err)
		}
		provider := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		)
		return provider, provider.Shutdown, nil
	default:
		return noop.NewMeterProvider(), func(context.Context) error { return nil }, nil
	}
}
