package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// InitMeterProvider initializes the Prometheus exporter and MeterProvider.
// It returns an http.Handler for the /metrics endpoint and a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(serviceName, serviceVersion)),
	)

	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}

// Metrics holds the fulfillment domain instruments.
type Metrics struct {
	OrdersCreated     metric.Int64Counter
	OrdersCancelled   metric.Int64Counter
	PaymentsConfirmed metric.Int64Counter
	StockDeducted     metric.Int64Counter
	StockReturned     metric.Int64Counter
}

func NewMetrics() (*Metrics, error) {
	meter := otel.Meter("fulfillment")

	ordersCreated, err := meter.Int64Counter("fulfillment.orders.created",
		metric.WithDescription("Orders created from carts"))
	if err != nil {
		return nil, err
	}
	ordersCancelled, err := meter.Int64Counter("fulfillment.orders.cancelled",
		metric.WithDescription("Orders cancelled"))
	if err != nil {
		return nil, err
	}
	paymentsConfirmed, err := meter.Int64Counter("fulfillment.payments.confirmed",
		metric.WithDescription("Payments confirmed"))
	if err != nil {
		return nil, err
	}
	stockDeducted, err := meter.Int64Counter("fulfillment.stock.deducted",
		metric.WithDescription("Units of stock deducted for orders"))
	if err != nil {
		return nil, err
	}
	stockReturned, err := meter.Int64Counter("fulfillment.stock.returned",
		metric.WithDescription("Units of stock returned on cancellation"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		OrdersCreated:     ordersCreated,
		OrdersCancelled:   ordersCancelled,
		PaymentsConfirmed: paymentsConfirmed,
		StockDeducted:     stockDeducted,
		StockReturned:     stockReturned,
	}, nil
}
