package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"raffler/config"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
)

// MetricsProvider manages OpenTelemetry metrics for the raffle service
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	entriesCounter          metric.Int64Counter
	entriesRejectedCounter  metric.Int64Counter
	entryAmountHist         metric.Int64Histogram
	upkeepsCounter          metric.Int64Counter
	fulfillmentsCounter     metric.Int64Counter
	payoutAmountHist        metric.Int64Histogram
	natsMessagesPublishedCt metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize builds the meter provider for the configured exporter. A
// disabled or "none" exporter leaves the provider inert: every Record call is
// a no-op.
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		return nil
	}

	exporter, err := mp.newExporter(ctx)
	if err != nil {
		return err
	}
	if exporter == nil {
		log.WithFields(log.Fields{
			"enabled":  mp.config.OTelEnabled,
			"exporter": mp.config.OTelExporterType,
		}).Info("Metrics export disabled")
		mp.initialized = true
		return nil
	}

	reader := sdkmetric.NewPeriodicReader(exporter,
		sdkmetric.WithInterval(time.Duration(mp.config.OTelExportIntervalMillis)*time.Millisecond),
	)
	if err := mp.initializeWithReader(reader); err != nil {
		return err
	}

	otel.SetMeterProvider(mp.meterProvider)
	log.WithField("exporter", mp.config.OTelExporterType).Info("Metrics provider initialized")
	return nil
}

// newExporter returns nil, nil when nothing should be exported
func (mp *MetricsProvider) newExporter(ctx context.Context) (sdkmetric.Exporter, error) {
	if !mp.config.OTelEnabled {
		return nil, nil
	}

	switch mp.config.OTelExporterType {
	case "none":
		return nil, nil
	case "console":
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console exporter: %w", err)
		}
		return exporter, nil
	case "otlp":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		exporter, err := otlpmetricgrpc.New(dialCtx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTelOTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP exporter for %s: %w", mp.config.OTelOTLPEndpoint, err)
		}
		return exporter, nil
	default:
		return nil, fmt.Errorf("unknown exporter type: %s", mp.config.OTelExporterType)
	}
}

// initializeWithReader builds the meter provider around reader. Caller holds mu.
func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(mp.config.OTelServiceName),
			attribute.String("environment", mp.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	mp.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	mp.meter = mp.meterProvider.Meter("raffler")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	return nil
}

func (mp *MetricsProvider) createInstruments() error {
	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.entriesCounter, EntriesTotal, "Accepted raffle entries"},
		{&mp.entriesRejectedCounter, EntriesRejectedTotal, "Rejected raffle entries by reason"},
		{&mp.upkeepsCounter, UpkeepsTotal, "Upkeep attempts by outcome"},
		{&mp.fulfillmentsCounter, FulfillmentsTotal, "Randomness fulfillments by outcome"},
		{&mp.natsMessagesPublishedCt, NATSMessagesPublished, "Domain events published to NATS"},
	}
	for _, c := range counters {
		counter, err := mp.meter.Int64Counter(c.name, metric.WithDescription(c.description), metric.WithUnit("1"))
		if err != nil {
			return fmt.Errorf("failed to create counter %s: %w", c.name, err)
		}
		*c.target = counter
	}

	histograms := []struct {
		target      *metric.Int64Histogram
		name        string
		description string
	}{
		{&mp.entryAmountHist, EntryAmount, "Amount paid per accepted entry"},
		{&mp.payoutAmountHist, PayoutAmount, "Prize amount per fulfillment attempt"},
	}
	for _, h := range histograms {
		histogram, err := mp.meter.Int64Histogram(h.name, metric.WithDescription(h.description), metric.WithUnit("{wei}"))
		if err != nil {
			return fmt.Errorf("failed to create histogram %s: %w", h.name, err)
		}
		*h.target = histogram
	}

	return nil
}

// Shutdown flushes and shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// RecordEntry records an accepted entry
func (mp *MetricsProvider) RecordEntry(ctx context.Context, amountPaid int64) {
	if !mp.isEnabled() {
		return
	}

	mp.entriesCounter.Add(ctx, 1)
	mp.entryAmountHist.Record(ctx, amountPaid)
}

// RecordEntryRejected records a rejected entry
func (mp *MetricsProvider) RecordEntryRejected(ctx context.Context, reason string) {
	if !mp.isEnabled() {
		return
	}

	mp.entriesRejectedCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(LabelReason, reason)),
	)
}

// RecordUpkeep records a PerformUpkeep attempt
func (mp *MetricsProvider) RecordUpkeep(ctx context.Context, outcome string) {
	if !mp.isEnabled() {
		return
	}

	mp.upkeepsCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(LabelOutcome, outcome)),
	)
}

// RecordFulfillment records a fulfillment attempt and, when known, its prize
func (mp *MetricsProvider) RecordFulfillment(ctx context.Context, outcome string, prizeAmount int64) {
	if !mp.isEnabled() {
		return
	}

	attrs := metric.WithAttributes(attribute.String(LabelOutcome, outcome))
	mp.fulfillmentsCounter.Add(ctx, 1, attrs)
	if prizeAmount > 0 {
		mp.payoutAmountHist.Record(ctx, prizeAmount, attrs)
	}
}

// RecordNATSMessagePublished records a domain event published to NATS
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsMessagesPublishedCt.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String(LabelEventType, eventType)),
	)
}

// isEnabled reports whether instruments exist to record into
func (mp *MetricsProvider) isEnabled() bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized && mp.meter != nil
}

var (
	globalMetrics *MetricsProvider
	metricsOnce   sync.Once
)

// InitializeGlobalMetrics initializes the global metrics provider
func InitializeGlobalMetrics(ctx context.Context, cfg *config.Config) error {
	var err error
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsProvider(cfg)
		err = globalMetrics.Initialize(ctx)
	})
	return err
}

// GetMetrics returns the global metrics provider
func GetMetrics() *MetricsProvider {
	return globalMetrics
}

// ShutdownGlobalMetrics shuts down the global metrics provider
func ShutdownGlobalMetrics(ctx context.Context) error {
	if globalMetrics != nil {
		return globalMetrics.Shutdown(ctx)
	}
	return nil
}
