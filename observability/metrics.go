package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"voicecreate/config"
	"voicecreate/events"

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

// MetricsProvider manages OpenTelemetry metrics for the bot. Every Record
// method is a no-op until Initialize succeeds with an exporter configured.
type MetricsProvider struct {
	config        *config.Config
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	initialized   bool
	mu            sync.RWMutex

	// Metric instruments
	provisionedCounter   metric.Int64Counter
	provisionFailCounter metric.Int64Counter
	tornDownCounter      metric.Int64Counter
	activeChannelsGauge  metric.Int64UpDownCounter
	ownershipCounter     metric.Int64Counter
	sweepDurationHist    metric.Float64Histogram
	sweepRemovedCounter  metric.Int64Counter
	gatewayRetryCounter  metric.Int64Counter
	commandsCounter      metric.Int64Counter
	natsPublishedCounter metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(cfg *config.Config) *MetricsProvider {
	return &MetricsProvider{
		config: cfg,
	}
}

// Initialize sets up the OpenTelemetry metrics provider for the configured exporter
func (mp *MetricsProvider) Initialize(ctx context.Context) error {
	var exporter sdkmetric.Exporter
	var err error

	switch mp.config.MetricsExporter {
	case config.MetricsExporterStdout:
		exporter, err = stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console exporter: %w", err)
		}
		log.Info("Using console metric exporter")

	case config.MetricsExporterOTLP:
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(mp.config.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		log.WithField("endpoint", mp.config.OTLPEndpoint).Info("Using OTLP metric exporter")

	case config.MetricsExporterNone, "":
		log.Info("Metrics export disabled")
		return nil

	default:
		return fmt.Errorf("unknown exporter type: %s", mp.config.MetricsExporter)
	}

	return mp.initializeWithReader(sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(mp.config.MetricInterval),
	))
}

func (mp *MetricsProvider) initializeWithReader(reader sdkmetric.Reader) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.initialized {
		log.Debug("Metrics provider already initialized")
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(mp.config.ServiceName),
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
	otel.SetMeterProvider(mp.meterProvider)
	mp.meter = mp.meterProvider.Meter("voicecreate")

	if err := mp.createInstruments(); err != nil {
		return fmt.Errorf("failed to create instruments: %w", err)
	}

	mp.initialized = true
	log.Info("Metrics provider initialized successfully")
	return nil
}

// createInstruments creates all metric instruments
func (mp *MetricsProvider) createInstruments() error {
	var err error

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&mp.provisionedCounter, ChannelsProvisionedTotal, "Total number of provisioned channel pairs"},
		{&mp.provisionFailCounter, ChannelsProvisioningFailedTotal, "Total number of failed provisioning attempts"},
		{&mp.tornDownCounter, ChannelsTornDownTotal, "Total number of torn down channel pairs"},
		{&mp.ownershipCounter, OwnershipChangesTotal, "Total number of ownership changes"},
		{&mp.sweepRemovedCounter, SweepRemovedTotal, "Total number of channels removed by sweeps"},
		{&mp.gatewayRetryCounter, GatewayRetriesTotal, "Total number of retried platform requests"},
		{&mp.commandsCounter, CommandsTotal, "Total number of handled commands"},
		{&mp.natsPublishedCounter, NATSMessagesPublishedTotal, "Total number of NATS messages published"},
	}
	for _, c := range counters {
		*c.target, err = mp.meter.Int64Counter(c.name,
			metric.WithDescription(c.description),
			metric.WithUnit("1"),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s counter: %w", c.name, err)
		}
	}

	// UpDownCounter for gauge-like behavior
	mp.activeChannelsGauge, err = mp.meter.Int64UpDownCounter(
		ChannelsActive,
		metric.WithDescription("Channel pairs provisioned and not yet torn down by this process"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("failed to create active channels gauge: %w", err)
	}

	mp.sweepDurationHist, err = mp.meter.Float64Histogram(
		SweepDuration,
		metric.WithDescription("Duration of guild sweeps in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return fmt.Errorf("failed to create sweep duration histogram: %w", err)
	}

	return nil
}

// Shutdown flushes and stops the exporter
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}

// SubscribeToBus counts lifecycle events as they are emitted
func (mp *MetricsProvider) SubscribeToBus(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		mp.RecordEvent(ctx, event)
	})
}

// RecordEvent records one lifecycle event
func (mp *MetricsProvider) RecordEvent(ctx context.Context, event events.Event) {
	if !mp.isEnabled() {
		return
	}

	switch e := event.(type) {
	case events.ChannelProvisionedEvent:
		mp.provisionedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.Bool(LabelLocked, e.Locked),
		))
		mp.activeChannelsGauge.Add(ctx, 1)
	case events.ProvisioningFailedEvent:
		mp.provisionFailCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(LabelStage, e.Stage),
		))
	case events.ChannelTornDownEvent:
		mp.tornDownCounter.Add(ctx, 1)
		mp.activeChannelsGauge.Add(ctx, -1)
	case events.OwnershipChangedEvent:
		mp.ownershipCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String(LabelReason, e.Reason),
		))
	}
}

// RecordSweep matches service.LifecycleConfig.OnSweep
func (mp *MetricsProvider) RecordSweep(guildID int64, checked, removed int, elapsed time.Duration) {
	if !mp.isEnabled() {
		return
	}

	ctx := context.Background()
	mp.sweepDurationHist.Record(ctx, elapsed.Seconds())
	if removed > 0 {
		mp.sweepRemovedCounter.Add(ctx, int64(removed))
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"checked":  checked,
		"removed":  removed,
		"elapsed":  elapsed,
	}).Debug("Recorded sweep")
}

// RecordGatewayRetry matches gateway.RetryOptions.OnRetry
func (mp *MetricsProvider) RecordGatewayRetry(op string, err error) {
	if !mp.isEnabled() {
		return
	}

	mp.gatewayRetryCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelOperation, op),
		),
	)
}

// RecordCommand records a handled command
func (mp *MetricsProvider) RecordCommand(commandType, name string) {
	if !mp.isEnabled() {
		return
	}

	mp.commandsCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelType, commandType),
			attribute.String(LabelCommand, name),
		),
	)
}

// RecordNATSMessagePublished records a NATS message being published
func (mp *MetricsProvider) RecordNATSMessagePublished(eventType string) {
	if !mp.isEnabled() {
		return
	}

	mp.natsPublishedCounter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String(LabelEventType, eventType),
		),
	)
}

// isEnabled checks if metrics are enabled and initialized
func (mp *MetricsProvider) isEnabled() bool {
	if mp == nil {
		return false
	}
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return mp.initialized
}
