package observability

// Metric name prefixes
const (
	MetricPrefix = "voicecreate"
)

// Metric names
const (
	// Channel lifecycle metrics
	ChannelsProvisionedTotal        = MetricPrefix + ".channels.provisioned_total"
	ChannelsProvisioningFailedTotal = MetricPrefix + ".channels.provisioning_failed_total"
	ChannelsTornDownTotal           = MetricPrefix + ".channels.torn_down_total"
	ChannelsActive                  = MetricPrefix + ".channels.active"
	OwnershipChangesTotal           = MetricPrefix + ".ownership.changes_total"

	// Sweep metrics
	SweepDuration     = MetricPrefix + ".sweep.duration"
	SweepRemovedTotal = MetricPrefix + ".sweep.removed_total"

	// Platform metrics
	GatewayRetriesTotal = MetricPrefix + ".gateway.retries_total"
	CommandsTotal       = MetricPrefix + ".commands_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelStage     = "stage"
	LabelReason    = "reason"
	LabelLocked    = "locked"
	LabelOperation = "operation"
	LabelCommand   = "command"
)

// CommandTypeSlash labels application commands
const CommandTypeSlash = "slash"
