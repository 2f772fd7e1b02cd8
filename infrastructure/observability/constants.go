package observability

// Metric name prefixes
const (
	MetricPrefix = "raffler"
)

// Metric names
const (
	EntriesTotal          = MetricPrefix + ".raffle.entries_total"
	EntriesRejectedTotal  = MetricPrefix + ".raffle.entries_rejected_total"
	EntryAmount           = MetricPrefix + ".raffle.entry_amount"
	UpkeepsTotal          = MetricPrefix + ".raffle.upkeeps_total"
	FulfillmentsTotal     = MetricPrefix + ".raffle.fulfillments_total"
	PayoutAmount          = MetricPrefix + ".raffle.payout_amount"
	NATSMessagesPublished = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelOutcome   = "outcome"
	LabelReason    = "reason"
	LabelEventType = "event_type"
)
