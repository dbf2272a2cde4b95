package enums

import "slices"

// OutboxAggregateType names the entity an outbox event is about.
type OutboxAggregateType string

const (
	AggregateOrder         OutboxAggregateType = "order"
	AggregateInventoryItem OutboxAggregateType = "inventory_item"
)

func (a OutboxAggregateType) IsValid() bool {
	return a == AggregateOrder || a == AggregateInventoryItem
}

// OutboxEventType names the side effect the dispatcher must perform.
type OutboxEventType string

const (
	EventNotificationRequested OutboxEventType = "notification_requested"
	EventLowStockDigest        OutboxEventType = "low_stock_digest"
)

// eventAggregates pins each event type to the only aggregate it may carry.
var eventAggregates = map[OutboxEventType]OutboxAggregateType{
	EventNotificationRequested: AggregateOrder,
	EventLowStockDigest:        AggregateInventoryItem,
}

func (e OutboxEventType) IsValid() bool {
	_, ok := eventAggregates[e]
	return ok
}

// Aggregate returns the aggregate type events of this type belong to, or ""
// for an unknown type.
func (e OutboxEventType) Aggregate() OutboxAggregateType {
	return eventAggregates[e]
}

// OutboxDLQErrorReason explains why the dispatcher stopped retrying an event.
type OutboxDLQErrorReason string

const (
	// transient failures exhausted the retry budget
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// the payload or handler can never succeed
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

var dlqReasons = []OutboxDLQErrorReason{OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable}

func (r OutboxDLQErrorReason) IsValid() bool {
	return slices.Contains(dlqReasons, r)
}
