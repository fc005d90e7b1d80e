package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("conversation-metrics")

// ConversationMetrics provides metrics collection for webhook event handling.
type ConversationMetrics struct {
	eventsReceivedCounter  metric.Int64Counter
	transitionsCounter     metric.Int64Counter
	unmatchedInputsCounter metric.Int64Counter
	stateConflictsCounter  metric.Int64Counter
	sendFailuresCounter    metric.Int64Counter
	handleDuration         metric.Float64Histogram
}

// NewConversationMetrics creates a new conversation metrics collector.
func NewConversationMetrics() (*ConversationMetrics, error) {
	eventsReceivedCounter, err := meter.Int64Counter(
		"sac_bot.events.received",
		metric.WithDescription("Total number of inbound messaging events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	transitionsCounter, err := meter.Int64Counter(
		"sac_bot.transitions.applied",
		metric.WithDescription("Total number of persisted state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	unmatchedInputsCounter, err := meter.Int64Counter(
		"sac_bot.inputs.unmatched",
		metric.WithDescription("Total number of inputs no transition rule matched"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	stateConflictsCounter, err := meter.Int64Counter(
		"sac_bot.state.conflicts",
		metric.WithDescription("Total number of optimistic state updates lost to a concurrent session"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	sendFailuresCounter, err := meter.Int64Counter(
		"sac_bot.send.failures",
		metric.WithDescription("Total number of failed outbound deliveries"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	handleDuration, err := meter.Float64Histogram(
		"sac_bot.event.duration",
		metric.WithDescription("Duration of inbound event handling in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &ConversationMetrics{
		eventsReceivedCounter:  eventsReceivedCounter,
		transitionsCounter:     transitionsCounter,
		unmatchedInputsCounter: unmatchedInputsCounter,
		stateConflictsCounter:  stateConflictsCounter,
		sendFailuresCounter:    sendFailuresCounter,
		handleDuration:         handleDuration,
	}, nil
}

// RecordEventReceived records one inbound messaging event.
func (cm *ConversationMetrics) RecordEventReceived(ctx context.Context, kind string) {
	cm.eventsReceivedCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("event.kind", kind)),
	)
}

// RecordTransition records a persisted state transition.
func (cm *ConversationMetrics) RecordTransition(ctx context.Context, fromState, toState string) {
	cm.transitionsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("state.from", fromState),
			attribute.String("state.to", toState),
		),
	)
}

// RecordUnmatchedInput records an input that matched no transition rule.
func (cm *ConversationMetrics) RecordUnmatchedInput(ctx context.Context, state string) {
	cm.unmatchedInputsCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("state.current", state)),
	)
}

// RecordStateConflict records an optimistic update that lost a race.
func (cm *ConversationMetrics) RecordStateConflict(ctx context.Context, state string) {
	cm.stateConflictsCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("state.expected", state)),
	)
}

// RecordSendFailure records a failed outbound delivery.
func (cm *ConversationMetrics) RecordSendFailure(ctx context.Context) {
	cm.sendFailuresCounter.Add(ctx, 1)
}

// RecordHandleDuration records how long one event took end to end.
func (cm *ConversationMetrics) RecordHandleDuration(ctx context.Context, outcome string, duration time.Duration) {
	cm.handleDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("outcome", outcome)),
	)
}
