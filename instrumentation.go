package bodhi

import (
	"context"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/navana-tech/bodhi-go"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	framesSent, _       = meter.Int64Counter("bodhi.client.frames_sent")
	audioBytesSent, _   = meter.Int64Counter("bodhi.client.audio_bytes_sent")
	messagesReceived, _ = meter.Int64Counter("bodhi.client.messages_received")
	eventsDispatched, _ = meter.Int64Counter("bodhi.client.events_dispatched")
	eventsDropped, _    = meter.Int64Counter("bodhi.client.events_dropped")
)

func recordEvent(counter metric.Int64Counter, eventType EventType) {
	counter.Add(context.Background(), 1, metric.WithAttributes(attribute.String("bodhi.event", string(eventType))))
}
