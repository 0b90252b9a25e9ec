package market

import (
	kafkax "github.com/empowher/marketplace/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher fans events out to whatever is downstream. Publishing is
// best-effort: the store commit is the source of truth and events are
// never part of the transaction.
type Publisher interface {
	Publish(ev Envelope)
}

// KafkaPublisher routes envelopes to the per-topic producers.
type KafkaPublisher struct {
	Created *kafkax.Producer // order.created
	Status  *kafkax.Producer // order.status.changed
}

func (p *KafkaPublisher) Publish(ev Envelope) {
	var prod *kafkax.Producer
	switch ev.EventType {
	case EventOrderCreated:
		prod = p.Created
	case EventOrderStatusChanged:
		prod = p.Status
	default:
		return
	}
	prod.Publish(PartitionKey(ev.CorrelationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(ev.EventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

// NopPublisher drops events; used by tests and the in-memory dev mode.
type NopPublisher struct{}

func (NopPublisher) Publish(Envelope) {}
