package market

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service implements the marketplace use cases on top of a Store. All
// invariant-bearing writes are delegated to the store's atomic operations;
// the service owns validation, authorization and notification composition.
type Service struct {
	Store  Store
	Events Publisher
	Log    *slog.Logger
	Name   string // producer name stamped on event envelopes

	// Now is overridable for tests.
	Now func() time.Time
}

func NewService(store Store, events Publisher, log *slog.Logger, name string) *Service {
	return &Service{Store: store, Events: events, Log: log, Name: name, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) emit(eventType, orderID string, payload any) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    s.now().UTC(),
		Producer:      s.Name,
		CorrelationID: orderID,
		Payload:       mustJSON(payload),
	})
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
