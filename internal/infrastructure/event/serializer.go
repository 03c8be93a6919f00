package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopledger/backend/internal/domain/shared"
)

// Envelope is the wire form of a ledger event. Payload holds the full event
// as marshalled by encoding/json, including its type-specific fields.
type Envelope struct {
	EventID       uuid.UUID       `json:"eventId"`
	EventType     string          `json:"eventType"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   uuid.UUID       `json:"aggregateId"`
	OwnerID       uuid.UUID       `json:"ownerId"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Payload       json.RawMessage `json:"payload"`
}

// Marshal wraps e in an Envelope and encodes it
func Marshal(e shared.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", e.EventType(), err)
	}
	return json.Marshal(Envelope{
		EventID:       e.EventID(),
		EventType:     e.EventType(),
		AggregateType: e.AggregateType(),
		AggregateID:   e.AggregateID(),
		OwnerID:       e.OwnerID(),
		OccurredAt:    e.OccurredAt().UTC(),
		Payload:       payload,
	})
}

// Unmarshal decodes an Envelope
func Unmarshal(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode event envelope: %w", err)
	}
	return env, nil
}

// DecodePayload decodes the payload of env into T
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if err := json.Unmarshal(env.Payload, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", env.EventType, err)
	}
	return out, nil
}
