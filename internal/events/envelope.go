package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const Producer = "go-bizpos"

// EventEnvelope is the shared wrapper for every published event.
type EventEnvelope struct {
	EventName    string          `json:"eventName"`
	EventVersion int             `json:"eventVersion"`
	EventID      string          `json:"eventId"`
	Producer     string          `json:"producer"`
	PartitionKey string          `json:"partitionKey"`
	OccurredAt   time.Time       `json:"occurredAt"`
	Payload      json.RawMessage `json:"payload"`
}

func NewEnvelope(name string, version int, partitionKey string, occurredAt time.Time, payload any) (EventEnvelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return EventEnvelope{
		EventName:    name,
		EventVersion: version,
		EventID:      uuid.NewString(),
		Producer:     Producer,
		PartitionKey: partitionKey,
		OccurredAt:   occurredAt.UTC(),
		Payload:      body,
	}, nil
}

func (e EventEnvelope) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName %q", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partitionKey")
	}
	if e.EventID == "" {
		return fmt.Errorf("missing eventId")
	}
	return nil
}

// RoutingKey is "<eventName>.v<version>", e.g. "sale.completed.v1".
func RoutingKey(name string, version int) string {
	return fmt.Sprintf("%s.v%d", name, version)
}
