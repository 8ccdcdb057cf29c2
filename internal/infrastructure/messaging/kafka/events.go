package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/c-nielson/CS534-Final-Project/pkg/errors"
)

// SchemaVersion of EventEnvelope.
const SchemaVersion = "1"

// Event types published by the feature pipeline.
const (
	EventFileCompleted = "nbfeat.file.completed"
	EventRunCompleted  = "nbfeat.run.completed"
)

// EventEnvelope wraps every published event.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope marshals payload into a fresh envelope.
func NewEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload").
			WithDetailf("event_type=%s", eventType)
	}
	return &EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		Payload:       raw,
	}, nil
}

// PublishEvent wraps payload in an envelope and publishes it to topic keyed by
// key.  Records sharing a key land on one partition.
func (p *Producer) PublishEvent(ctx context.Context, topic, key, eventType string, payload interface{}) error {
	msg, err := eventMessage(topic, key, eventType, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, msg)
}

// PublishEventAsync is PublishEvent through PublishAsync.  Only envelope
// errors are returned; write failures reach the AsyncErrorHandler.
func (p *Producer) PublishEventAsync(ctx context.Context, topic, key, eventType string, payload interface{}) error {
	msg, err := eventMessage(topic, key, eventType, payload)
	if err != nil {
		return err
	}
	p.PublishAsync(ctx, msg)
	return nil
}

func eventMessage(topic, key, eventType string, payload interface{}) (*Message, error) {
	env, err := NewEnvelope(eventType, "nbfeat", payload)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event envelope")
	}
	return &Message{
		Topic:     topic,
		Key:       []byte(key),
		Value:     data,
		Headers:   map[string]string{"event_type": eventType, "schema_version": SchemaVersion},
		Timestamp: env.Timestamp,
	}, nil
}

//Personal.AI order the ending
