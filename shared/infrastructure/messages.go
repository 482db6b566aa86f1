package infrastructure

import (
	"encoding/json"
	"time"

	"github.com/draftea/food-ordering/shared/events"
	"github.com/draftea/food-ordering/shared/models"
	"github.com/pkg/errors"
)

// wireMessage is the body every service puts on the bus
type wireMessage struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Metadata      events.Metadata `json:"metadata"`
	Topic         string          `json:"topic"`
	Version       string          `json:"version"`
	Payload       json.RawMessage `json:"payload"`
	Timestamp     time.Time       `json:"timestamp"`
}

// snsNotification is what SNS delivers to an SQS subscription without raw
// message delivery
type snsNotification struct {
	Type      string `json:"Type"`
	MessageID string `json:"MessageId"`
	Message   string `json:"Message"`
}

func encodeMessage(event *events.Event) ([]byte, error) {
	payload, err := event.MarshalPayload()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal payload")
	}

	message := &wireMessage{
		ID:            event.ID.String(),
		AggregateID:   event.AggregateID.String(),
		CorrelationID: event.CorrelationID.String(),
		Metadata:      event.Metadata,
		Topic:         event.Topic.String(),
		Version:       event.Version,
		Payload:       payload,
		Timestamp:     event.Timestamp,
	}

	body, err := json.Marshal(message)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal message")
	}
	return body, nil
}

// decodeMessage accepts both raw bodies and SNS notifications. The payload
// is kept as raw JSON for the handler to unmarshal.
func decodeMessage(body []byte) (*events.Event, error) {
	var notification snsNotification
	if err := json.Unmarshal(body, &notification); err == nil && notification.Type == "Notification" {
		body = []byte(notification.Message)
	}

	var message wireMessage
	if err := json.Unmarshal(body, &message); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal message")
	}

	topic, err := events.NewTopic(message.Topic)
	if err != nil {
		return nil, errors.Wrap(err, "message has no topic")
	}

	metadata := message.Metadata
	if metadata == nil {
		metadata = make(events.Metadata)
	}

	var data interface{}
	if len(message.Payload) > 0 && string(message.Payload) != "null" {
		data = message.Payload
	}

	return &events.Event{
		ID:            models.ID(message.ID),
		AggregateID:   models.ID(message.AggregateID),
		Topic:         topic,
		Version:       message.Version,
		Data:          data,
		Metadata:      metadata,
		Timestamp:     message.Timestamp,
		CorrelationID: models.ID(message.CorrelationID),
	}, nil
}
