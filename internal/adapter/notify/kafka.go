package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/binrental/binrental-backend/internal/domain"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "notify").Logger()

// NewWriter builds a Kafka writer for the given topic.
func NewWriter(broker, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// envelope is the wire format of a lifecycle event. The channel is the Kafka
// message key so one subscriber's events stay ordered within a partition.
type envelope struct {
	Event     string      `json:"event"`
	Channel   string      `json:"channel"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// KafkaNotifier publishes lifecycle events to the events topic. It implements
// domain.Notifier.
type KafkaNotifier struct {
	writer *kafka.Writer
}

// NewKafkaNotifier creates a new KafkaNotifier instance.
func NewKafkaNotifier(writer *kafka.Writer) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

// Publish sends one event to the channel's partition.
func (n *KafkaNotifier) Publish(ctx context.Context, event domain.Event, channel string, payload interface{}) error {
	data, err := json.Marshal(envelope{
		Event:     string(event),
		Channel:   channel,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(channel),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event, err)
	}

	logger.Debug().Str("event", string(event)).Str("channel", channel).Msg("event published")
	return nil
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// pushMessage is the wire format consumed by the push delivery worker.
type pushMessage struct {
	Tokens []string          `json:"tokens"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

// KafkaPushSender hands push notifications to the push topic, where a
// delivery worker forwards them to the device push gateway. It implements
// domain.PushSender.
type KafkaPushSender struct {
	writer *kafka.Writer
}

// NewKafkaPushSender creates a new KafkaPushSender instance.
func NewKafkaPushSender(writer *kafka.Writer) *KafkaPushSender {
	return &KafkaPushSender{writer: writer}
}

// Send enqueues one push notification for the given device tokens.
func (s *KafkaPushSender) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	if len(tokens) == 0 {
		return nil
	}

	msg, err := json.Marshal(pushMessage{
		Tokens: tokens,
		Title:  title,
		Body:   body,
		Data:   data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	err = s.writer.WriteMessages(ctx, kafka.Message{Value: msg})
	if err != nil {
		return fmt.Errorf("failed to enqueue push notification: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (s *KafkaPushSender) Close() error {
	return s.writer.Close()
}
