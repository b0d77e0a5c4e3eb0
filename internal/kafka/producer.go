package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	EventTicketCreated   = "ticket.created"
	EventTicketUpdated   = "ticket.updated"
	EventTicketDeleted   = "ticket.deleted"
	EventSolutionCreated = "ai_solution.created"
	EventSolutionRated   = "ai_solution.rated"
	publishTimeout       = 5 * time.Second
)

// EventProducer — интерфейс для отправки событий тикетов (для подмены в тестах).
type EventProducer interface {
	Produce(ctx context.Context, event string, key string, payload map[string]interface{})
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer пишет события в топик Kafka (best-effort, не блокирует API).
type Producer struct {
	writer messageWriter
	topic  string
}

// NewProducer создаёт продюсер. Если brokers или topic пустые — методы no-op.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Producer) Enabled() bool {
	return p != nil && p.writer != nil
}

// Produce отправляет событие синхронно. key задаёт партицию (id тикета).
func (p *Producer) Produce(ctx context.Context, event string, key string, payload map[string]interface{}) {
	if !p.Enabled() {
		return
	}
	msg := map[string]interface{}{"event": event, "occurred_at": time.Now().UTC()}
	for k, v := range payload {
		msg[k] = v
	}
	body, err := json.Marshal(msg)
	if err != nil {
		slog.Warn("kafka: marshal event", "event", event, "error", err)
		return
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: body}); err != nil {
		slog.Warn("kafka: write event", "event", event, "error", err)
	}
}

// Publish вызывает Produce в горутине с собственным таймаутом:
// событие уходит даже если запрос уже отменён.
func Publish(p EventProducer, event string, key string, payload map[string]interface{}) {
	if p == nil {
		return
	}
	if pr, ok := p.(*Producer); ok && !pr.Enabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		p.Produce(ctx, event, key, payload)
	}()
}

func (p *Producer) Close() error {
	if !p.Enabled() {
		return nil
	}
	return p.writer.Close()
}
