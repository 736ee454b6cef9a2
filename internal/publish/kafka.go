// internal/publish/kafka.go
package publish

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"nilm-live/internal/config"
	"nilm-live/internal/data"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher appends events to a topic keyed by session id, so one
// session's events stay ordered within a partition.
type KafkaPublisher struct {
	w   messageWriter
	log *slog.Logger
}

// NewKafkaPublisher builds an async writer; delivery errors surface through
// the writer's completion callback and are logged.
func NewKafkaPublisher(cfg config.KafkaConfig, log *slog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Warn("kafka delivery failed", slog.Int("messages", len(msgs)), slog.Any("err", err))
			}
		},
	}
	log.Info("kafka tap enabled", slog.Any("brokers", cfg.Brokers), slog.String("topic", cfg.Topic))
	return &KafkaPublisher{w: w, log: log}
}

func newMessage(sessionID string, ev data.Event) (kafka.Message, error) {
	payload, err := data.Encode(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(sessionID),
		Value: payload,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "appliance", Value: []byte(ev.PredictedAppliance)},
		},
	}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, sessionID string, ev data.Event) error {
	msg, err := newMessage(sessionID, ev)
	if err != nil {
		return err
	}
	return p.w.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

func (p *KafkaPublisher) Name() string { return "kafka" }
