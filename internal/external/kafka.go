package pricing

import (
	"context"
	"encoding/json"

	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Поток аудита в Kafka, ключ - id правила
type KafkaAuditPublisher struct {
	writer messageWriter
}

func NewKafkaAuditPublisher(url, topic string) *KafkaAuditPublisher {
	return &KafkaAuditPublisher{&kafka.Writer{
		Addr:                   kafka.TCP(url),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

func (k *KafkaAuditPublisher) Publish(ctx context.Context, entry models.AuditEntry) error {
	msg, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.RuleID.String()),
		Value: msg,
		Time:  entry.CreatedAt,
	})
}

func (k *KafkaAuditPublisher) Close() error {
	return k.writer.Close()
}
