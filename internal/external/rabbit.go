package pricing

import (
	"context"
	"encoding/json"
	"time"

	models "github.com/glkeru/hotel/pricing/internal/models"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Оповещение дежурных о срочных override
type UrgentAlert struct {
	RuleID    uuid.UUID          `json:"ruleId"`
	Action    models.AuditAction `json:"action"`
	ActorID   string             `json:"actorId"`
	Reason    string             `json:"reason"`
	Urgency   models.Urgency     `json:"urgency"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Публикует в очередь только high и critical
type RabbitAlertPublisher struct {
	conn  *amqp.Connection
	ch    channel
	queue string
}

func NewRabbitAlertPublisher(dsn, queue string) (*RabbitAlertPublisher, error) {
	conn, err := amqp.Dial(dsn)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &RabbitAlertPublisher{conn, ch, queue}, nil
}

func urgent(u models.Urgency) bool {
	return u == models.UrgencyHigh || u == models.UrgencyCritical
}

func (r *RabbitAlertPublisher) Publish(ctx context.Context, entry models.AuditEntry) error {
	if !urgent(entry.Urgency) {
		return nil
	}
	msg, err := json.Marshal(UrgentAlert{
		RuleID:    entry.RuleID,
		Action:    entry.Action,
		ActorID:   entry.ActorID,
		Reason:    entry.Reason,
		Urgency:   entry.Urgency,
		CreatedAt: entry.CreatedAt,
	})
	if err != nil {
		return err
	}
	return r.ch.PublishWithContext(ctx,
		"",      // exchange
		r.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Priority:     uint8(4 - entry.Urgency.Rank()),
			Body:         msg,
		})
}

func (r *RabbitAlertPublisher) Close() {
	r.ch.Close()
	if r.conn != nil {
		r.conn.Close()
	}
}
