// Package events fans accepted telemetry out to a RabbitMQ topic exchange so
// downstream consumers (dashboards, alerting) can react without polling the
// API. Publishing is best-effort: a broker failure never fails the request
// that produced the event.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/tkesici/greenhouse-manager/internal/metrics"
	"github.com/tkesici/greenhouse-manager/internal/models"
)

const (
	RoutingKeySensorReading = "sensor.reading"

	routingKeyActuatorPrefix = "actuator."
)

// Event is the envelope published for every accepted reading or command.
type Event struct {
	ID           uuid.UUID   `json:"id"`
	TenantID     int64       `json:"tenant_id"`
	GreenhouseID int64       `json:"greenhouse_id"`
	Kind         string      `json:"kind"`
	Payload      interface{} `json:"payload"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

// Publisher is the outbound telemetry sink consumed by the API handlers. The
// zero-value-free constructors below return either a broker-backed publisher
// or a no-op one, so handlers never nil-check.
type Publisher interface {
	PublishSensorReading(ctx context.Context, tenantID int64, reading *models.SensorReading)
	PublishActuatorCommand(ctx context.Context, tenantID int64, kind models.ActuatorKind, status *models.ActuatorStatus)
	Close() error
}

type amqpPublisher struct {
	url      string
	exchange string
	logger   *zap.Logger

	mutex      sync.Mutex
	connection *amqp.Connection
	channel    *amqp.Channel
	done       chan struct{}
}

// NewPublisher connects to the broker and declares the topic exchange. The
// connection is retried with linear backoff before giving up.
func NewPublisher(url, exchange string, logger *zap.Logger) (Publisher, error) {
	p := &amqpPublisher{
		url:      url,
		exchange: exchange,
		logger:   logger,
		done:     make(chan struct{}),
	}

	if err := p.connect(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *amqpPublisher) connect() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.connection != nil && !p.connection.IsClosed() {
		return nil
	}

	var conn *amqp.Connection
	var err error

	for attempt := 1; attempt <= 5; attempt++ {
		conn, err = amqp.Dial(p.url)
		if err == nil {
			break
		}

		p.logger.Warn("Failed to connect to RabbitMQ, retrying...",
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < 5 {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ after 5 attempts: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // kind
		true,       // durable
		false,      // auto-delete
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange %s: %w", p.exchange, err)
	}

	p.connection = conn
	p.channel = ch
	p.logger.Info("Connected to RabbitMQ", zap.String("exchange", p.exchange))

	go p.monitorConnection(conn)

	return nil
}

func (p *amqpPublisher) monitorConnection(conn *amqp.Connection) {
	closeChan := make(chan *amqp.Error, 1)
	conn.NotifyClose(closeChan)

	select {
	case <-p.done:
		return
	case err := <-closeChan:
		if err == nil {
			return
		}
		p.logger.Error("RabbitMQ connection lost", zap.Error(err))
		for {
			select {
			case <-p.done:
				return
			default:
				if cerr := p.connect(); cerr != nil {
					p.logger.Error("Failed to reconnect to RabbitMQ", zap.Error(cerr))
					time.Sleep(5 * time.Second)
					continue
				}
				return
			}
		}
	}
}

func (p *amqpPublisher) PublishSensorReading(ctx context.Context, tenantID int64, reading *models.SensorReading) {
	p.publish(ctx, RoutingKeySensorReading, Event{
		ID:           uuid.New(),
		TenantID:     tenantID,
		GreenhouseID: reading.GreenhouseID,
		Kind:         "sensor_reading",
		Payload:      reading,
		OccurredAt:   reading.RecordedAt,
	})
}

func (p *amqpPublisher) PublishActuatorCommand(ctx context.Context, tenantID int64, kind models.ActuatorKind, status *models.ActuatorStatus) {
	p.publish(ctx, routingKeyActuatorPrefix+string(kind), Event{
		ID:           uuid.New(),
		TenantID:     tenantID,
		GreenhouseID: status.GreenhouseID,
		Kind:         string(kind),
		Payload:      status,
		OccurredAt:   status.RecordedAt,
	})
}

func (p *amqpPublisher) publish(ctx context.Context, routingKey string, event Event) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to encode telemetry event", zap.Error(err))
		metrics.IncrementEventsPublished("failed")
		return
	}

	p.mutex.Lock()
	ch := p.channel
	p.mutex.Unlock()

	if ch == nil || ch.IsClosed() {
		p.logger.Warn("Dropping telemetry event, broker channel unavailable",
			zap.String("routing_key", routingKey))
		metrics.IncrementEventsPublished("failed")
		return
	}

	err = ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID.String(),
			Timestamp:    event.OccurredAt,
		})

	if err != nil {
		p.logger.Error("Failed to publish telemetry event",
			zap.Error(err),
			zap.String("routing_key", routingKey))
		metrics.IncrementEventsPublished("failed")
		return
	}

	metrics.IncrementEventsPublished("success")
	p.logger.Debug("Telemetry event published",
		zap.String("routing_key", routingKey),
		zap.String("event_id", event.ID.String()))
}

func (p *amqpPublisher) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	close(p.done)

	if p.channel != nil && !p.channel.IsClosed() {
		p.channel.Close()
	}

	if p.connection != nil && !p.connection.IsClosed() {
		if err := p.connection.Close(); err != nil {
			p.logger.Error("Error closing RabbitMQ connection", zap.Error(err))
			return err
		}
	}

	p.logger.Info("RabbitMQ connection closed")
	return nil
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every event. Used when
// events are disabled in configuration.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishSensorReading(context.Context, int64, *models.SensorReading) {}

func (noopPublisher) PublishActuatorCommand(context.Context, int64, models.ActuatorKind, *models.ActuatorStatus) {
}

func (noopPublisher) Close() error { return nil }
