package queue

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPQueue publishes and consumes JSON payloads on durable RabbitMQ queues
// named after the topic.
type AMQPQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	log  *zap.Logger

	mu       sync.Mutex
	declared map[string]bool
}

func DialAMQP(url string, log *zap.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &AMQPQueue{conn: conn, ch: ch, log: log, declared: map[string]bool{}}, nil
}

// declare expects q.mu to be held.
func (q *AMQPQueue) declare(topic string) error {
	if q.declared[topic] {
		return nil
	}
	_, err := q.ch.QueueDeclare(
		topic, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", topic, err)
	}
	q.declared[topic] = true
	return nil
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.declare(topic); err != nil {
		return err
	}
	return q.ch.Publish(
		"",    // default exchange
		topic, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Subscribe consumes topic with manual acks. The handler receives the raw
// JSON body as json.RawMessage. A failed delivery is requeued once, then dropped.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	q.mu.Lock()
	err := q.declare(topic)
	var msgs <-chan amqp.Delivery
	if err == nil {
		msgs, err = q.ch.Consume(
			topic,
			"",
			false, // autoAck
			false,
			false,
			false,
			nil,
		)
	}
	q.mu.Unlock()
	if err != nil {
		return fmt.Errorf("consume %s: %w", topic, err)
	}

	go func() {
		for d := range msgs {
			if err := handler(json.RawMessage(d.Body)); err != nil {
				q.log.Warn("Failed to handle delivery",
					zap.String("topic", topic),
					zap.Bool("redelivered", d.Redelivered),
					zap.Error(err))
				d.Nack(false, !d.Redelivered)
				continue
			}
			d.Ack(false)
		}
		q.log.Info("Delivery channel closed", zap.String("topic", topic))
	}()
	return nil
}

// NotifyClose reports when the broker connection goes away.
func (q *AMQPQueue) NotifyClose() <-chan *amqp.Error {
	return q.conn.NotifyClose(make(chan *amqp.Error, 1))
}

func (q *AMQPQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}

var _ Queue = (*AMQPQueue)(nil)
