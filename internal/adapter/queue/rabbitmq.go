package queue

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const reconnectDelay = 5 * time.Second

// RabbitMQQueue implements MessageQueue with one fanout exchange per subject,
// so every subscribed instance receives every message. Subscriptions are
// bound again after a reconnect.
type RabbitMQQueue struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	url      string
	handlers map[string][]func(data []byte) error
	closed   bool
	mu       sync.RWMutex
	log      *zap.Logger
}

// NewRabbitMQQueue creates a new RabbitMQ message queue adapter
func NewRabbitMQQueue(url string, log *zap.Logger) (MessageQueue, error) {
	conn, ch, err := dialRabbitMQ(url)
	if err != nil {
		return nil, err
	}

	q := &RabbitMQQueue{
		conn:     conn,
		channel:  ch,
		url:      url,
		handlers: make(map[string][]func(data []byte) error),
		log:      log,
	}

	go q.watch(conn)

	log.Info("Connected to RabbitMQ")
	return q, nil
}

func dialRabbitMQ(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	return conn, ch, nil
}

// exchangeName namespaces subjects on a shared broker.
func exchangeName(subject string) string {
	return "crm." + subject
}

func declareExchange(ch *amqp.Channel, subject string) (string, error) {
	exchange := exchangeName(subject)
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		return "", fmt.Errorf("rabbitmq: declare exchange %s: %w", exchange, err)
	}
	return exchange, nil
}

func (q *RabbitMQQueue) Publish(subject string, data []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.channel == nil || q.channel.IsClosed() {
		return fmt.Errorf("rabbitmq: channel not available")
	}

	exchange, err := declareExchange(q.channel, subject)
	if err != nil {
		return err
	}

	// Agenda notifications are only useful to connected users, nothing is persisted.
	err = q.channel.Publish(exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Transient,
		Type:         subject,
		Body:         data,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", subject, err)
	}
	return nil
}

func (q *RabbitMQQueue) Subscribe(subject string, handler func(data []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.channel == nil {
		return fmt.Errorf("rabbitmq: channel not available")
	}
	if err := q.bind(q.channel, subject, handler); err != nil {
		return err
	}
	q.handlers[subject] = append(q.handlers[subject], handler)
	return nil
}

// bind attaches an exclusive auto-delete queue to the subject exchange and
// consumes it in a goroutine. The consumer stops when ch closes.
func (q *RabbitMQQueue) bind(ch *amqp.Channel, subject string, handler func(data []byte) error) error {
	exchange, err := declareExchange(ch, subject)
	if err != nil {
		return err
	}

	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: declare queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "", exchange, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: bind queue: %w", err)
	}

	msgs, err := ch.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume: %w", err)
	}

	go func() {
		for msg := range msgs {
			if err := handler(msg.Body); err != nil {
				q.log.Error("Failed to handle RabbitMQ message",
					zap.String("subject", subject),
					zap.Error(err),
				)
			}
		}
	}()

	q.log.Info("Subscribed to RabbitMQ exchange", zap.String("exchange", exchange))
	return nil
}

func (q *RabbitMQQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// watch waits for conn to drop, then redials until it succeeds and binds
// the recorded subscriptions to the new channel.
func (q *RabbitMQQueue) watch(conn *amqp.Connection) {
	reason, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if !ok || reason == nil {
		// Closed by Close().
		return
	}
	q.log.Warn("RabbitMQ connection lost, reconnecting", zap.String("reason", reason.Reason))

	for {
		time.Sleep(reconnectDelay)

		q.mu.RLock()
		closed := q.closed
		q.mu.RUnlock()
		if closed {
			return
		}

		newConn, ch, err := dialRabbitMQ(q.url)
		if err != nil {
			q.log.Error("Failed to reconnect to RabbitMQ", zap.Error(err))
			continue
		}

		q.mu.Lock()
		q.conn = newConn
		q.channel = ch
		for subject, handlers := range q.handlers {
			for _, h := range handlers {
				if err := q.bind(ch, subject, h); err != nil {
					q.log.Error("Failed to restore RabbitMQ subscription", zap.String("subject", subject), zap.Error(err))
				}
			}
		}
		q.mu.Unlock()

		q.log.Info("Reconnected to RabbitMQ", zap.Int("subscriptions", len(q.handlers)))
		go q.watch(newConn)
		return
	}
}

// IsConnected reports whether the connection and channel are usable.
func (q *RabbitMQQueue) IsConnected() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.conn != nil && !q.conn.IsClosed() && q.channel != nil && !q.channel.IsClosed()
}
