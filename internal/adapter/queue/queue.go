package queue

import (
	"fmt"

	"github.com/seu-repo/crm-ia/pkg/config"
	"go.uber.org/zap"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// New connects the configured driver. The "none" driver returns a nil queue.
func New(cfg config.QueueConfig, appName string, log *zap.Logger) (MessageQueue, error) {
	switch cfg.Driver {
	case "", "nats":
		return NewNATSQueue(cfg.URL, appName, log)
	case "rabbitmq":
		return NewRabbitMQQueue(cfg.URL, log)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown queue driver: %s", cfg.Driver)
	}
}
