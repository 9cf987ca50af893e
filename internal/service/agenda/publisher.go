package agenda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/adapter/queue"
	"github.com/seu-repo/crm-ia/internal/domain"
)

// SubjectEventCreated is published after the assistant inserts an event.
const SubjectEventCreated = "agenda.event.created"

// EventCreated is the payload of SubjectEventCreated, also pushed to websocket clients.
type EventCreated struct {
	Type      string               `json:"type"`
	UserID    string               `json:"userId"`
	Event     domain.CalendarEvent `json:"event"`
	CreatedAt time.Time            `json:"created_at"`
}

// UserPusher delivers a payload to the live connections of a user.
type UserPusher interface {
	SendToUser(userID string, data []byte)
}

// Publisher announces new events on the message queue. Every instance relays
// queue messages to its own websocket hub, so a user connected to another
// instance is notified too. Without a queue it pushes to the hub directly.
type Publisher struct {
	queue queue.MessageQueue
	hub   UserPusher
	now   func() time.Time
	log   *zap.Logger
}

func NewPublisher(q queue.MessageQueue, hub UserPusher, log *zap.Logger) *Publisher {
	return &Publisher{
		queue: q,
		hub:   hub,
		now:   time.Now,
		log:   log,
	}
}

func (p *Publisher) PublishEventCreated(ctx context.Context, event *domain.CalendarEvent) error {
	data, err := json.Marshal(EventCreated{
		Type:      SubjectEventCreated,
		UserID:    event.UserID,
		Event:     *event,
		CreatedAt: p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if p.queue == nil {
		p.push(event.UserID, data)
		return nil
	}
	if err := p.queue.Publish(SubjectEventCreated, data); err != nil {
		// The local hub still gets the update.
		p.push(event.UserID, data)
		return fmt.Errorf("failed to publish %s: %w", SubjectEventCreated, err)
	}
	return nil
}

// Relay subscribes the hub to queue announcements.
func (p *Publisher) Relay() error {
	if p.queue == nil || p.hub == nil {
		return nil
	}
	return p.queue.Subscribe(SubjectEventCreated, func(data []byte) error {
		var msg EventCreated
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to decode %s: %w", SubjectEventCreated, err)
		}
		p.push(msg.UserID, data)
		return nil
	})
}

func (p *Publisher) push(userID string, data []byte) {
	if p.hub == nil {
		return
	}
	p.hub.SendToUser(userID, data)
}
