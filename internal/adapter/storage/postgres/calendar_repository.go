package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/observability/telemetry"
	"github.com/seu-repo/crm-ia/internal/ports"
)

type CalendarRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewCalendarRepository(db *gorm.DB, log *zap.Logger) ports.CalendarRepository {
	return &CalendarRepository{
		db:  db,
		log: log,
	}
}

// FindByUserID returns the user's events in chronological order.
func (r *CalendarRepository) FindByUserID(ctx context.Context, userID string) ([]domain.CalendarEvent, error) {
	start := time.Now()
	defer func() {
		telemetry.DatabaseLatency.Observe(time.Since(start).Seconds())
	}()

	var events []domain.CalendarEvent
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC").
		Order("time ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	if len(events) == 0 {
		return nil, domain.ErrNoCalendarEvents
	}
	return events, nil
}

func (r *CalendarRepository) Save(ctx context.Context, event *domain.CalendarEvent) error {
	start := time.Now()
	defer func() {
		telemetry.DatabaseLatency.Observe(time.Since(start).Seconds())
	}()

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to insert calendar event: %w", err)
	}
	r.log.Debug("Calendar event inserted",
		zap.String("event_id", event.ID),
		zap.String("user_id", event.UserID),
	)
	return nil
}

func (r *CalendarRepository) FindByID(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	var event domain.CalendarEvent
	err := r.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}
