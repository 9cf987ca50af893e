package agenda

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/ports"
)

// Service reads a user's agenda
type Service struct {
	repo ports.CalendarRepository
	log  *zap.Logger
}

var _ ports.AgendaService = (*Service)(nil)

func NewService(repo ports.CalendarRepository, log *zap.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// ListEvents returns the user's events, an empty list when there are none.
func (s *Service) ListEvents(ctx context.Context, userID string) ([]domain.CalendarEvent, error) {
	events, err := s.repo.FindByUserID(ctx, userID)
	if errors.Is(err, domain.ErrNoCalendarEvents) {
		return []domain.CalendarEvent{}, nil
	}
	if err != nil {
		return nil, err
	}
	return events, nil
}
