package ports

import (
	"context"

	"github.com/seu-repo/crm-ia/internal/domain"
)

// CalendarRepository persists agenda events.
type CalendarRepository interface {
	// FindByUserID returns the user's events. It returns domain.ErrNoCalendarEvents
	// when the user has none, so callers can tell "empty" from a storage failure.
	FindByUserID(ctx context.Context, userID string) ([]domain.CalendarEvent, error)
	Save(ctx context.Context, event *domain.CalendarEvent) error
	FindByID(ctx context.Context, id string) (*domain.CalendarEvent, error)
}

// ClientRepository searches the clients of an organisation.
type ClientRepository interface {
	// SearchSimilar returns the organisation's clients whose name (or company,
	// when company is not empty) similarity is above minSimilarity.
	SearchSimilar(ctx context.Context, name, company, organisationID string, minSimilarity float64) ([]domain.ClientMatch, error)
}

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
