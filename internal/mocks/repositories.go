package mocks

import (
	"context"

	"github.com/seu-repo/crm-ia/internal/domain"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	FindByIDFunc func(ctx context.Context, id string) (*domain.User, error)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return &domain.User{ID: id, OrganisationID: "org_001"}, nil
}

// MockCalendarRepository is a mock implementation of CalendarRepository.
// Without a SaveFunc, saved events are kept in Saved.
type MockCalendarRepository struct {
	FindByUserIDFunc func(ctx context.Context, userID string) ([]domain.CalendarEvent, error)
	SaveFunc         func(ctx context.Context, event *domain.CalendarEvent) error
	FindByIDFunc     func(ctx context.Context, id string) (*domain.CalendarEvent, error)

	Saved []domain.CalendarEvent
}

func (m *MockCalendarRepository) FindByUserID(ctx context.Context, userID string) ([]domain.CalendarEvent, error) {
	if m.FindByUserIDFunc != nil {
		return m.FindByUserIDFunc(ctx, userID)
	}
	var events []domain.CalendarEvent
	for _, e := range m.Saved {
		if e.UserID == userID {
			events = append(events, e)
		}
	}
	if len(events) == 0 {
		return nil, domain.ErrNoCalendarEvents
	}
	return events, nil
}

func (m *MockCalendarRepository) Save(ctx context.Context, event *domain.CalendarEvent) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, event)
	}
	m.Saved = append(m.Saved, *event)
	return nil
}

func (m *MockCalendarRepository) FindByID(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	for i := range m.Saved {
		if m.Saved[i].ID == id {
			e := m.Saved[i]
			return &e, nil
		}
	}
	return nil, nil
}

// MockClientRepository is a mock implementation of ClientRepository
type MockClientRepository struct {
	SearchSimilarFunc func(ctx context.Context, name, company, organisationID string, minSimilarity float64) ([]domain.ClientMatch, error)
}

func (m *MockClientRepository) SearchSimilar(ctx context.Context, name, company, organisationID string, minSimilarity float64) ([]domain.ClientMatch, error) {
	if m.SearchSimilarFunc != nil {
		return m.SearchSimilarFunc(ctx, name, company, organisationID, minSimilarity)
	}
	return []domain.ClientMatch{}, nil
}
