package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/seu-repo/crm-ia/internal/adapter/storage/postgres"
	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/service/clientlookup"
)

func intPtr(v int) *int { return &v }

// TestDatabase_CalendarRepository tests calendar persistence
func TestDatabase_CalendarRepository(t *testing.T) {
	env := SetupTestEnvironment(t)
	CleanDatabase(t, env.DB)

	ctx := context.Background()
	repo := postgres.NewCalendarRepository(env.Gorm, env.Logger)

	later := &domain.CalendarEvent{
		ID: uuid.NewString(), UserID: "u1", ClientName: "Acme", Subject: "Démo",
		Date: "2025-09-12", Time: "14:30", Duration: intPtr(45),
	}
	earlier := &domain.CalendarEvent{
		ID: uuid.NewString(), UserID: "u1", Subject: "Point interne",
		Date: "2025-09-10", Time: "09:00",
	}
	other := &domain.CalendarEvent{
		ID: uuid.NewString(), UserID: "u2", Subject: "Autre",
		Date: "2025-09-09", Time: "08:00",
	}

	t.Run("Save", func(t *testing.T) {
		for _, e := range []*domain.CalendarEvent{later, earlier, other} {
			if err := repo.Save(ctx, e); err != nil {
				t.Fatalf("Failed to save event: %v", err)
			}
		}
	})

	t.Run("FindByUserIDOrdersChronologically", func(t *testing.T) {
		events, err := repo.FindByUserID(ctx, "u1")
		if err != nil {
			t.Fatalf("Failed to list events: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("Expected 2 events, got %d", len(events))
		}
		if events[0].ID != earlier.ID || events[1].ID != later.ID {
			t.Errorf("Expected chronological order, got %s then %s", events[0].Subject, events[1].Subject)
		}
		if events[1].Date != "2025-09-12" || events[1].Time != "14:30" {
			t.Errorf("Expected date and time to round-trip, got %s %s", events[1].Date, events[1].Time)
		}
		if events[1].Duration == nil || *events[1].Duration != 45 {
			t.Errorf("Expected duration 45, got %v", events[1].Duration)
		}
		if events[0].Duration != nil {
			t.Errorf("Expected no duration, got %d", *events[0].Duration)
		}
	})

	t.Run("FindByUserIDWithoutEvents", func(t *testing.T) {
		_, err := repo.FindByUserID(ctx, "nobody")
		if !errors.Is(err, domain.ErrNoCalendarEvents) {
			t.Errorf("Expected ErrNoCalendarEvents, got %v", err)
		}
	})

	t.Run("FindByID", func(t *testing.T) {
		event, err := repo.FindByID(ctx, later.ID)
		if err != nil || event == nil {
			t.Fatalf("Expected event, got %v (%v)", event, err)
		}
		if event.ClientName != "Acme" {
			t.Errorf("Expected client name Acme, got %q", event.ClientName)
		}

		missing, err := repo.FindByID(ctx, uuid.NewString())
		if err != nil || missing != nil {
			t.Errorf("Expected nil event for unknown id, got %v (%v)", missing, err)
		}
	})
}

// TestDatabase_ClientLookup tests trigram search scoped to an organisation
func TestDatabase_ClientLookup(t *testing.T) {
	env := SetupTestEnvironment(t)
	CleanDatabase(t, env.DB)

	SeedClient(t, env.DB, "c1", "Jean Dupont", "Boulangerie Dupont", "jean@example.com", "org-1")
	SeedClient(t, env.DB, "c2", "Marie Curie", "Acme Industries", "marie@example.com", "org-1")
	SeedClient(t, env.DB, "c3", "Jean Dupont", "Autre Société", "other@example.com", "org-2")

	ctx := context.Background()
	lookup := clientlookup.NewService(postgres.NewClientRepository(env.Gorm, env.Logger), 0.3, env.Logger)

	t.Run("MisspelledName", func(t *testing.T) {
		client, err := lookup.FindClient(ctx, "Jean Dupond", "", "org-1")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if client == nil || client.ID != "c1" {
			t.Fatalf("Expected c1, got %+v", client)
		}
	})

	t.Run("CompanyPreferred", func(t *testing.T) {
		client, err := lookup.FindClient(ctx, "", "Acme Industrie", "org-1")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if client == nil || client.ID != "c2" {
			t.Fatalf("Expected c2, got %+v", client)
		}
	})

	t.Run("OtherOrganisationInvisible", func(t *testing.T) {
		client, err := lookup.FindClient(ctx, "Marie Curie", "", "org-2")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if client != nil {
			t.Errorf("Expected no match across organisations, got %+v", client)
		}
	})

	t.Run("NoMatch", func(t *testing.T) {
		client, err := lookup.FindClient(ctx, "Zzyzx", "", "org-1")
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if client != nil {
			t.Errorf("Expected no match, got %+v", client)
		}
	})
}

// TestDatabase_UserRepository tests user loading
func TestDatabase_UserRepository(t *testing.T) {
	env := SetupTestEnvironment(t)
	CleanDatabase(t, env.DB)
	SeedUser(t, env.DB, "u1", "org-1")

	ctx := context.Background()
	repo := postgres.NewUserRepository(env.Gorm, env.Logger)

	user, err := repo.FindByID(ctx, "u1")
	if err != nil || user == nil {
		t.Fatalf("Expected user, got %v (%v)", user, err)
	}
	if user.OrganisationID != "org-1" || user.TeamRole != domain.TeamRoleSales {
		t.Errorf("Unexpected user %+v", user)
	}

	missing, err := repo.FindByID(ctx, "u-missing")
	if err != nil || missing != nil {
		t.Errorf("Expected nil user, got %v (%v)", missing, err)
	}
}
