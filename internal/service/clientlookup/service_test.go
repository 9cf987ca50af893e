package clientlookup

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/mocks"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func match(id string, name, company float64) domain.ClientMatch {
	return domain.ClientMatch{
		Client:            domain.Client{ID: id, Name: id},
		NameSimilarity:    name,
		CompanySimilarity: company,
	}
}

func TestBest_ThresholdIsExclusive(t *testing.T) {
	// Arrange
	atThreshold := []domain.ClientMatch{match("exact", 0.3, 0)}
	above := []domain.ClientMatch{match("above", 0.31, 0)}

	// Act & Assert
	if got := Best(atThreshold, false, 0.3); got != nil {
		t.Errorf("score equal to threshold must be rejected, got %s", got.Client.ID)
	}
	if got := Best(above, false, 0.3); got == nil || got.Client.ID != "above" {
		t.Errorf("score 0.31 must be accepted, got %v", got)
	}
}

func TestBest_RanksByNameWithoutCompany(t *testing.T) {
	matches := []domain.ClientMatch{
		match("a", 0.4, 0.9),
		match("b", 0.8, 0.1),
		match("c", 0.6, 0.5),
	}

	got := Best(matches, false, 0.3)

	if got == nil || got.Client.ID != "b" {
		t.Fatalf("expected b, got %v", got)
	}
}

func TestBest_RanksByCompanyWhenSpoken(t *testing.T) {
	matches := []domain.ClientMatch{
		match("a", 0.4, 0.9),
		match("b", 0.8, 0.1),
		match("c", 0.6, 0.5),
	}

	got := Best(matches, true, 0.3)

	if got == nil || got.Client.ID != "a" {
		t.Fatalf("expected a, got %v", got)
	}
}

func TestBest_CompanyOnlyMatchIgnoredWithoutCompany(t *testing.T) {
	matches := []domain.ClientMatch{match("a", 0.1, 0.9)}

	if got := Best(matches, false, 0.3); got != nil {
		t.Errorf("expected no match, got %s", got.Client.ID)
	}
	if got := Best(matches, true, 0.3); got == nil {
		t.Error("expected company match when a company was spoken")
	}
}

func TestService_FindClient_Success(t *testing.T) {
	// Arrange
	var gotOrg, gotCompany string
	var gotMin float64
	repo := &mocks.MockClientRepository{
		SearchSimilarFunc: func(ctx context.Context, name, company, orgID string, min float64) ([]domain.ClientMatch, error) {
			gotOrg, gotCompany, gotMin = orgID, company, min
			m := match("c1", 0.7, 0.8)
			m.Client.Email = "dupont@acme.fr"
			return []domain.ClientMatch{match("c2", 0.9, 0.4), m}, nil
		},
	}
	svc := NewService(repo, 0, newTestLogger())

	// Act
	client, err := svc.FindClient(context.Background(), " Dupont ", "Acme", "org_42")

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if client == nil || client.ID != "c1" || client.Email != "dupont@acme.fr" {
		t.Fatalf("expected c1, got %+v", client)
	}
	if gotOrg != "org_42" || gotCompany != "Acme" || gotMin != DefaultThreshold {
		t.Errorf("unexpected search args org=%s company=%s min=%v", gotOrg, gotCompany, gotMin)
	}
}

func TestService_FindClient_NoMatch(t *testing.T) {
	repo := &mocks.MockClientRepository{}
	svc := NewService(repo, 0.3, newTestLogger())

	client, err := svc.FindClient(context.Background(), "Nobody", "", "org_1")

	if err != nil || client != nil {
		t.Fatalf("expected nil, nil; got %v, %v", client, err)
	}
}

func TestService_FindClient_EmptyNameSkipsSearch(t *testing.T) {
	called := false
	repo := &mocks.MockClientRepository{
		SearchSimilarFunc: func(ctx context.Context, name, company, orgID string, min float64) ([]domain.ClientMatch, error) {
			called = true
			return nil, nil
		},
	}

	client, err := NewService(repo, 0.3, newTestLogger()).FindClient(context.Background(), "  ", "", "org_1")

	if err != nil || client != nil || called {
		t.Fatalf("expected no search, got client=%v err=%v called=%v", client, err, called)
	}
}

func TestService_FindClient_RepositoryError(t *testing.T) {
	dbErr := errors.New("connection refused")
	repo := &mocks.MockClientRepository{
		SearchSimilarFunc: func(ctx context.Context, name, company, orgID string, min float64) ([]domain.ClientMatch, error) {
			return nil, dbErr
		},
	}

	_, err := NewService(repo, 0.3, newTestLogger()).FindClient(context.Background(), "Dupont", "", "org_1")

	if !errors.Is(err, dbErr) {
		t.Fatalf("expected wrapped repository error, got %v", err)
	}
}
