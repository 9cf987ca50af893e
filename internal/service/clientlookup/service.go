package clientlookup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/observability/telemetry"
	"github.com/seu-repo/crm-ia/internal/ports"
	"go.uber.org/zap"
)

// DefaultThreshold is the minimum similarity a candidate must exceed.
const DefaultThreshold = 0.3

// Service resolves spoken client names against the organisation's clients
type Service struct {
	repo      ports.ClientRepository
	threshold float64
	log       *zap.Logger
}

func NewService(repo ports.ClientRepository, threshold float64, log *zap.Logger) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Service{
		repo:      repo,
		threshold: threshold,
		log:       log,
	}
}

// FindClient returns the best match for name and company inside organisationID, nil when nothing scores above the threshold.
func (s *Service) FindClient(ctx context.Context, name, company, organisationID string) (*domain.Client, error) {
	name = strings.TrimSpace(name)
	company = strings.TrimSpace(company)
	if name == "" && company == "" {
		return nil, nil
	}

	matches, err := s.repo.SearchSimilar(ctx, name, company, organisationID, s.threshold)
	if err != nil {
		telemetry.ClientLookupTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to search clients: %w", err)
	}

	best := Best(matches, company != "", s.threshold)
	if best == nil {
		telemetry.ClientLookupTotal.WithLabelValues("no_match").Inc()
		s.log.Debug("No client matched",
			zap.String("name", name),
			zap.String("company", company),
			zap.Int("candidates", len(matches)),
		)
		return nil, nil
	}

	telemetry.ClientLookupTotal.WithLabelValues("matched").Inc()
	s.log.Info("Client matched",
		zap.String("client_id", best.Client.ID),
		zap.Float64("name_similarity", best.NameSimilarity),
		zap.Float64("company_similarity", best.CompanySimilarity),
	)

	client := best.Client
	return &client, nil
}

// Best applies the match policy: a candidate is kept when its name
// similarity, or its company similarity when a company was spoken, is
// strictly above threshold. Kept candidates are ranked by company similarity
// when byCompany is set, otherwise by name similarity, the other score
// breaking ties.
func Best(matches []domain.ClientMatch, byCompany bool, threshold float64) *domain.ClientMatch {
	kept := make([]domain.ClientMatch, 0, len(matches))
	for _, m := range matches {
		if m.NameSimilarity > threshold || (byCompany && m.CompanySimilarity > threshold) {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if byCompany {
			if a.CompanySimilarity != b.CompanySimilarity {
				return a.CompanySimilarity > b.CompanySimilarity
			}
			return a.NameSimilarity > b.NameSimilarity
		}
		if a.NameSimilarity != b.NameSimilarity {
			return a.NameSimilarity > b.NameSimilarity
		}
		return a.CompanySimilarity > b.CompanySimilarity
	})

	return &kept[0]
}
