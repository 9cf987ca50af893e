package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/crm-ia/internal/domain"
	"github.com/seu-repo/crm-ia/internal/ports"
	"github.com/seu-repo/crm-ia/pkg/trigram"
)

// undefinedFunction is raised when pg_trgm is not installed.
const undefinedFunction = "42883"

const maxClientCandidates = 10

const searchSimilarSQL = `
SELECT c.*,
       similarity(c.name, @name) AS name_similarity,
       similarity(c.company, @company) AS company_similarity
FROM clients c
WHERE c.organisation_id = @org
  AND (similarity(c.name, @name) > @min
       OR (@company <> '' AND similarity(c.company, @company) > @min))
ORDER BY CASE WHEN @company <> '' THEN similarity(c.company, @company) ELSE similarity(c.name, @name) END DESC
LIMIT @limit`

type ClientRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewClientRepository(db *gorm.DB, log *zap.Logger) ports.ClientRepository {
	return &ClientRepository{
		db:  db,
		log: log,
	}
}

// SearchSimilar scores clients with pg_trgm. Without the extension the
// organisation's clients are scored in process with the same trigram metric.
func (r *ClientRepository) SearchSimilar(ctx context.Context, name, company, organisationID string, minSimilarity float64) ([]domain.ClientMatch, error) {
	var matches []domain.ClientMatch
	err := r.db.WithContext(ctx).Raw(searchSimilarSQL,
		map[string]interface{}{
			"name":    name,
			"company": company,
			"org":     organisationID,
			"min":     minSimilarity,
			"limit":   maxClientCandidates,
		},
	).Scan(&matches).Error
	if err == nil {
		return matches, nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != undefinedFunction {
		return nil, fmt.Errorf("failed to search clients: %w", err)
	}

	r.log.Warn("pg_trgm unavailable, scoring clients in process", zap.String("organisation_id", organisationID))
	return r.scoreInProcess(ctx, name, company, organisationID, minSimilarity)
}

func (r *ClientRepository) scoreInProcess(ctx context.Context, name, company, organisationID string, minSimilarity float64) ([]domain.ClientMatch, error) {
	var clients []domain.Client
	if err := r.db.WithContext(ctx).Where("organisation_id = ?", organisationID).Find(&clients).Error; err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	matches := make([]domain.ClientMatch, 0)
	for _, c := range clients {
		m := domain.ClientMatch{Client: c, NameSimilarity: trigram.Similarity(c.Name, name)}
		if company != "" {
			m.CompanySimilarity = trigram.Similarity(c.Company, company)
		}
		if m.NameSimilarity > minSimilarity || m.CompanySimilarity > minSimilarity {
			matches = append(matches, m)
		}
	}
	return matches, nil
}
