package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	summaryCacheKey  = "dashboard:summary"
	activityCacheKey = "dashboard:activity"
	cacheTTL         = 30 * time.Second
)

// Summary is the marketplace-wide aggregate view
type Summary struct {
	TotalMintedCredits  int64            `json:"totalMintedCredits"`
	TotalIssuances      int64            `json:"totalIssuances"`
	AvailableIssuances  int64            `json:"availableIssuances"`
	RetiredCertificates int64            `json:"retiredCertificates"`
	RetiredCredits      float64          `json:"retiredCredits"`
	OpenPurchases       int64            `json:"openPurchases"`
	CompletedPurchases  int64            `json:"completedPurchases"`
	CreditsByType       map[string]int64 `json:"creditsByType"`
	GeneratedAt         time.Time        `json:"generatedAt"`
}

// ActivityItem is one row of the recent-activity feed
type ActivityItem struct {
	Kind       string    `json:"kind" db:"kind"`
	Reference  string    `json:"reference" db:"reference"`
	Address    string    `json:"address" db:"address"`
	Amount     string    `json:"amount" db:"amount"`
	OccurredAt time.Time `json:"occurredAt" db:"occurred_at"`
}

// Service aggregates read-only analytics over the marketplace tables
type Service struct {
	db     *sqlx.DB
	cache  Cache
	logger *zap.Logger
}

func NewService(db *sqlx.DB, cache Cache, logger *zap.Logger) *Service {
	return &Service{db: db, cache: cache, logger: logger}
}

// GetSummary returns the aggregate view, cached briefly
func (s *Service) GetSummary(ctx context.Context) (*Summary, error) {
	if cached, ok := s.cache.Get(ctx, summaryCacheKey); ok {
		var summary Summary
		if err := json.Unmarshal(cached, &summary); err == nil {
			return &summary, nil
		}
	}

	summary := &Summary{
		CreditsByType: map[string]int64{},
		GeneratedAt:   time.Now().UTC(),
	}

	if err := s.db.GetContext(ctx, &summary.TotalMintedCredits,
		"SELECT COALESCE(SUM(amount), 0) FROM marketplace_tokens"); err != nil {
		return nil, err
	}
	if err := s.db.GetContext(ctx, &summary.TotalIssuances,
		"SELECT COUNT(*) FROM marketplace_tokens"); err != nil {
		return nil, err
	}
	if err := s.db.GetContext(ctx, &summary.AvailableIssuances,
		"SELECT COUNT(*) FROM marketplace_tokens WHERE is_available = true"); err != nil {
		return nil, err
	}
	if err := s.db.GetContext(ctx, &summary.RetiredCertificates,
		"SELECT COUNT(*) FROM retirement_certificates"); err != nil {
		return nil, err
	}
	// Certificate amounts are stored as ledger value strings.
	if err := s.db.GetContext(ctx, &summary.RetiredCredits,
		"SELECT COALESCE(SUM(amount::numeric), 0) FROM retirement_certificates"); err != nil {
		return nil, err
	}
	if err := s.db.GetContext(ctx, &summary.OpenPurchases,
		"SELECT COUNT(*) FROM purchase_requests WHERE status IN ('pending', 'approved', 'escrow_created', 'paid')"); err != nil {
		return nil, err
	}
	if err := s.db.GetContext(ctx, &summary.CompletedPurchases,
		"SELECT COUNT(*) FROM purchase_requests WHERE status = 'completed'"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx,
		"SELECT credit_type, COALESCE(SUM(amount), 0) FROM marketplace_tokens GROUP BY credit_type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var creditType string
		var total int64
		if err := rows.Scan(&creditType, &total); err != nil {
			return nil, err
		}
		summary.CreditsByType[creditType] = total
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.cacheSet(ctx, summaryCacheKey, summary)
	return summary, nil
}

// RecentActivity returns the latest mint and retirement events, newest first
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]ActivityItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if cached, ok := s.cache.Get(ctx, activityCacheKey); ok {
		var items []ActivityItem
		if err := json.Unmarshal(cached, &items); err == nil && len(items) >= limit {
			return items[:limit], nil
		}
	}

	items := []ActivityItem{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT * FROM (
			SELECT 'mint' AS kind, issuance_id AS reference, issuer_address AS address,
			       amount::text AS amount, created_at AS occurred_at
			FROM marketplace_tokens
			UNION ALL
			SELECT 'retirement' AS kind, certificate_id AS reference, owner_address AS address,
			       amount, retired_at AS occurred_at
			FROM retirement_certificates
		) activity
		ORDER BY occurred_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, activityCacheKey, items)
	return items, nil
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("failed to cache dashboard aggregate", zap.Error(err))
		return
	}
	s.cache.Set(ctx, key, data, cacheTTL)
}
