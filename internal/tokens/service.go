package tokens

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrMissingFields indicates a create request without the required identifiers
var ErrMissingFields = errors.New("issuanceId and address are required")

// Service owns marketplace listing rules on top of the repository
type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateToken registers a freshly minted issuance on the marketplace
func (s *Service) CreateToken(ctx context.Context, token *MintedToken) (*MintedToken, error) {
	if token.IssuanceID == "" || token.Address == "" {
		return nil, ErrMissingFields
	}
	if token.Timestamp.IsZero() {
		token.Timestamp = time.Now().UTC()
	}

	record := token.ToRecord()
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("token listed on marketplace",
		zap.String("issuance_id", record.IssuanceID),
		zap.String("issuer", record.IssuerAddress),
		zap.Int64("amount", record.Amount))

	return record.ToAPI(), nil
}

// ListMarketplace returns tokens still available for purchase
func (s *Service) ListMarketplace(ctx context.Context) ([]*MintedToken, error) {
	records, err := s.repo.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	return toAPIList(records), nil
}

// ListArchive returns the full issuance history, sold tokens included
func (s *Service) ListArchive(ctx context.Context) ([]*MintedToken, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return toAPIList(records), nil
}

// GetToken fetches one issuance; returns nil when unknown
func (s *Service) GetToken(ctx context.Context, issuanceID string) (*MintedToken, error) {
	record, err := s.repo.GetByIssuanceID(ctx, issuanceID)
	if err != nil || record == nil {
		return nil, err
	}
	return record.ToAPI(), nil
}

// RemoveFromMarketplace soft-deletes a purchased token. The archive keeps it.
func (s *Service) RemoveFromMarketplace(ctx context.Context, issuanceID string) error {
	if err := s.repo.MarkUnavailable(ctx, issuanceID); err != nil {
		return err
	}
	s.logger.Info("token removed from marketplace", zap.String("issuance_id", issuanceID))
	return nil
}

func toAPIList(records []TokenRecord) []*MintedToken {
	out := make([]*MintedToken, 0, len(records))
	for i := range records {
		out = append(out, records[i].ToAPI())
	}
	return out
}
