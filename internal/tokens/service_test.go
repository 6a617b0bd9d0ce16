package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, record *TokenRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRepository) GetByIssuanceID(ctx context.Context, issuanceID string) (*TokenRecord, error) {
	args := m.Called(ctx, issuanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TokenRecord), args.Error(1)
}

func (m *MockRepository) ListAvailable(ctx context.Context) ([]TokenRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]TokenRecord), args.Error(1)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]TokenRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]TokenRecord), args.Error(1)
}

func (m *MockRepository) MarkUnavailable(ctx context.Context, issuanceID string) error {
	args := m.Called(ctx, issuanceID)
	return args.Error(0)
}

func TestCreateTokenRequiresIdentifiers(t *testing.T) {
	service := NewService(new(MockRepository), zap.NewNop())

	_, err := service.CreateToken(context.Background(), &MintedToken{Address: "rIssuer"})
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = service.CreateToken(context.Background(), &MintedToken{IssuanceID: "MPT-1"})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestCreateTokenMapsMetadata(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, zap.NewNop())

	var stored *TokenRecord
	repo.On("Create", mock.Anything, mock.AnythingOfType("*tokens.TokenRecord")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*TokenRecord)
		}).
		Return(nil)

	created, err := service.CreateToken(context.Background(), &MintedToken{
		IssuanceID: "MPT-1",
		Address:    "rIssuer",
		Amount:     250,
		Metadata: TokenMetadata{
			ProjectName:    "Reforestation",
			CreditType:     "forestry",
			PricePerCredit: "8.00",
		},
		TxHash: "CAFE",
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)

	require.NotNil(t, stored)
	assert.Equal(t, "rIssuer", stored.IssuerAddress)
	assert.Equal(t, "Reforestation", stored.ProjectName)
	assert.True(t, stored.IsAvailable)
	assert.False(t, stored.CreatedAt.IsZero())

	assert.Equal(t, "MPT-1", created.IssuanceID)
	assert.Equal(t, "Reforestation", created.Metadata.ProjectName)
	assert.True(t, created.IsAvailable)
}

func TestCreateTokenDuplicate(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, zap.NewNop())

	repo.On("Create", mock.Anything, mock.Anything).Return(ErrDuplicate)

	_, err := service.CreateToken(context.Background(), &MintedToken{
		IssuanceID: "MPT-1",
		Address:    "rIssuer",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestListMarketplace(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, zap.NewNop())

	repo.On("ListAvailable", mock.Anything).Return([]TokenRecord{
		{IssuanceID: "MPT-2", IssuerAddress: "rA", IsAvailable: true, CreatedAt: time.Now()},
		{IssuanceID: "MPT-1", IssuerAddress: "rB", IsAvailable: true, CreatedAt: time.Now().Add(-time.Hour)},
	}, nil)

	listed, err := service.ListMarketplace(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "MPT-2", listed[0].IssuanceID)
	assert.Equal(t, "rA", listed[0].Address)
}

func TestGetTokenUnknown(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, zap.NewNop())

	repo.On("GetByIssuanceID", mock.Anything, "MPT-missing").Return(nil, nil)

	got, err := service.GetToken(context.Background(), "MPT-missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRemoveFromMarketplace(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, zap.NewNop())

	repo.On("MarkUnavailable", mock.Anything, "MPT-1").Return(nil)

	require.NoError(t, service.RemoveFromMarketplace(context.Background(), "MPT-1"))
	repo.AssertExpectations(t)
}
