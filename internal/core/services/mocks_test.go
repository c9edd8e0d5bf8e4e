package services

import (
	"context"

	"investorconnect/internal/adapters/persistence/models"

	"github.com/stretchr/testify/mock"
)

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) Create(ctx context.Context, account *models.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	args := m.Called(ctx, email)
	if a := args.Get(0); a != nil {
		return a.(*models.Account), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAccountRepo) Update(ctx context.Context, account *models.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *mockAccountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type mockRefreshTokenRepo struct {
	mock.Mock
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, token *models.RefreshToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockRefreshTokenRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	if t := args.Get(0); t != nil {
		return t.(*models.RefreshToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRefreshTokenRepo) RevokeByTokenHash(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}

func (m *mockRefreshTokenRepo) RevokeAllByAccountID(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

func (m *mockRefreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
