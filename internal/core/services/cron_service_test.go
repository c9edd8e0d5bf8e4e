package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCronService_CleanupExpiredTokens(t *testing.T) {
	tokens := &mockRefreshTokenRepo{}
	tokens.On("DeleteExpired", mock.Anything).Return(int64(4), nil).Once()
	tokens.On("DeleteExpired", mock.Anything).Return(int64(0), errors.New("db down")).Once()

	svc := NewCronService(tokens, "0 3 * * *", zap.NewNop())

	n, err := svc.CleanupExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	_, err = svc.CleanupExpiredTokens(context.Background())
	assert.Error(t, err)
}

func TestCronService_StartStop(t *testing.T) {
	svc := NewCronService(&mockRefreshTokenRepo{}, "@every 1h", zap.NewNop())
	require.NoError(t, svc.Start())
	svc.Stop()

	bad := NewCronService(&mockRefreshTokenRepo{}, "not a schedule", zap.NewNop())
	assert.Error(t, bad.Start())
}
