package config

import (
	"testing"

	"investorconnect/internal/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DOCSTORE_DRIVER", "memory")
	t.Setenv("DOCSTORE_INDEXES", "businessProposals:status,createdAt")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, docstore.DriverMemory, cfg.DocStore.Driver)
	assert.Len(t, cfg.DocStore.Indexes["businessProposals"], 1)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.SeedSamples)
	assert.Equal(t, "*", cfg.GetAllowedOrigins())
}

func TestLoad_ProdPrefixes(t *testing.T) {
	t.Setenv("APP_MODE", "prod")
	t.Setenv("PROD_JWT_SECRET", "prod-secret")
	t.Setenv("PROD_DB_NAME", "ic_prod")
	t.Setenv("DOCSTORE_DRIVER", "redis")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProd())
	assert.Equal(t, "prod-secret", cfg.JWT.Secret)
	assert.Equal(t, "ic_prod", cfg.Database.DBName)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.False(t, cfg.SeedSamples)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("APP_MODE", "staging")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("APP_MODE", "dev")
	t.Setenv("DOCSTORE_DRIVER", "firestore")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("DOCSTORE_DRIVER", "memory")
	t.Setenv("DOCSTORE_INDEXES", "broken")
	_, err = Load()
	assert.Error(t, err)
}
