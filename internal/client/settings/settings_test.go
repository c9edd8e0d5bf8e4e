package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"investorconnect/internal/app/submission"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	s, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/v1", s.APIURL)
	assert.Equal(t, 15*time.Second, s.APITimeout)
	assert.Equal(t, submission.PersistWrite, s.PersistMode)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, filepath.Join(Dir(), "session.yaml"), s.SessionFile)
	assert.Empty(t, s.ConfigFile)
}

func TestLoad_FileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api_url: https://api.example.com/api/v1/
api:
  timeout: 3s
session_file: ~/ic/session.yaml
forms:
  persist_mode: legacy
`), 0o600))
	t.Setenv("INVESTORCONNECT_LOG_LEVEL", "debug")
	t.Setenv("INVESTORCONNECT_API_TIMEOUT", "7s")

	s, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api/v1", s.APIURL)
	assert.Equal(t, 7*time.Second, s.APITimeout)
	assert.Equal(t, filepath.Join(home, "ic", "session.yaml"), s.SessionFile)
	assert.Equal(t, submission.PersistLegacy, s.PersistMode)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, path, s.ConfigFile)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("INVESTORCONNECT_FORMS_PERSIST_MODE", "sometimes")
	_, err = Load(viper.New(), "")
	assert.ErrorContains(t, err, "forms.persist_mode")
}
