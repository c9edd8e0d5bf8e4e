// Package settings loads the command-line client configuration from
// ~/.investorconnect/config.yaml, INVESTORCONNECT_* variables and flags.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"investorconnect/internal/app/submission"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "INVESTORCONNECT"

// Keys
const (
	KeyAPIURL      = "api_url"
	KeyAPITimeout  = "api.timeout"
	KeySessionFile = "session_file"
	KeyPersistMode = "forms.persist_mode"
	KeyLogLevel    = "log_level"
	KeyLogFormat   = "log_format"
)

// Settings is the resolved client configuration
type Settings struct {
	APIURL      string
	APITimeout  time.Duration
	SessionFile string
	PersistMode submission.PersistMode
	LogLevel    string
	LogFormat   string
	// ConfigFile is the file that was read, if any
	ConfigFile string
}

// Dir is the per-user configuration directory
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".investorconnect"
	}
	return filepath.Join(home, ".investorconnect")
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, "http://localhost:8080/api/v1")
	v.SetDefault(KeyAPITimeout, "15s")
	v.SetDefault(KeySessionFile, filepath.Join(Dir(), "session.yaml"))
	v.SetDefault(KeyPersistMode, string(submission.PersistWrite))
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "console")
}

// Load reads configFile, or config.yaml from Dir when it is empty, and
// applies environment overrides. A missing default file is not an error.
func Load(v *viper.Viper, configFile string) (Settings, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	mode, err := submission.ParsePersistMode(v.GetString(KeyPersistMode))
	if err != nil {
		return Settings{}, fmt.Errorf("%s: %w", KeyPersistMode, err)
	}

	timeout := v.GetDuration(KeyAPITimeout)
	if timeout <= 0 {
		return Settings{}, fmt.Errorf("%s must be positive", KeyAPITimeout)
	}

	apiURL := strings.TrimRight(v.GetString(KeyAPIURL), "/")
	if apiURL == "" {
		return Settings{}, fmt.Errorf("%s is required", KeyAPIURL)
	}

	return Settings{
		APIURL:      apiURL,
		APITimeout:  timeout,
		SessionFile: expandHome(v.GetString(KeySessionFile)),
		PersistMode: mode,
		LogLevel:    v.GetString(KeyLogLevel),
		LogFormat:   v.GetString(KeyLogFormat),
		ConfigFile:  v.ConfigFileUsed(),
	}, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
