package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *Config {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	cfg, err := decode(v)
	require.NoError(t, err)
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := defaultConfig(t)

	assert.Equal(t, 10, cfg.Evaluation.MaxRequeues)
	assert.Equal(t, 5, cfg.Evaluation.FetchRetries)
	assert.Equal(t, 300*time.Millisecond, cfg.Evaluation.FetchBaseDelay)
	assert.Equal(t, 3, cfg.Evaluation.ScoreRetries)
	assert.Equal(t, 2*time.Second, cfg.Evaluation.ScoreBaseDelay)
	assert.Equal(t, 5*time.Second, cfg.Evaluation.RequeueDelayStep)
	assert.Equal(t, 60*time.Second, cfg.Evaluation.RequeueDelayCap)
	assert.Equal(t, 1, cfg.Evaluation.QueueMaxRetry)
	assert.Equal(t, "example.com", cfg.Evaluation.PlaceholderDomain)
	assert.Equal(t, 120*time.Second, cfg.Scoring.Timeout)
	assert.Equal(t, map[string]int{"resume_evaluation": 1}, cfg.Worker.Queues)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"postgres without dsn", func(c *Config) {}, "database.primary.dsn"},
		{"memory driver is valid", func(c *Config) { c.Database.Driver = "memory" }, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, "unknown database.driver"},
		{"mongo without uri", func(c *Config) { c.Database.Driver = "mongo" }, "database.mongo.uri"},
		{"openai without key", func(c *Config) {
			c.Database.Driver = "memory"
			c.Scoring.Provider = "openai"
		}, "scoring.openai_api_key"},
		{"llm provider without model", func(c *Config) {
			c.Database.Driver = "memory"
			c.Scoring.Provider = "gemini"
			c.Scoring.GoogleApiKey = "k"
		}, "scoring.model"},
		{"short scoring timeout", func(c *Config) {
			c.Database.Driver = "memory"
			c.Scoring.Timeout = 10 * time.Second
		}, "scoring.timeout"},
		{"requeue cap below step", func(c *Config) {
			c.Database.Driver = "memory"
			c.Evaluation.RequeueDelayCap = time.Second
		}, "requeue_delay_cap"},
		{"notifications without smtp host", func(c *Config) {
			c.Database.Driver = "memory"
			c.Notification.Enabled = true
		}, "notification.smtp.host"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig(t)
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("EVALUATION_MAX_REQUEUES", "3")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.Evaluation.MaxRequeues)
	assert.Equal(t, "sk-test", cfg.Scoring.OpenaiApiKey)
}

func TestEvaluationConfig_Helpers(t *testing.T) {
	cfg := defaultConfig(t)

	assert.True(t, cfg.Evaluation.IsInternalRole("Recruiter"))
	assert.True(t, cfg.Evaluation.IsInternalRole("SuperAdmin"))
	assert.False(t, cfg.Evaluation.IsInternalRole("Candidate"))
	assert.False(t, cfg.Evaluation.IsInternalRole(""))

	assert.True(t, cfg.Evaluation.IsPlaceholderEmail("ca12@Example.com"))
	assert.False(t, cfg.Evaluation.IsPlaceholderEmail("jane@acme.io"))
}
