package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Driver  string `mapstructure:"driver"` // postgres, mongo, sqlite or memory
		Primary struct {
			DSN string `mapstructure:"dsn"`
		} `mapstructure:"primary"`
		Mongo struct {
			URI      string `mapstructure:"uri"`
			Database string `mapstructure:"database"`
		} `mapstructure:"mongo"`
		SQLite struct {
			Path string `mapstructure:"path"`
		} `mapstructure:"sqlite"`
	} `mapstructure:"database"`

	Redis struct {
		Address  string `mapstructure:"address"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Worker struct {
		Concurrency int            `mapstructure:"concurrency"`
		Queues      map[string]int `mapstructure:"queues"`
	} `mapstructure:"worker"`

	Evaluation EvaluationConfig `mapstructure:"evaluation"`

	Scoring struct {
		Provider     string        `mapstructure:"provider"` // pipeline, openai, gemini or vertexai
		PipelineURL  string        `mapstructure:"pipeline_url"`
		Timeout      time.Duration `mapstructure:"timeout"`
		Model        string        `mapstructure:"model"`
		OpenaiApiKey string        `mapstructure:"openai_api_key"`
		GoogleApiKey string        `mapstructure:"google_api_key"`
		GCPProject   string        `mapstructure:"gcp_project"`
		GCPLocation  string        `mapstructure:"gcp_location"`
		Prompt       string        `mapstructure:"prompt"` // Path to the scoring prompt template
		MaxResumeMB  int           `mapstructure:"max_resume_mb"`
	} `mapstructure:"scoring"`

	Notification struct {
		Enabled          bool   `mapstructure:"enabled"`
		SendToCandidates bool   `mapstructure:"send_to_candidates"`
		FrontendBaseURL  string `mapstructure:"frontend_base_url"`
		SMTP             struct {
			Host     string `mapstructure:"host"`
			Port     int    `mapstructure:"port"`
			Username string `mapstructure:"username"`
			Password string `mapstructure:"password"`
			From     string `mapstructure:"from"`
		} `mapstructure:"smtp"`
	} `mapstructure:"notification"`

	Server struct {
		Addr string `mapstructure:"addr"`
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"` // text or json
	} `mapstructure:"log"`
}

// EvaluationConfig tunes the evaluation worker's retry and requeue behaviour.
type EvaluationConfig struct {
	MaxRequeues         int           `mapstructure:"max_requeues"`
	FetchRetries        int           `mapstructure:"fetch_retries"`
	FetchBaseDelay      time.Duration `mapstructure:"fetch_base_delay"`
	ScoreRetries        int           `mapstructure:"score_retries"`
	ScoreBaseDelay      time.Duration `mapstructure:"score_base_delay"`
	RequeueDelayStep    time.Duration `mapstructure:"requeue_delay_step"`
	RequeueDelayCap     time.Duration `mapstructure:"requeue_delay_cap"`
	QueueMaxRetry       int           `mapstructure:"queue_max_retry"`
	QueueRetryBaseDelay time.Duration `mapstructure:"queue_retry_base_delay"`
	TaskTimeout         time.Duration `mapstructure:"task_timeout"`
	PlaceholderDomain   string        `mapstructure:"placeholder_domain"`
	InternalRoles       []string      `mapstructure:"internal_roles"`
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	// Keys without a useful default are still registered so AutomaticEnv can fill them.
	for _, key := range []string{
		"database.primary.dsn", "database.mongo.uri", "redis.password",
		"scoring.model", "scoring.openai_api_key", "scoring.google_api_key", "scoring.gcp_project", "scoring.prompt",
		"notification.smtp.host", "notification.smtp.username", "notification.smtp.password", "notification.smtp.from",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("redis.db", 0)
	v.SetDefault("notification.enabled", false)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.mongo.database", "aicruit")
	v.SetDefault("database.sqlite.path", "aicruit.db")

	v.SetDefault("redis.address", "localhost:6379")

	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("worker.queues", map[string]int{"resume_evaluation": 1})

	v.SetDefault("evaluation.max_requeues", 10)
	v.SetDefault("evaluation.fetch_retries", 5)
	v.SetDefault("evaluation.fetch_base_delay", "300ms")
	v.SetDefault("evaluation.score_retries", 3)
	v.SetDefault("evaluation.score_base_delay", "2s")
	v.SetDefault("evaluation.requeue_delay_step", "5s")
	v.SetDefault("evaluation.requeue_delay_cap", "60s")
	v.SetDefault("evaluation.queue_max_retry", 1)
	v.SetDefault("evaluation.queue_retry_base_delay", "2s")
	v.SetDefault("evaluation.task_timeout", "10m")
	v.SetDefault("evaluation.placeholder_domain", "example.com")
	v.SetDefault("evaluation.internal_roles", []string{"superadmin", "recruiter", "hiringassistant"})

	v.SetDefault("scoring.provider", "pipeline")
	v.SetDefault("scoring.pipeline_url", "http://localhost:8000")
	v.SetDefault("scoring.timeout", "120s")
	v.SetDefault("scoring.gcp_location", "us-central1")
	v.SetDefault("scoring.max_resume_mb", 10)

	v.SetDefault("notification.send_to_candidates", true)
	v.SetDefault("notification.frontend_base_url", "http://localhost:5173")
	v.SetDefault("notification.smtp.port", 587)

	v.SetDefault("server.addr", "localhost")
	v.SetDefault("server.port", "8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// LoadConfig reads .env (if present), config.yaml from the working directory
// and the environment, in increasing order of precedence. Nested keys map to
// upper-case env names with dots replaced, e.g. REDIS_ADDRESS.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	// Provider keys are commonly exported under their vendor names.
	_ = v.BindEnv("scoring.openai_api_key", "SCORING_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("scoring.google_api_key", "SCORING_GOOGLE_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("scoring.gcp_project", "SCORING_GCP_PROJECT", "GOOGLE_CLOUD_PROJECT")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	return &cfg, nil
}

// IsInternalRole reports whether role belongs to the internal staff set that
// gates shortlist notifications. The comparison ignores case.
func (e EvaluationConfig) IsInternalRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, r := range e.InternalRoles {
		if strings.ToLower(r) == role {
			return true
		}
	}
	return false
}

// IsPlaceholderEmail reports whether email is a synthetic address.
func (e EvaluationConfig) IsPlaceholderEmail(email string) bool {
	if e.PlaceholderDomain == "" {
		return false
	}
	return strings.Contains(strings.ToLower(email), strings.ToLower(e.PlaceholderDomain))
}
