package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are present for the selected
// drivers and providers.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.Primary.DSN == "" {
			return errors.New("database.primary.dsn is required for the postgres driver")
		}
	case "mongo":
		if c.Database.Mongo.URI == "" {
			return errors.New("database.mongo.uri is required for the mongo driver")
		}
		if c.Database.Mongo.Database == "" {
			return errors.New("database.mongo.database is required for the mongo driver")
		}
	case "sqlite":
		if c.Database.SQLite.Path == "" {
			return errors.New("database.sqlite.path is required for the sqlite driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database.driver '%s'", c.Database.Driver)
	}

	if c.Redis.Address == "" {
		return errors.New("redis.address is required")
	}

	if c.Worker.Concurrency <= 0 {
		return errors.New("worker.concurrency must be a positive integer")
	}
	if len(c.Worker.Queues) == 0 {
		return errors.New("worker.queues must define at least one queue")
	}
	for name, priority := range c.Worker.Queues {
		if name == "" {
			return errors.New("worker.queues contains an empty queue name")
		}
		if priority <= 0 {
			return fmt.Errorf("worker.queues priority for queue '%s' must be positive", name)
		}
	}

	if err := c.Evaluation.validate(); err != nil {
		return err
	}

	switch c.Scoring.Provider {
	case "pipeline":
		if c.Scoring.PipelineURL == "" {
			return errors.New("scoring.pipeline_url is required for the pipeline provider")
		}
	case "openai":
		if c.Scoring.OpenaiApiKey == "" {
			return errors.New("scoring.openai_api_key is required for the openai provider")
		}
	case "gemini":
		if c.Scoring.GoogleApiKey == "" {
			return errors.New("scoring.google_api_key is required for the gemini provider")
		}
	case "vertexai":
		if c.Scoring.GCPProject == "" {
			return errors.New("scoring.gcp_project is required for the vertexai provider")
		}
	default:
		return fmt.Errorf("unknown scoring.provider '%s'", c.Scoring.Provider)
	}
	if c.Scoring.Provider != "pipeline" && c.Scoring.Model == "" {
		return fmt.Errorf("scoring.model is required for the %s provider", c.Scoring.Provider)
	}
	// The scoring call is slow; anything under a minute cuts off real evaluations.
	if c.Scoring.Timeout < time.Minute {
		return fmt.Errorf("scoring.timeout must be at least 60s, got %s", c.Scoring.Timeout)
	}

	if c.Notification.Enabled {
		if c.Notification.SMTP.Host == "" {
			return errors.New("notification.smtp.host is required when notifications are enabled")
		}
		if c.Notification.SMTP.From == "" {
			return errors.New("notification.smtp.from is required when notifications are enabled")
		}
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json', got '%s'", c.Log.Format)
	}
	return nil
}

func (e EvaluationConfig) validate() error {
	if e.MaxRequeues < 0 {
		return errors.New("evaluation.max_requeues must be non-negative")
	}
	if e.FetchRetries <= 0 {
		return errors.New("evaluation.fetch_retries must be positive")
	}
	if e.ScoreRetries <= 0 {
		return errors.New("evaluation.score_retries must be positive")
	}
	if e.FetchBaseDelay <= 0 || e.ScoreBaseDelay <= 0 {
		return errors.New("evaluation.fetch_base_delay and evaluation.score_base_delay must be positive")
	}
	if e.RequeueDelayStep <= 0 || e.RequeueDelayCap < e.RequeueDelayStep {
		return fmt.Errorf("evaluation.requeue_delay_cap (%s) must be at least requeue_delay_step (%s) and both positive", e.RequeueDelayCap, e.RequeueDelayStep)
	}
	if e.QueueMaxRetry < 0 {
		return errors.New("evaluation.queue_max_retry must be non-negative")
	}
	if e.PlaceholderDomain == "" {
		return errors.New("evaluation.placeholder_domain is required")
	}
	return nil
}
