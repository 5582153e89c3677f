package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"aicruit/internal/config"
	"aicruit/internal/notify"
	"aicruit/internal/scoring"
	"aicruit/internal/services"
	"aicruit/internal/store"
	"aicruit/internal/store/memory"
	"aicruit/internal/store/mongostore"
	"aicruit/internal/store/primary"
	"aicruit/internal/store/sqlite"
	"aicruit/internal/worker"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
)

type App struct {
	Config *config.Config

	Store     store.Store
	JobClient store.JobClient
	Inspector *asynq.Inspector
	Scorer    scoring.Client
	Notifier  notify.Notifier

	// --- Initialized Services ---
	IdentityService   *services.IdentityService
	SubmissionService *services.SubmissionService
	ProgressService   *services.ProgressService

	Processor *worker.Processor
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx := context.Background()
	app := &App{Config: cfg}

	if err := app.initStore(ctx); err != nil {
		return nil, err
	}
	if err := app.initJobClient(); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	if err := app.initScorer(ctx); err != nil {
		app.cleanupPartialInit()
		return nil, err
	}
	app.initNotifier()
	app.initCoreServices()

	log.Debug("Application initialization complete.")
	return app, nil
}

// RedisOpt is the connection setting shared by the queue client, the worker
// server and the inspector.
func (a *App) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     a.Config.Redis.Address,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	}
}

// --- Private Helper Methods ---

func (a *App) initStore(ctx context.Context) error {
	db := a.Config.Database
	var (
		s   store.Store
		err error
	)
	switch db.Driver {
	case "postgres":
		s, err = primary.NewPrimaryStore(ctx, db.Primary.DSN)
	case "mongo":
		s, err = mongostore.New(ctx, db.Mongo.URI, db.Mongo.Database)
	case "sqlite":
		s, err = sqlite.New(ctx, db.SQLite.Path)
	case "memory":
		log.Warn("Using the in-memory store; data is lost on exit")
		s = memory.New()
	default:
		return fmt.Errorf("unknown database driver '%s'", db.Driver)
	}
	if err != nil {
		return fmt.Errorf("init %s store: %w", db.Driver, err)
	}
	a.Store = s
	return nil
}

func (a *App) initJobClient() error {
	jc, err := store.NewAsynqJobClient(a.RedisOpt(), a.Store, store.EnqueueOptions{
		MaxRetry: a.Config.Evaluation.QueueMaxRetry,
		Timeout:  a.Config.Evaluation.TaskTimeout,
	})
	if err != nil {
		return fmt.Errorf("init job client: %w", err)
	}
	a.JobClient = jc
	a.Inspector = asynq.NewInspector(a.RedisOpt())
	return nil
}

func (a *App) initScorer(ctx context.Context) error {
	sc := a.Config.Scoring
	if sc.Provider == "pipeline" {
		a.Scorer = scoring.NewPipelineClient(sc.PipelineURL, sc.Timeout)
		log.WithField("url", sc.PipelineURL).Debug("Using resume pipeline scorer")
		return nil
	}

	var (
		completer scoring.Completer
		err       error
	)
	switch sc.Provider {
	case "openai":
		completer, err = scoring.NewOpenAICompleter(sc.OpenaiApiKey, sc.Model)
	case "gemini":
		completer, err = scoring.NewGeminiCompleter(ctx, sc.GoogleApiKey, sc.Model)
	case "vertexai":
		completer, err = scoring.NewVertexCompleter(ctx, sc.GCPProject, sc.GCPLocation, sc.Model)
	default:
		return fmt.Errorf("unknown or unsupported scoring provider configured: %s", sc.Provider)
	}
	if err != nil {
		return fmt.Errorf("init %s scorer: %w", sc.Provider, err)
	}

	prompt, err := config.LoadPromptContent(sc.Prompt, "evaluate.txt")
	if err != nil {
		if sc.Prompt != "" || !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("Failed to load scoring prompt: %v. Using the built-in prompt.", err)
		}
		prompt = scoring.DefaultEvaluationPrompt
	}
	fetcher := scoring.NewResumeFetcher(sc.Timeout, sc.MaxResumeMB)
	a.Scorer = scoring.NewLLMScorer(completer, fetcher, prompt)
	log.WithField("scorer", a.Scorer.Name()).Debug("Using LLM scorer")
	return nil
}

func (a *App) initNotifier() {
	n := a.Config.Notification
	if !n.Enabled {
		a.Notifier = notify.Noop{}
		return
	}
	a.Notifier = notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:     n.SMTP.Host,
		Port:     n.SMTP.Port,
		Username: n.SMTP.Username,
		Password: n.SMTP.Password,
		From:     n.SMTP.From,
	}, n.FrontendBaseURL, n.SendToCandidates)
}

func (a *App) initCoreServices() {
	cfg := a.Config
	a.IdentityService = services.NewIdentityService(a.Store, cfg.Evaluation)
	a.SubmissionService = services.NewSubmissionService(a.Store, a.IdentityService, a.JobClient, cfg.Evaluation, cfg.Notification.FrontendBaseURL)
	a.ProgressService = services.NewProgressService(a.Store)
	a.Processor = worker.NewProcessor(worker.Deps{
		Jobs:     a.Store,
		Scorer:   a.Scorer,
		Identity: a.IdentityService,
		Requeuer: a.JobClient,
		Notifier: a.Notifier,
	}, cfg.Evaluation)
}

// Close releases every connection the app holds.
func (a *App) Close() error {
	var errs []error
	if a.Inspector != nil {
		errs = append(errs, a.Inspector.Close())
	}
	if a.JobClient != nil {
		errs = append(errs, a.JobClient.Close())
	}
	if c, ok := a.Scorer.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	return errors.Join(errs...)
}

func (a *App) cleanupPartialInit() {
	if err := a.Close(); err != nil {
		log.Printf("Error during cleanup after failed init: %v", err)
	}
}
