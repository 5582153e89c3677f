package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"aicruit/internal/app"
	"aicruit/internal/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aicruit",
	Short: "AI Cruit resume evaluation CLI",
	Long: `aicruit runs the asynchronous resume evaluation pipeline: it takes in candidate
submissions, queues their evaluation and runs the worker that scores them.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is given, print help.
		cmd.Help()
	},
	// PersistentPreRunE runs before any subcommand's RunE
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipAppInit(cmd) {
			return nil
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if err := setupLogging(cfg); err != nil {
			return err
		}

		appInstance, err := app.NewApp(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		// Store the app instance in the command's context
		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appInstance, err := GetAppFromContext(cmd.Context()); err == nil {
			if err := appInstance.Close(); err != nil {
				log.WithError(err).Warn("Error closing application resources")
			}
		}
	},
}

func skipAppInit(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "completion", "version":
			return true
		}
	}
	return false
}

func setupLogging(cfg *config.Config) error {
	level := cfg.Log.Level
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log.level '%s': %w", cfg.Log.Level, err)
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)
	if strings.EqualFold(cfg.Log.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Define a custom type for the context key to avoid collisions.
type contextKey string

const appKey contextKey = "app"

// GetAppFromContext retrieves the app instance stored by PersistentPreRunE.
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	if ctx == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		// This should not happen if PersistentPreRunE ran successfully
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check store, queue and scorer connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		appInstance, err := GetAppFromContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to get app instance: %w", err)
		}

		checks := []struct {
			name string
			fn   func(context.Context) error
		}{
			{"Store (" + appInstance.Config.Database.Driver + ")", appInstance.Store.Ping},
			{"Redis", func(context.Context) error {
				_, err := appInstance.Inspector.Queues()
				return err
			}},
			{"Scorer (" + appInstance.Scorer.Name() + ")", appInstance.Scorer.Health},
		}

		failed := 0
		for _, c := range checks {
			if err := c.fn(ctx); err != nil {
				failed++
				fmt.Printf("%-28s %s  %v\n", c.name, statusColor("FAIL"), err)
				continue
			}
			fmt.Printf("%-28s %s\n", c.name, statusColor("OK"))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d checks failed", failed, len(checks))
		}
		return nil
	},
}
