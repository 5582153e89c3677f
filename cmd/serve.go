package cmd

import (
	"fmt"

	"aicruit/internal/apihandlers"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	serveAddr string // Listen address
	servePort string // Listen port
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the job and candidate submission HTTP API",
	Long: `Starts an HTTP server for creating jobs, submitting candidate resumes,
re-queuing evaluations and reading evaluation progress.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		addr := appInstance.Config.Server.Addr
		if cmd.Flags().Changed("addr") || addr == "" {
			addr = serveAddr
		}
		port := appInstance.Config.Server.Port
		if cmd.Flags().Changed("port") || port == "" {
			port = servePort
		}

		if !log.IsLevelEnabled(log.DebugLevel) {
			gin.SetMode(gin.ReleaseMode)
		}
		router := gin.New()
		router.Use(gin.Logger(), gin.Recovery())
		apihandlers.NewAPIHandler(appInstance).RegisterRoutes(router)

		listenAddr := fmt.Sprintf("%s:%s", addr, port)
		log.Infof("Starting API server on http://%s", listenAddr)
		if err := router.Run(listenAddr); err != nil {
			log.WithError(err).Error("Failed to run API server")
			return fmt.Errorf("failed to run API server: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "localhost", "Address to listen on (e.g., '0.0.0.0' for all interfaces)")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")
}
