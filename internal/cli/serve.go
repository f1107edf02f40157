package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/dshills/critic/internal/config"
	"github.com/dshills/critic/internal/server"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload form and analysis endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		overrides := buildOverrides()
		if flagAddr != "" {
			overrides["server.addr"] = flagAddr
		}
		cfg, err := config.Load(overrides)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		var limiter *rate.Limiter
		if cfg.Server.RequestsPerSecond > 0 {
			limiter = rate.NewLimiter(rate.Limit(cfg.Server.RequestsPerSecond), 1)
		}
		pipeline, err := buildPipeline(cfg, logger, limiter)
		if err != nil {
			fail(setupExitCode(err), "%v", err)
			return nil
		}

		gin.SetMode(gin.ReleaseMode)
		srv := server.New(pipeline, server.Options{
			Addr:              cfg.Server.Addr,
			MaxUploadBytes:    cfg.Server.MaxUploadBytes,
			RequestsPerSecond: cfg.Server.RequestsPerSecond,
			Logger:            logger,
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := srv.Run(ctx); err != nil {
			fail(ExitRuntimeError, "%v", err)
		}
		return nil
	},
}

func init() {
	addAnalyzeFlags(serveCmd)
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config, 127.0.0.1:5000)")
}
