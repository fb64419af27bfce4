package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hireview/hireview/internal/logger"
	"github.com/hireview/hireview/internal/server"
)

const (
	defaultListenAddr      = ":8080"
	serverShutdownDeadline = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hireview assessment HTTP server",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "listen address, e.g. :8080")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hireview server", zap.String("version", version))

	runner, err := buildRunner(ctx, config, logger)
	if err != nil {
		logger.Fatal("building assessment pipeline", zap.Error(err))
	}

	serverCfg := config.Server
	if serverCfg == nil {
		serverCfg = &ServerConfig{}
	}
	addr := serverCfg.Addr
	if addr == "" {
		addr = defaultListenAddr
	}

	srv := server.New(server.NewHandler(runner, logger), server.Options{
		Addr:           addr,
		OverallTimeout: serverCfg.OverallTimeout,
	}, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down", zap.String("reason", "signal received"))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownDeadline)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
		}
	}
}
