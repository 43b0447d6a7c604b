package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/dasmlab/batchxlate/pkg/config"
	"github.com/dasmlab/batchxlate/pkg/server"
	"github.com/dasmlab/batchxlate/pkg/service"
	"github.com/dasmlab/batchxlate/pkg/translate"
)

type flags struct {
	cfgFile     string
	printConfig bool
}

func main() {
	f := &flags{}
	v := config.New()

	rootCmd := &cobra.Command{
		Use:   "batchxlate-server",
		Short: "gRPC and HTTP front for the batchexecute translation RPC",
		Long: `batchxlate-server exposes Google Translate's web batchexecute RPC
over gRPC and a small JSON HTTP API.

Configuration is read from defaults, an optional YAML file (--config),
BATCHXLATE_* environment variables and flags, in increasing priority.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&f.cfgFile, "config", "", "path to a YAML config file")
	rootCmd.Flags().Int("port", 50051, "gRPC server port")
	rootCmd.Flags().Int("http-port", 8080, "HTTP server port (0 disables the HTTP front)")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.Flags().String("endpoint", "", "batchexecute endpoint URL (default is the public endpoint)")
	rootCmd.Flags().Duration("timeout", 30*time.Second, "Timeout for one upstream round trip")
	rootCmd.Flags().BoolVar(&f.printConfig, "print-config", false, "Print the effective configuration as YAML and exit")

	if err := config.BindFlags(v, rootCmd.Flags()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, f.cfgFile)
		if err != nil {
			return err
		}
		if f.printConfig {
			return config.Dump(cmd.OutOrStdout(), cfg)
		}
		return run(cfg)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(levelName string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		logger.WithError(err).Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

func run(cfg *config.Config) error {
	logger := newLogger(cfg.Log.Level)

	logger.WithFields(logrus.Fields{
		"grpc_port": cfg.GRPC.Port,
		"http_port": cfg.HTTP.Port,
		"endpoint":  cfg.Translate.Endpoint,
		"timeout":   cfg.Translate.Timeout.String(),
		"log_level": logger.GetLevel().String(),
	}).Info("Starting batchxlate server")

	translator, err := translate.NewTranslator(translate.Config{
		Endpoint:  cfg.Translate.Endpoint,
		Referer:   cfg.Translate.Referer,
		UserAgent: cfg.Translate.UserAgent,
		Timeout:   cfg.Translate.Timeout,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("create translator: %w", err)
	}

	// Verify translator is healthy
	healthCtx, healthCancel := context.WithTimeout(context.Background(), 10*time.Second)
	logger.Info("Checking translator health...")
	if err := translator.CheckHealth(healthCtx); err != nil {
		logger.WithError(err).Warn("Translator health check failed, but continuing anyway")
	} else {
		logger.Info("Translator health check passed")
	}
	healthCancel()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
	if err != nil {
		return fmt.Errorf("listen on port %d: %w", cfg.GRPC.Port, err)
	}

	opts := []grpc.ServerOption{
		grpc.Creds(insecure.NewCredentials()),
		grpc.UnaryInterceptor(service.LoggingInterceptor(logger)),
		// Clients ping every 30s; allow down to 15s to avoid "too many pings".
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             15 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     5 * time.Minute,
			MaxConnectionAge:      30 * time.Minute,
			MaxConnectionAgeGrace: 5 * time.Second,
			Time:                  30 * time.Second,
			Timeout:               10 * time.Second,
		}),
	}
	s := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(service.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	service.RegisterTranslationServiceServer(s, service.NewTranslationService(translator, logger))

	// Enable reflection for grpcurl/debugging
	reflection.Register(s)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 2)
	go func() {
		logger.WithFields(logrus.Fields{
			"port": cfg.GRPC.Port,
		}).Info("gRPC server listening")
		if err := s.Serve(lis); err != nil {
			errChan <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	if cfg.HTTP.Port > 0 {
		httpServer := server.NewHTTPServer(translator, logger, cfg.HTTP.Port)
		go func() {
			if err := httpServer.Start(ctx); err != nil {
				errChan <- fmt.Errorf("http serve: %w", err)
			}
		}()
	}

	select {
	case err := <-errChan:
		s.Stop()
		return err
	case <-ctx.Done():
		logger.Info("Received signal, shutting down gracefully...")
	}

	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		logger.Info("Server stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Warn("Graceful shutdown timeout, forcing stop...")
		s.Stop()
	}
	return nil
}
