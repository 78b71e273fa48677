package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "intelliinspect/docs"
	"intelliinspect/internal/broker"
	"intelliinspect/internal/config"
	"intelliinspect/internal/handlers"
	"intelliinspect/internal/logger"
	"intelliinspect/internal/metrics"
	"intelliinspect/internal/mlclient"
	"intelliinspect/internal/repository"
	"intelliinspect/internal/repository/db"
	"intelliinspect/internal/server"
	"intelliinspect/internal/service"
	"intelliinspect/internal/state"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	defaultConfigPath = "configs/config.yml"
	shutdownTimeout   = 10 * time.Second
	restoreTimeout    = 5 * time.Second
	mqttDisconnectMs  = 250
)

// @title        IntelliInspect gateway API
// @version      1.0
// @BasePath     /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		logger.Get().Fatalw("error reading config", "err", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Get().Fatalw("invalid config", "err", err)
	}
	log := logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err, "path", cfg.DB.Path)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(conn)
	store := state.New()
	ml := mlclient.NewClient(cfg.ML.BaseURL, cfg.ML.Timeout, mlclient.ClientConfig{
		MaxRetries: cfg.ML.MaxRetries,
		RetryDelay: cfg.ML.RetryDelay,
	})

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(reg)
		gatherer = reg
	}

	var sinks []service.NamedSink
	if cfg.MQTT.Enabled {
		client, err := broker.Connect(broker.ClientConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		})
		if err != nil {
			log.Fatalw("failed to connect mqtt", "err", err)
		}
		defer client.Disconnect(mqttDisconnectMs)
		sinks = append(sinks, service.NamedSink{Name: "mqtt", Sink: broker.NewSamplePublisher(client, cfg.MQTT.Topic)})
	}

	services, sim := service.NewService(repos, store, ml, service.Options{
		TickInterval: cfg.Simulation.Interval,
		SigningKey:   cfg.Auth.SigningKey,
		TokenTTL:     cfg.Auth.TokenTTL,
		Sinks:        sinks,
		Metrics:      m,
		Logger:       log,
	})

	restoreCtx, cancelRestore := context.WithTimeout(context.Background(), restoreTimeout)
	if err := services.Workflow.Restore(restoreCtx); err != nil {
		log.Warnw("workflow_restore_failed", "err", err)
	}
	cancelRestore()

	apiHandler := handlers.NewHandler(services, store, log, handlers.Options{
		RequireAuth:    cfg.Auth.Enabled,
		Metrics:        m,
		Gatherer:       gatherer,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// relayed training calls may take the full ML timeout
	srv := server.New(cfg.Port, apiHandler.InitRoutes(), cfg.ML.Timeout+server.DefaultWriteTimeout)
	go func() {
		log.Infow("http_server_started", "addr", srv.Addr(), "ml", cfg.ML.BaseURL)
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()

	waitForShutdown(srv, sim, log)
}

func configPath() string {
	if p := os.Getenv("INTELLIINSPECT_CONFIG"); p != "" {
		return p
	}
	return defaultConfigPath
}

// waitForShutdown blocks until SIGINT/SIGTERM, then stops the HTTP server and
// the simulation orchestrator.
func waitForShutdown(srv *server.Server, sim *service.SimulationService, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
	if err := sim.Shutdown(ctx); err != nil {
		log.Errorw("simulation shutdown timed out", "err", err)
	}
}
