package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/Wyydra/inplay/internal/adapter/driven/gateway/ws"
	"github.com/Wyydra/inplay/internal/adapter/driven/metrics"
	repo "github.com/Wyydra/inplay/internal/adapter/driven/persistence/memory"
	handler "github.com/Wyydra/inplay/internal/adapter/driving/http"
	"github.com/Wyydra/inplay/internal/config"
	"github.com/Wyydra/inplay/internal/core/service"
)

var baseFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "config",
		Usage: "path to the YAML config file",
	},
	&cli.StringFlag{
		Name:    "config-body",
		Usage:   "config in YAML, typically passed in as an environment var in a container",
		EnvVars: []string{"INPLAY_CONFIG"},
	},
}

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	app := &cli.App{
		Name:   "inplay",
		Usage:  "signaling and chat relay for presenter/viewer rooms",
		Flags:  append(baseFlags, config.Flags...),
		Action: startServer,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getConfig(c *cli.Context) (*config.Config, error) {
	confString, err := config.GetConfigString(c.String("config"), c.String("config-body"))
	if err != nil {
		return nil, err
	}
	return config.NewConfig(confString, true, c)
}

func setupLogging(conf *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(conf.Logging.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var l zerolog.Logger
	if conf.Logging.JSON {
		l = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		w := zerolog.ConsoleWriter{Out: os.Stdout}
		l = zerolog.New(w).With().Timestamp().Caller().Logger()
	}
	log.Logger = l
	return l
}

func startServer(c *cli.Context) error {
	conf, err := getConfig(c)
	if err != nil {
		return err
	}
	l := setupLogging(conf)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewPrometheus(reg)

	history := repo.NewHistoryRepository(conf.Room.HistoryLimit)
	store := service.NewRoomStore(history, m)
	registry := service.NewConnectionRegistry()
	hub := ws.NewHub()

	chatService := service.NewChatService(store, registry, history, hub, m)
	presenceService := service.NewPresenceService(store, registry, chatService, hub, m, service.RoomPolicies{
		Presenter:  conf.PresenterPolicy(),
		Disconnect: conf.DisconnectPolicy(),
	})
	h := handler.NewHandler(handler.Services{
		Presence:  presenceService,
		Chat:      chatService,
		Signal:    service.NewSignalService(store, hub, m),
		Lifecycle: service.NewLifecycleService(registry, presenceService),
		Store:     store,
	}, hub, m, reg, handler.Options{
		AllowedOrigins: conf.AllowedOrigins,
		SendBuffer:     conf.WebSocket.SendBuffer,
		MaxMessageSize: conf.WebSocket.MaxMessageSize,
		WriteWait:      conf.WebSocket.WriteWait,
		PongWait:       conf.WebSocket.PongWait,
		PingPeriod:     conf.WebSocket.PingPeriod,
	})

	go hub.Run()

	r := h.NewRouter()

	addr := fmt.Sprintf(":%d", conf.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Info().
			Str("addr", addr).
			Strs("allowed_origins", conf.AllowedOrigins).
			Str("presenter_policy", string(conf.PresenterPolicy())).
			Str("disconnect_policy", string(conf.DisconnectPolicy())).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	l.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("Server forced to shutdown")
	}

	hub.Stop()
	l.Info().Msg("Server exited")
	return nil
}
