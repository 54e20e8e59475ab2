package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/connectn-backend/internal/config"
	"github.com/rocketscienceinc/connectn-backend/internal/pkg"
	"github.com/rocketscienceinc/connectn-backend/internal/repository"
	"github.com/rocketscienceinc/connectn-backend/internal/repository/storage"
	"github.com/rocketscienceinc/connectn-backend/internal/service"
	"github.com/rocketscienceinc/connectn-backend/internal/transport/events"
	"github.com/rocketscienceinc/connectn-backend/internal/usecase"
	"github.com/rocketscienceinc/connectn-backend/transport/rest"
	"github.com/rocketscienceinc/connectn-backend/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	rnd := pkg.NewRandom(conf.Game.Seed)
	registry := repository.NewRoomRegistry(rnd, conf.Game.RoomCodeLength)
	opponent := service.NewOpponentService(logger, rnd)

	scheduler := service.NewSchedulerService(logger)
	defer scheduler.Stop()

	hub := websocket.NewHub(logger)
	defer hub.Close()

	publishers := usecase.Publishers{hub, usecase.LogPublisher{Logger: logger}}

	var snapshots repository.SnapshotRepository
	if conf.Redis.Enabled {
		redisClient, err := storage.NewRedis(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisClient.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		snapshots = repository.NewSnapshotRepository(redisClient, conf.Redis.SnapshotTTL)
		mirror := usecase.NewSnapshotMirror(logger, snapshots)
		go mirror.Run(ctx)

		publishers = append(publishers, mirror)
		log.Info("Mirroring room snapshots to redis", "addr", conf.Redis.GetRedisAddr())
	}

	if conf.NATS.Enabled {
		natsPublisher, err := events.Connect(logger, conf.NATS.URL, conf.NATS.SubjectPrefix)
		if err != nil {
			return fmt.Errorf("could not connect to nats: %w", err)
		}
		defer natsPublisher.Close()

		publishers = append(publishers, natsPublisher)
		log.Info("Publishing room events to nats", "url", conf.NATS.URL)
	}

	manager := usecase.NewRoomManager(logger, registry, opponent, scheduler, rnd, publishers, usecase.Options{
		GracePeriod:   conf.Game.GracePeriod,
		OpponentDelay: conf.Game.OpponentDelay,
		MaxBoardSize:  conf.Game.MaxBoardSize,
	})

	wsServer := websocket.New(logger, hub, manager, websocket.Options{
		ReadBufferSize:  conf.WebSocket.ReadBufferSize,
		WriteBufferSize: conf.WebSocket.WriteBufferSize,
		PingPeriod:      conf.WebSocket.PingPeriod,
		PongWait:        conf.WebSocket.PongWait,
		WriteWait:       conf.WebSocket.WriteWait,
		MaxMessageSize:  conf.WebSocket.MaxMessageSize,
		SendBuffer:      conf.WebSocket.SendBuffer,
		AllowedOrigins:  conf.WebSocket.AllowedOrigins,
	})

	router := rest.NewRouter(logger, conf.WebSocket.AllowedOrigins, manager, snapshots, wsServer)

	// run HTTP server, websocket upgrades included
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, router); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
