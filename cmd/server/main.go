package main

import (
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/api/service"
	"ctchen222/tic-tac-toe-minimax/internal/bot"
	"ctchen222/tic-tac-toe-minimax/internal/config"
	"ctchen222/tic-tac-toe-minimax/internal/db"
	"ctchen222/tic-tac-toe-minimax/internal/events"
	"ctchen222/tic-tac-toe-minimax/internal/game"
	"ctchen222/tic-tac-toe-minimax/internal/logger"
	"ctchen222/tic-tac-toe-minimax/internal/repository"
	"ctchen222/tic-tac-toe-minimax/internal/server"
	"ctchen222/tic-tac-toe-minimax/internal/telemetry"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize telemetry before the logger so the otelslog bridge picks
	// up the real LoggerProvider.
	shutdown, err := telemetry.InitOtel(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("Error shutting down telemetry", "error", err)
		}
	}()

	if err := logger.Init(os.Stdout, cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	human, err := game.ParseMark(cfg.Game.HumanMark)
	if err != nil {
		return err
	}

	var (
		gameRepo repository.GameRepository
		broker   events.Broker
	)
	if cfg.Redis.Enabled {
		rdb, err := db.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer rdb.Close()

		gameRepo = repository.NewGameRepository(rdb, cfg.Game.TTL)
		broker = events.NewRedisBroker(rdb)
		slog.InfoContext(ctx, "Using Redis storage", "redis.addr", cfg.Redis.Addr)
	} else {
		gameRepo = repository.NewMemoryGameRepository(cfg.Game.TTL)
		broker = events.NewMemoryBroker()
		slog.InfoContext(ctx, "Using in-memory storage")
	}

	var botOpts []bot.Option
	if cfg.Bot.Pruning {
		botOpts = append(botOpts, bot.WithPruning())
	}
	calculator, err := bot.NewBotMoveCalculator(botOpts...)
	if err != nil {
		return fmt.Errorf("failed to create move calculator: %w", err)
	}

	gameService := service.NewGameService(gameRepo, calculator, broker, human)
	authService := service.NewAuthService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	srv := server.NewServer(cfg.HTTP, gameService, authService, broker)
	if err := srv.Run(ctx); err != nil {
		return err
	}

	slog.Info("Server exiting")
	return nil
}
