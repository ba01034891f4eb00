package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/millionaire-bot/internal/config"
	"github.com/aliskhannn/millionaire-bot/internal/delivery/telegram"
	"github.com/aliskhannn/millionaire-bot/internal/infra/postgres"
	pgrepo "github.com/aliskhannn/millionaire-bot/internal/infra/postgres/repository"
	"github.com/aliskhannn/millionaire-bot/internal/logger"
	"github.com/aliskhannn/millionaire-bot/internal/metrics"
	"github.com/aliskhannn/millionaire-bot/internal/repository"
	"github.com/aliskhannn/millionaire-bot/internal/service"
	"github.com/aliskhannn/millionaire-bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil && !errors.Is(err, context.Canceled) {
		lg.Fatal("bot stopped with error", zap.Error(err))
	}
	lg.Info("shutdown complete")
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rules, err := cfg.Rules()
	if err != nil {
		return err
	}
	helpCfg, err := cfg.HelpConfig()
	if err != nil {
		return err
	}

	fileBank, err := repository.NewQuestionRepository(cfg.Questions.Path)
	if err != nil {
		return err
	}

	var (
		store service.Store
		bank  service.QuestionBank = fileBank
	)

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dsn, err := cfg.DB.DSN()
		if err != nil {
			return err
		}

		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}

		questionRepo := pgrepo.NewQuestionRepository(pool)
		if cfg.Questions.ImportOnStart {
			added, err := questionRepo.Import(ctx, fileBank.All())
			if err != nil {
				return err
			}
			lg.Info("question bank imported", zap.Int("added", added))
		}

		store = pgrepo.NewStore(pool)
		bank = questionRepo

	case config.DriverMemory:
		if l, ok := fileBank.CoversLevels(rules.Scores.LevelRange()); !ok {
			lg.Warn("question bank has no question for a level", zap.Int("level", l))
		}
		store = storage.NewMemoryStore()
	}

	lg.Info("storage ready", zap.String("driver", cfg.Storage.Driver))

	gameMetrics := metrics.New()

	gameService := service.NewGameService(
		store,
		service.NewQuestionSelector(bank, nil),
		service.NewHelpEngine(helpCfg, nil),
		rules,
		lg.Named("game"),
		service.WithObserver(gameMetrics),
	)
	userService := service.NewUserService(store)

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return err
	}
	bot.Debug = cfg.Env != "production"
	lg.Info("authorized on account", zap.String("username", bot.Self.UserName))

	if _, err := bot.Request(tgbotapi.NewSetMyCommands(telegram.Commands()...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	handler := telegram.NewHandler(
		bot,
		lg.Named("telegram"),
		userService,
		gameService,
		storage.NewBoardStorage(),
		telegram.WithRateLimit(cfg.Telegram.RateLimit, cfg.Telegram.RateBurst),
	)
	sweeper := service.NewTimeoutSweeper(gameService, cfg.Game.TimeoutSweepSpec, lg.Named("timeouts"))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return handler.Run(ctx)
	})
	g.Go(func() error {
		return sweeper.Start(ctx)
	})
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			return gameMetrics.Serve(ctx, cfg.Metrics.Addr, lg.Named("metrics"))
		})
	}

	err = g.Wait()
	bot.StopReceivingUpdates()
	return err
}
