package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"remindd/internal/config"
	"remindd/internal/dialog"
	"remindd/internal/dispatch"
	"remindd/internal/domain"
	"remindd/internal/repository"
	"remindd/internal/scheduler"
	"remindd/internal/service"
	"remindd/internal/session"
	"remindd/internal/temporal"
	"remindd/internal/transport"
)

func main() {
	logger := log.New(os.Stdout, "[remindd] ", log.LstdFlags|log.LUTC|log.Lmicroseconds)
	if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
		logger.Printf("failed loading .env files: %v", err)
	}
	cfg := config.Load()
	if cfg.BotToken == "" {
		logger.Fatal("BOT_TOKEN is required")
	}

	location, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		logger.Printf("unknown timezone %q, using UTC: %v", cfg.TimezoneName, err)
		location = time.UTC
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, repoCloser := setupRepository(ctx, cfg, logger)
	defer repoCloser()

	sessions, sessionsCloser := setupSessions(ctx, cfg, logger)
	defer sessionsCloser()

	client := transport.NewTelegramClient(transport.TelegramConfig{
		Token:              cfg.BotToken,
		PollTimeoutSeconds: cfg.PollTimeoutSeconds,
	})
	sender := transport.NewRateLimitedSender(client, cfg.SendRPS, cfg.SendBurst)

	if err := client.RegisterCommands(ctx, map[string]string{
		"start": "Начать работу с напоминаниями",
		"stop":  "Завершить диалог",
	}); err != nil {
		logger.Printf("register command menu: %v", err)
	}

	reminders := service.NewReminderService(repo, logger)
	extractor := temporal.New(location, cfg.DateLocales, time.Duration(cfg.MinLeadSeconds)*time.Second)

	machine := dialog.NewMachine(dialog.Dependencies{
		Sender:    sender,
		Sessions:  sessions,
		Reminders: reminders,
		Extractor: extractor,
		Logger:    logger,
		Options: dialog.Options{
			ReceiverSelectionEnabled: cfg.ReceiverSelectionEnabled,
			DefaultReceiverID:        cfg.DefaultReceiverChatID,
			Location:                 location,
		},
	})

	fire := scheduler.New(repo, func(ctx context.Context, reminder *domain.Reminder) error {
		_, err := sender.Send(ctx, transport.Message{
			ChatID: reminder.ReceiverID,
			Text:   reminder.Text,
		})
		return err
	}, logger, time.Duration(cfg.SweepIntervalMS)*time.Millisecond)
	go fire.Run(ctx)
	logger.Printf("scheduler started, sweep interval %dms", cfg.SweepIntervalMS)

	dispatcher := dispatch.New(client, machine, sender, cfg.OperatorChatID, logger)
	logger.Printf("long polling started")
	dispatcher.Run(ctx)

	logger.Printf("shutdown complete")
}

func setupRepository(
	ctx context.Context,
	cfg config.Config,
	logger *log.Logger,
) (repository.RemindersRepository, func()) {
	if cfg.DatabaseURL == "" {
		logger.Printf("DATABASE_URL not configured, using in-memory repository (reminders will not survive restarts)")
		return repository.NewMemoryRemindersRepository(), func() {}
	}

	pgRepo, err := repository.NewPostgresRemindersRepository(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Printf("failed to initialize postgres repository, fallback to memory: %v", err)
		return repository.NewMemoryRemindersRepository(), func() {}
	}
	logger.Printf("postgres repository initialized")
	return pgRepo, func() {
		pgRepo.Close()
	}
}

func setupSessions(
	ctx context.Context,
	cfg config.Config,
	logger *log.Logger,
) (session.Store, func()) {
	if cfg.RedisAddr == "" {
		logger.Printf("REDIS_ADDR not configured, using in-memory sessions")
		return session.NewMemoryStore(), func() {}
	}

	redisStore, err := session.NewRedisStore(ctx, session.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Printf("failed to initialize redis sessions, fallback to memory: %v", err)
		return session.NewMemoryStore(), func() {}
	}
	logger.Printf("redis session store initialized")
	return redisStore, func() {
		_ = redisStore.Close()
	}
}
