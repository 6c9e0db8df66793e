package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vacancybot/internal/bot"
	"vacancybot/internal/config"
	"vacancybot/internal/hh"
	"vacancybot/internal/notifier"
	"vacancybot/internal/poller"
	"vacancybot/internal/runtime/supervisor"
	"vacancybot/internal/storage"
	tgadapter "vacancybot/internal/transport/telegram/adapter"
	"vacancybot/pkg/logx"
)

func main() {
	// .env is a development convenience; deployments set the environment
	// directly (systemd EnvironmentFile or the container runtime).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	boot := logx.NewConsole(os.Getenv("LOG_LEVEL"))

	cfg, err := config.FromEnv()
	if err != nil {
		boot.Error("configuration invalid", logx.Err(err))
		os.Exit(1)
	}

	log, closeLog := logx.New(cfg.Logging)
	defer func() { _ = closeLog() }()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("fatal", logx.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log logx.Logger) error {
	store, err := storage.Open(storage.Config{
		Path:        cfg.Store.Path,
		BusyTimeout: cfg.Store.BusyTimeout,
	}, log.With(logx.String("comp", "storage")))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	adapter, err := tgadapter.New(tgadapter.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: cfg.Telegram.PollTimeout,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return err
	}

	client := hh.NewClient(hh.Config{
		BaseURL: cfg.HH.BaseURL,
		AreaID:  cfg.HH.AreaID,
		Timeout: cfg.HH.Timeout,
	}, log.With(logx.String("comp", "hh")))

	// A bad POLL_SCHEDULE should fail startup, not spin the restart loop.
	if cfg.Poll.Schedule != "" {
		if _, err := poller.ParseSchedule(cfg.Poll.Schedule); err != nil {
			return err
		}
	}

	pairs := hh.CrossPairs(cfg.Poll.Queries, cfg.Poll.Experience)
	if cfg.Poll.SearchesFile != "" {
		set, err := config.LoadSearchesFile(cfg.Poll.SearchesFile)
		if err != nil {
			return err
		}
		pairs = hh.CrossPairs(set.Queries, set.Experience)
	}

	notif := notifier.New(notifier.Config{}, adapter, store, client, store, log.With(logx.String("comp", "notifier")))
	poll := poller.New(poller.Config{
		Interval:    cfg.Poll.Interval,
		Schedule:    cfg.Poll.Schedule,
		WarmupDelay: cfg.Poll.WarmupDelay,
	}, client, store, notif, pairs, log.With(logx.String("comp", "poller")))
	router := bot.New(adapter, store, notif, poll.Pairs, cfg.Poll.Interval, log.With(logx.String("comp", "bot")))

	sup := supervisor.New(ctx,
		supervisor.WithLogger(log.With(logx.String("comp", "app"))),
		supervisor.WithCancelOnError(false),
	)

	sup.GoRestart("poller", poll.Run,
		supervisor.WithRestartBackoff(time.Second, time.Minute))
	sup.Go("router", func(ctx context.Context) error {
		return router.Run(ctx, sup)
	})
	if cfg.Poll.SearchesFile != "" {
		watchLog := log.With(logx.String("comp", "searches"))
		sup.Go0("searches.watch", func(ctx context.Context) {
			_ = config.WatchSearches(ctx, cfg.Poll.SearchesFile, watchLog, func(set config.SearchSet) {
				poll.SetPairs(hh.CrossPairs(set.Queries, set.Experience))
			})
		})
	}

	notifyReady(sup, log.With(logx.String("comp", "systemd")))
	log.Info("bot started",
		logx.Duration("interval", cfg.Poll.Interval),
		logx.Int("search_pairs", len(pairs)))

	<-ctx.Done()
	log.Info("shutting down")

	wctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sup.Stop(wctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
