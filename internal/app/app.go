package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/gric11/TG-MeetBOT/internal/config"
	"github.com/gric11/TG-MeetBOT/internal/engine"
	"github.com/gric11/TG-MeetBOT/internal/scheduler"
	"github.com/gric11/TG-MeetBOT/internal/store"
	"github.com/gric11/TG-MeetBOT/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	loc     *time.Location

	repo   store.Repo
	sched  *scheduler.Scheduler
	core   *engine.Engine
	router *telegram.Router
	sweep  *cron.Cron
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv, loc: loc}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting meetbot",
		zap.String("tz", a.cfg.Timezone),
		zap.String("http", a.cfg.HTTPAddr),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	a.sched = scheduler.New(a.log)

	a.core = engine.New(repo, a.sched, telegram.NewNotifier(a.bot), a.log, a.loc)
	a.router = telegram.NewRouter(a.bot, a.log, a.core)

	// Re-derive still-future triggers from stored events; in-memory timers
	// do not survive a restart.
	if err := a.core.Restore(ctx); err != nil {
		a.log.Error("trigger restore failed", zap.Error(err))
		return err
	}

	// Periodic GC for events whose start deadline was missed.
	a.sweep = cron.New()
	if _, err := a.sweep.AddFunc(a.cfg.SweepSpec, func() {
		a.core.SweepExpired(context.Background())
	}); err != nil {
		a.log.Error("sweep schedule failed", zap.Error(err))
		return err
	}
	a.sweep.Start()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}

func (a *App) shutdown() {
	if a.sweep != nil {
		<-a.sweep.Stop().Done()
	}
	if a.sched != nil {
		a.sched.Stop()
	}

	// Create a short-lived shutdown context and cancel it immediately after use.
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}

	if a.repo != nil {
		_ = a.repo.Close()
	}
}
