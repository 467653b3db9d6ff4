package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bassista/go_pagewatch/internal/config"
	"github.com/bassista/go_pagewatch/internal/logger"
	"github.com/bassista/go_pagewatch/internal/notifier"
	"github.com/bassista/go_pagewatch/internal/reporting"
	"github.com/bassista/go_pagewatch/internal/scheduler"
	"github.com/bassista/go_pagewatch/internal/source"
	"github.com/bassista/go_pagewatch/internal/state"
	"github.com/bassista/go_pagewatch/internal/target"
	"github.com/bassista/go_pagewatch/internal/watcher"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config    *config.Config
	Store     state.Store
	Watcher   *watcher.Watcher
	Scheduler *scheduler.DailyScheduler
	Reporter  reporting.Reporter

	BaseCtx context.Context
	Cancel  context.CancelFunc
}

func New(cfg *config.Config, store state.Store, w *watcher.Watcher, s *scheduler.DailyScheduler, rep reporting.Reporter) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if store == nil {
		return nil, errors.New("state store is nil")
	}
	if w == nil {
		return nil, errors.New("watcher is nil")
	}
	if s == nil {
		return nil, errors.New("scheduler is nil")
	}
	if rep == nil {
		rep = reporting.Nop{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:    cfg,
		Store:     store,
		Watcher:   w,
		Scheduler: s,
		Reporter:  rep,
		BaseCtx:   ctx,
		Cancel:    cancel,
	}, nil
}

// NewFromConfig builds every component selected by cfg and wires them together.
func NewFromConfig(cfg *config.Config, rep reporting.Reporter) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if rep == nil {
		rep = reporting.Nop{}
	}

	t, err := target.New(cfg.Target.URL, cfg.Target.Selector, cfg.Target.Format, cfg.Target.Recipients)
	if err != nil {
		return nil, fmt.Errorf("invalid target: %w", err)
	}

	store, err := state.NewStoreFromConfig(cfg.State.Driver, cfg.State.Path, t.URL)
	if err != nil {
		return nil, fmt.Errorf("cannot open state store: %w", err)
	}

	n, err := notifier.NewNotifierFromConfig(cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("cannot init notifier: %w", err)
	}

	src := source.NewHTTPSource(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
	w, err := watcher.New(t, src, store, n, watcher.Policy{
		NotifyFirstRun:  cfg.Notify.FirstRun,
		NotifyUnchanged: cfg.Notify.OnUnchanged,
		Subject:         cfg.Notify.Subject,
		FetchTimeout:    cfg.Fetch.Timeout,
		NotifyTimeout:   cfg.Notify.Timeout,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	w.SetReporter(rep)

	at, err := scheduler.ParseTriggerTime(cfg.Schedule.At)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	s, err := scheduler.NewDailyScheduler(at, loc, w.Run)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	s.SetPanicHandler(func(rec any) {
		rep.Report(fmt.Errorf("watch cycle panic: %v", rec), "panic")
	})

	return New(cfg, store, w, s, rep)
}

// Start arms the daily schedule on the application lifecycle context.
func (a *App) Start() error {
	return a.Scheduler.Start(a.BaseCtx)
}

// CheckNow queues an out-of-schedule cycle through the scheduler so the
// single-flight guard still applies.
func (a *App) CheckNow() error {
	return a.Scheduler.RunNow()
}

func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()

	log := logger.WithComponent("app")
	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(); err != nil {
			log.Errorf("scheduler stop: %v", err)
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			log.Errorf("state store close: %v", err)
		}
	}
	if a.Reporter != nil {
		a.Reporter.Flush()
	}
}
