package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/whoknows/weather/internal/ports"
)

const defaultRunTimeout = 30 * time.Second

// warmUpper — то, что умеет прогреть кэш списком городов (usecase.Resolver).
type warmUpper interface {
	WarmUp(ctx context.Context, cities []string) error
}

// Config — параметры прогрева кэша.
type Config struct {
	Cities   []string
	Interval time.Duration // <= 0 — только прогрев при старте
	Timeout  time.Duration // верхняя граница одного прогона
}

// Warmer — периодический прогрев кэша популярных городов.
// Прогоны не перекрываются: следующий ждёт окончания текущего.
type Warmer struct {
	sched  *gocron.Scheduler
	target warmUpper
	cfg    Config
	log    ports.Logger

	runCtx context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	stopped bool
}

// NewWarmer — конструктор; расписание запускается в Start.
func NewWarmer(target warmUpper, cfg Config, log ports.Logger) *Warmer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRunTimeout
	}
	runCtx, cancel := context.WithCancel(context.Background())
	return &Warmer{
		sched:  gocron.NewScheduler(time.UTC),
		target: target,
		cfg:    cfg,
		log:    log,
		runCtx: runCtx,
		cancel: cancel,
	}
}

// Start — синхронный прогрев, затем расписание каждые Interval.
// Stop, вызванный во время прогрева, прерывает его, и расписание уже не запускается.
func (w *Warmer) Start(ctx context.Context) error {
	if len(w.cfg.Cities) == 0 {
		w.log.Infof(ctx, "cache warmer: no cities configured, nothing to schedule")
		return nil
	}

	startCtx, cancel := context.WithCancel(ctx)
	unlink := context.AfterFunc(w.runCtx, cancel)
	w.run(startCtx)
	unlink()
	cancel()

	if w.cfg.Interval <= 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		w.log.Infof(ctx, "cache warmer stopped before scheduling")
		return nil
	}

	w.sched.SingletonModeAll()
	if _, err := w.sched.Every(w.cfg.Interval).WaitForSchedule().Do(func() { w.run(w.runCtx) }); err != nil {
		return fmt.Errorf("schedule warm-up: %w", err)
	}
	w.sched.StartAsync()
	w.log.Infof(ctx, "cache warmer scheduled cities=%d interval=%s", len(w.cfg.Cities), w.cfg.Interval)
	return nil
}

// Stop — отменяет текущий прогон и останавливает расписание. Повторный вызов безопасен.
func (w *Warmer) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	w.cancel()
	w.sched.Stop()
}

func (w *Warmer) run(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, w.cfg.Timeout)
	defer cancel()

	if err := w.target.WarmUp(ctx, w.cfg.Cities); err != nil {
		w.log.Warnf(ctx, "cache warm-up interrupted: %v", err)
	}
}
