package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/bassista/go_pagewatch/internal/logger"
)

// State of the scheduler's single execution slot.
type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Cycle is the unit of work fired at every trigger instant.
type Cycle func(ctx context.Context)

// DailyScheduler fires a Cycle once a day at a fixed wall-clock time.
//
// Semantics:
// - The next trigger is computed from the clock in the configured location.
// - At most one cycle runs at a time; a trigger that arrives while a cycle is
//   still running is skipped, not queued.
// - A cycle that panics is recovered and logged; the scheduler stays armed.
type DailyScheduler struct {
	at    TriggerTime
	loc   *time.Location
	cycle Cycle

	sched gocron.Scheduler
	job   gocron.Job
	ctx   context.Context

	onPanic func(recovered any)

	state    atomic.Int32
	runs     atomic.Int64
	skipped  atomic.Int64
	stopOnce sync.Once
}

func NewDailyScheduler(at TriggerTime, loc *time.Location, cycle Cycle) (*DailyScheduler, error) {
	if cycle == nil {
		return nil, errors.New("cycle is nil")
	}
	if loc == nil {
		loc = time.Local
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &DailyScheduler{
		at:    at,
		loc:   loc,
		cycle: cycle,
		sched: s,
		ctx:   context.Background(),
	}, nil
}

// SetPanicHandler registers a callback invoked with the value recovered from a panicking cycle.
func (s *DailyScheduler) SetPanicHandler(f func(recovered any)) { s.onPanic = f }

// Start arms the daily job. Cancelling ctx shuts the scheduler down once the
// in-flight cycle, if any, has returned.
func (s *DailyScheduler) Start(ctx context.Context) error {
	s.ctx = ctx
	job, err := s.sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(uint(s.at.Hour), uint(s.at.Minute), uint(s.at.Second)),
		)),
		gocron.NewTask(func() { s.run(s.ctx) }),
		gocron.WithName("watch-cycle"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create daily job: %w", err)
	}
	s.job = job
	s.sched.Start()

	logger.WithComponent("sched").Infof("daily scheduler armed at %s (%s)", s.at, s.loc)
	s.logNextRun()

	go func() {
		<-ctx.Done()
		if err := s.Stop(); err != nil {
			logger.WithComponent("sched").Errorf("scheduler shutdown error: %v", err)
		}
	}()
	return nil
}

// RunNow queues an immediate cycle. It respects the single-flight guard.
func (s *DailyScheduler) RunNow() error {
	if s.job == nil {
		return errors.New("scheduler not started")
	}
	return s.job.RunNow()
}

// NextRun returns the next trigger instant of the armed job.
func (s *DailyScheduler) NextRun() (time.Time, error) {
	if s.job == nil {
		return s.at.Next(time.Now().In(s.loc)), nil
	}
	return s.job.NextRun()
}

func (s *DailyScheduler) Trigger() TriggerTime { return s.at }

func (s *DailyScheduler) Location() *time.Location { return s.loc }

func (s *DailyScheduler) State() State { return State(s.state.Load()) }

// Runs counts cycles that actually executed.
func (s *DailyScheduler) Runs() int64 { return s.runs.Load() }

// Skipped counts triggers dropped because a cycle was still running.
func (s *DailyScheduler) Skipped() int64 { return s.skipped.Load() }

func (s *DailyScheduler) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		logger.WithComponent("sched").Info("stopping scheduler")
		err = s.sched.Shutdown()
	})
	return err
}

// run moves Idle → Running, executes the cycle and always returns to Idle.
func (s *DailyScheduler) run(ctx context.Context) {
	log := logger.WithComponent("sched")
	if !s.state.CompareAndSwap(int32(Idle), int32(Running)) {
		s.skipped.Add(1)
		log.Warn("previous watch cycle still running, skipping this trigger")
		return
	}
	defer s.state.Store(int32(Idle))
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("watch cycle panicked: %v\n%s", rec, debug.Stack())
			if s.onPanic != nil {
				s.onPanic(rec)
			}
		}
	}()

	start := time.Now()
	s.runs.Add(1)
	log.Debugf("watch cycle started")
	s.cycle(ctx)
	log.Infof("watch cycle finished in %s", time.Since(start).Round(time.Millisecond))
}

func (s *DailyScheduler) logNextRun() {
	next, err := s.NextRun()
	if err != nil {
		logger.WithComponent("sched").Debugf("next run unavailable: %v", err)
		return
	}
	logger.WithComponent("sched").Infof("next watch cycle at %s", next.In(s.loc).Format(time.RFC3339))
}
