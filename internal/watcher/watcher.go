// Package watcher runs one watch cycle: fetch the target, fingerprint the
// content, classify it against the stored baseline, notify, and persist the
// new baseline.
//
// Ordering rules:
//   - nothing is persisted unless a non-empty snapshot was obtained;
//   - a notification failure never prevents the baseline update;
//   - a storage failure is logged and reported, the outcome stands.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bassista/go_pagewatch/internal/detector"
	"github.com/bassista/go_pagewatch/internal/fingerprint"
	"github.com/bassista/go_pagewatch/internal/logger"
	"github.com/bassista/go_pagewatch/internal/metrics"
	"github.com/bassista/go_pagewatch/internal/notifier"
	"github.com/bassista/go_pagewatch/internal/reporting"
	"github.com/bassista/go_pagewatch/internal/source"
	"github.com/bassista/go_pagewatch/internal/state"
	"github.com/bassista/go_pagewatch/internal/target"
)

// Policy decides which outcomes produce a notification and bounds external calls.
type Policy struct {
	// NotifyFirstRun sends an informational message when no baseline exists.
	NotifyFirstRun bool
	// NotifyUnchanged sends the daily "checked, nothing changed" message.
	NotifyUnchanged bool
	Subject         string
	FetchTimeout    time.Duration
	NotifyTimeout   time.Duration
}

// DefaultPolicy is silent on the first run and reports unchanged checks.
func DefaultPolicy() Policy {
	return Policy{
		NotifyUnchanged: true,
		Subject:         "Site monitoring report",
		FetchTimeout:    30 * time.Second,
		NotifyTimeout:   30 * time.Second,
	}
}

// Snapshot is the content captured during one cycle. It is never persisted in full.
type Snapshot struct {
	Fingerprint fingerprint.Hash
	Content     []byte
	CapturedAt  time.Time
}

// Result describes a finished cycle.
type Result struct {
	Outcome     detector.Outcome `json:"outcome"`
	Fingerprint string           `json:"fingerprint,omitempty"`
	Previous    string           `json:"previous,omitempty"`
	Notified    bool             `json:"notified"`
	NotifyError bool             `json:"notifyError"`
	Persisted   bool             `json:"persisted"`
	Error       string           `json:"error,omitempty"`
	StartedAt   time.Time        `json:"startedAt"`
	FinishedAt  time.Time        `json:"finishedAt"`
}

type Watcher struct {
	target   target.Target
	source   source.Source
	store    state.Store
	notifier notifier.Notifier
	reporter reporting.Reporter
	policy   Policy
	now      func() time.Time

	mu   sync.RWMutex
	last *Result
}

func New(t target.Target, src source.Source, store state.Store, n notifier.Notifier, policy Policy) (*Watcher, error) {
	if src == nil {
		return nil, errors.New("source is nil")
	}
	if store == nil {
		return nil, errors.New("state store is nil")
	}
	if n == nil {
		return nil, errors.New("notifier is nil")
	}
	if policy.Subject == "" {
		policy.Subject = DefaultPolicy().Subject
	}
	return &Watcher{
		target:   t,
		source:   src,
		store:    store,
		notifier: n,
		reporter: reporting.Nop{},
		policy:   policy,
		now:      time.Now,
	}, nil
}

// SetReporter injects the error reporter used for failed cycles.
func (w *Watcher) SetReporter(r reporting.Reporter) {
	if r != nil {
		w.reporter = r
	}
}

func (w *Watcher) Target() target.Target { return w.target }

// LastResult returns the most recent cycle result, if any cycle ran.
func (w *Watcher) LastResult() (Result, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.last == nil {
		return Result{}, false
	}
	return *w.last, true
}

// Run adapts RunCycle to the scheduler's cycle signature.
func (w *Watcher) Run(ctx context.Context) {
	w.RunCycle(ctx)
}

// RunCycle executes one complete watch cycle and never returns an error:
// every failure is folded into the Result.
func (w *Watcher) RunCycle(ctx context.Context) Result {
	log := logger.WithComponent("watcher").WithField("url", w.target.URL)
	res := Result{StartedAt: w.now()}
	defer func() {
		res.FinishedAt = w.now()
		w.record(res)
	}()

	snap, err := w.capture(ctx)
	if err != nil {
		res.Outcome = detector.FetchFailed
		res.Error = err.Error()
		log.Warnf("could not obtain site content, skipping cycle: %v", err)
		w.reporter.Report(err, "fetch")
		return res
	}
	res.Fingerprint = snap.Fingerprint.String()

	// Once a snapshot exists the cycle finishes its state update even if the
	// process is shutting down.
	storeCtx := context.WithoutCancel(ctx)

	previous, hasPrevious, err := w.store.Load(storeCtx)
	if err != nil {
		// An unreadable baseline is replaced by the fresh one below.
		log.Errorf("cannot load baseline, treating as first run: %v", err)
		metrics.ObserveStorageFailure()
		w.reporter.Report(err, "storage")
		res.Error = err.Error()
		hasPrevious = false
	}
	if hasPrevious {
		res.Previous = previous.String()
	}

	res.Outcome = detector.Decide(previous, hasPrevious, snap.Fingerprint)
	log.WithField("outcome", res.Outcome.String()).Infof("content fingerprint %s", snap.Fingerprint)

	if body, ok := w.message(res.Outcome, snap); ok {
		delivered := w.notify(ctx, body)
		metrics.ObserveNotification(delivered)
		res.Notified = delivered
		res.NotifyError = !delivered
		if !delivered {
			log.Error("notification failed; baseline will still be updated")
		}
	} else if res.Outcome == detector.NoBaseline {
		log.Info("first run, no previous fingerprint found")
	}

	if err := w.store.Save(storeCtx, snap.Fingerprint); err != nil {
		// The next cycle will compare against the old baseline again and may
		// announce the same change twice.
		log.Errorf("cannot persist baseline: %v", err)
		metrics.ObserveStorageFailure()
		w.reporter.Report(err, "storage")
		res.Error = err.Error()
		return res
	}
	res.Persisted = true
	return res
}

// capture fetches the target within the fetch deadline. Empty content is a failure.
func (w *Watcher) capture(ctx context.Context) (Snapshot, error) {
	if w.policy.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.policy.FetchTimeout)
		defer cancel()
	}

	content, err := w.source.Fetch(ctx, w.target)
	if err != nil {
		return Snapshot{}, err
	}
	if len(content) == 0 {
		return Snapshot{}, fmt.Errorf("%w: %s", source.ErrEmptyContent, w.target.URL)
	}
	return Snapshot{
		Fingerprint: fingerprint.Of(content),
		Content:     content,
		CapturedAt:  w.now(),
	}, nil
}

func (w *Watcher) notify(ctx context.Context, body string) bool {
	if w.policy.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.policy.NotifyTimeout)
		defer cancel()
	}
	return w.notifier.Notify(ctx, w.policy.Subject, body, w.target.Recipients)
}

func (w *Watcher) record(res Result) {
	metrics.ObserveCycle(res.Outcome.String(), res.Outcome != detector.FetchFailed, res.FinishedAt.Sub(res.StartedAt), res.FinishedAt)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = &res
}
