// Package daemon runs the orchestrator: one cycle over the queue every poll
// interval, under the project's single-instance lock, publishing a status
// snapshot after each cycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/classify"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/cooldown"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/db"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/history"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/lockfile"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/logging"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/project"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/status"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/telemetry"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/tracker"
	"github.com/WoDeep/copilot-coding-agent-orchestrator/internal/workflow"
)

// MaxErrors is how many recent cycle errors the snapshot keeps.
const MaxErrors = 10

// probeMaxElapsed bounds the startup connectivity check.
const probeMaxElapsed = 30 * time.Second

// Store is the durable state the daemon needs. *db.DB implements it.
type Store interface {
	cooldown.Store
	tracker.Store
	history.Store
	SaveItem(ctx context.Context, rec db.ItemRecord) error
	LoadItems(ctx context.Context) (map[string]db.ItemRecord, error)
}

// Prober checks that the code host is reachable with the configured credentials.
type Prober interface {
	Probe(ctx context.Context) error
}

// Options are the daemon's collaborators.
type Options struct {
	Store   Store
	Source  workflow.Source
	Agent   workflow.AgentControl
	Prober  Prober
	Metrics *telemetry.Metrics
	// Out receives the terse per-action lines. Defaults to io.Discard.
	Out io.Writer
	// SleepSlice is the granularity at which the idle wait checks for
	// shutdown. Defaults to one second.
	SleepSlice time.Duration
	// ProbeBackoff returns the retry policy of the startup probe.
	ProbeBackoff func() backoff.BackOff
}

// Daemon owns the queue items and the per-cycle bookkeeping.
type Daemon struct {
	proj     *project.Project
	store    Store
	prober   Prober
	metrics  *telemetry.Metrics
	engine   *workflow.Engine
	cooldown *cooldown.Controller
	tracker  *tracker.Tracker
	history  *history.Recorder
	writer   *status.Writer
	out      io.Writer

	slice        time.Duration
	probeBackoff func() backoff.BackOff
	nowFunc      func() time.Time

	running    atomic.Bool
	queueDirty atomic.Bool

	// Owned by the cycle goroutine.
	items   []*workflow.QueueItem
	records map[string]db.ItemRecord
	errors  []string

	snapMu sync.Mutex
	last   *status.Snapshot
}

// New creates a daemon for proj. The project's config supplies the queue
// and the engine settings; it is re-read when the config file changes.
func New(proj *project.Project, opts Options) *Daemon {
	cfg := proj.Config
	d := &Daemon{
		proj:         proj,
		store:        opts.Store,
		prober:       opts.Prober,
		metrics:      opts.Metrics,
		out:          opts.Out,
		slice:        opts.SleepSlice,
		probeBackoff: opts.ProbeBackoff,
		nowFunc:      time.Now,
		writer:       status.NewWriter(proj.StatusPath()),
	}
	if d.out == nil {
		d.out = io.Discard
	}
	if d.slice <= 0 {
		d.slice = time.Second
	}
	if d.probeBackoff == nil {
		d.probeBackoff = func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = probeMaxElapsed
			return bo
		}
	}

	d.cooldown = cooldown.New(opts.Store, cfg.Automation.GetCooldown())
	d.tracker = tracker.New(opts.Store)
	d.history = history.New(opts.Store)
	d.engine = workflow.NewEngine(opts.Source, opts.Agent, d.cooldown, d.tracker, d.history, EngineConfig(cfg))
	return d
}

// EngineConfig maps the project config onto the workflow engine settings.
func EngineConfig(cfg *project.Config) workflow.Config {
	return workflow.Config{
		AutoAssign:      cfg.Automation.ShouldAutoAssign(),
		AutoMerge:       cfg.Automation.ShouldAutoMerge(),
		SkipFinalReview: cfg.Automation.SkipFinalReview,
		MergeMethod:     cfg.Automation.GetMergeMethod(),
		TargetBranch:    cfg.GitHub.GetTargetBranch(),
		Instructions:    cfg.Agent.Instructions,
		Classify: classify.Options{
			GracePeriod:     cfg.Automation.GetGracePeriod(),
			SuggestionsOnly: cfg.Automation.SuggestionsOnly,
		},
	}
}

// SetNowFunc sets the clock of the daemon and everything it drives.
// This is primarily for testing purposes.
func (d *Daemon) SetNowFunc(f func() time.Time) {
	d.nowFunc = f
	d.engine.SetNowFunc(f)
	d.cooldown.SetNowFunc(f)
	d.tracker.SetNowFunc(f)
	d.history.SetNowFunc(f)
	d.writer.SetNowFunc(f)
}

// Items returns the current queue items in order.
func (d *Daemon) Items() []*workflow.QueueItem {
	return d.items
}

// MarkQueueDirty makes the next cycle re-read the config before scanning.
func (d *Daemon) MarkQueueDirty() {
	d.queueDirty.Store(true)
}

// Running reports whether the run loop is active.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Stop asks the run loop to exit after the current cycle or sleep slice.
func (d *Daemon) Stop() {
	d.running.Store(false)
}

// Run holds the project lock and runs cycles until ctx is cancelled or Stop
// is called. Startup failures are returned before any cycle runs and leave a
// stopped snapshot carrying the error.
func (d *Daemon) Run(ctx context.Context) error {
	lock, err := lockfile.Acquire(d.proj.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logging.Warn("failed to release daemon lock", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := d.start(ctx); err != nil {
		d.publishStopped(fmt.Sprintf("Startup failed: %v", err), err)
		return err
	}

	d.running.Store(true)
	defer d.running.Store(false)

	cfg := d.proj.Config
	logging.Info("daemon started",
		"pid", os.Getpid(),
		"repo", cfg.GitHub.RepoSlug(),
		"poll_interval", cfg.Automation.GetPollInterval(),
		"cooldown", d.cooldown.Duration(),
		"items", len(cfg.Queue.Items))
	d.printf("Daemon started (pid %d, repo %s, poll %s, cooldown %s)",
		os.Getpid(), cfg.GitHub.RepoSlug(), cfg.Automation.GetPollInterval(), d.cooldown.Duration())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := project.WatchFile(gctx, d.proj.ConfigPath(), project.DefaultDebounce, d.MarkQueueDirty); err != nil {
			logging.Warn("config watcher stopped, queue edits need a restart", "error", err)
		}
		return nil
	})
	if addr := cfg.Status.Addr; addr != "" {
		g.Go(func() error {
			if err := status.Serve(gctx, addr, status.NewHandler(d.Snapshot)); err != nil {
				logging.Warn("status endpoint stopped", "addr", addr, "error", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		defer cancel()
		d.loop(gctx)
		return nil
	})
	err = g.Wait()

	d.printf("Daemon stopped")
	logging.Info("daemon stopped")
	d.publishStopped("Daemon stopped", nil)
	return err
}

// RunOnce runs a single cycle in the foreground under the project lock.
func (d *Daemon) RunOnce(ctx context.Context) error {
	lock, err := lockfile.Acquire(d.proj.LockPath())
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	if err := d.start(ctx); err != nil {
		return err
	}
	return d.RunCycle(ctx)
}

// start validates the config, probes the code host and loads stored item state.
func (d *Daemon) start(ctx context.Context) error {
	if d.proj.Config.GitHub.RepoSlug() == "" {
		return errors.New("github.owner and github.repo must be set in config.toml")
	}
	if err := d.probe(ctx); err != nil {
		return fmt.Errorf("failed to reach GitHub: %w", err)
	}
	return d.restore(ctx)
}

func (d *Daemon) probe(ctx context.Context) error {
	if d.prober == nil {
		return nil
	}
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := d.prober.Probe(ctx)
		if err != nil {
			logging.Warn("startup probe failed", "attempt", attempt, "error", err)
		}
		return err
	}, backoff.WithContext(d.probeBackoff(), ctx))
}

func (d *Daemon) restore(ctx context.Context) error {
	if d.records != nil {
		return nil
	}
	recs, err := d.store.LoadItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to load item state: %w", err)
	}
	d.records = recs
	logging.Debug("restored item state", "items", len(recs))
	return nil
}

func (d *Daemon) loop(ctx context.Context) {
	for d.running.Load() && ctx.Err() == nil {
		if err := d.RunCycle(ctx); err != nil {
			logging.Error("cycle failed", "error", err)
			d.printf("Cycle failed: %v", err)
			d.recordError("", "", err)
		}
		d.sleep(ctx, d.proj.Config.Automation.GetPollInterval())
	}
}

// sleep waits for dur in slices, returning early on Stop or cancellation.
func (d *Daemon) sleep(ctx context.Context, dur time.Duration) {
	for remaining := dur; remaining > 0 && d.running.Load(); remaining -= d.slice {
		step := min(d.slice, remaining)
		select {
		case <-ctx.Done():
			return
		case <-time.After(step):
		}
	}
}

// RunCycle steps every queue item once, in queue order. An item that fails
// is logged and its error kept for the snapshot; the scan goes on.
func (d *Daemon) RunCycle(ctx context.Context) error {
	began := time.Now()
	if err := d.restore(ctx); err != nil {
		return err
	}
	d.syncQueue()

	cycleID := uuid.NewString()
	log := logging.With("cycle", cycleID)
	log.Debug("cycle started", "items", len(d.items))

	cycle := &workflow.Cycle{Items: d.items}
	actions := []string{}
	for _, item := range d.items {
		if ctx.Err() != nil {
			break
		}
		out, err := d.engine.Step(ctx, item, cycle)
		for i, msg := range out.Messages {
			line := fmt.Sprintf("[%s] %s", item.ID, msg)
			actions = append(actions, line)
			d.printf("%s", line)
			if i < len(out.Rules) {
				d.metrics.RecordAction(ctx, out.Rules[i], string(item.State))
			}
		}
		if err != nil {
			log.Error("item failed", "item", item.ID, "state", item.State, "issue", item.IssueNumber, "pr", item.PRNumber, "error", err)
			d.printf("[%s] Error: %v", item.ID, err)
			d.recordError(item.ID, item.State, err)
			d.metrics.RecordError(ctx, string(item.State))
		}
		rec := item.Record()
		if prev, ok := d.records[item.ID]; ok && prev == rec {
			continue
		}
		if err := d.store.SaveItem(ctx, rec); err != nil {
			log.Error("failed to save item state", "item", item.ID, "error", err)
			d.recordError(item.ID, item.State, err)
			continue
		}
		d.records[item.ID] = rec
	}

	snap := d.buildSnapshot(ctx, cycleID, actions)
	d.publish(snap)
	d.metrics.RecordCycle(ctx, time.Since(began))
	log.Debug("cycle finished", "actions", len(actions), "duration", time.Since(began))
	return nil
}

// syncQueue reloads the config if it changed and lines the items up with the
// configured queue order. New items pick up their stored state.
func (d *Daemon) syncQueue() {
	if d.queueDirty.Swap(false) {
		if err := d.proj.Reload(); err != nil {
			logging.Warn("config reload failed, keeping previous config", "error", err)
			d.printf("Config reload failed: %v", err)
		} else {
			cfg := d.proj.Config
			d.engine.SetConfig(EngineConfig(cfg))
			d.cooldown.SetDuration(cfg.Automation.GetCooldown())
			logging.Info("config reloaded", "items", len(cfg.Queue.Items))
			d.printf("Config reloaded (%d items)", len(cfg.Queue.Items))
		}
	}

	q := d.proj.Config.Queue
	existing := make(map[string]*workflow.QueueItem, len(d.items))
	for _, it := range d.items {
		existing[it.ID] = it
	}

	items := make([]*workflow.QueueItem, 0, len(q.Items))
	seen := make(map[string]bool, len(q.Items))
	for _, id := range q.Items {
		if seen[id] {
			logging.Warn("duplicate queue item ignored", "item", id)
			continue
		}
		seen[id] = true
		if it, ok := existing[id]; ok {
			items = append(items, it)
			continue
		}
		it := workflow.NewQueueItem(id, q.IssueNumber(id))
		if rec, ok := d.records[id]; ok {
			if err := it.Restore(rec); err != nil {
				logging.Warn("ignoring stored item state", "item", id, "error", err)
			}
		}
		if it.IssueTitle == "" {
			it.IssueTitle = q.Title(id)
		}
		items = append(items, it)
	}
	d.items = items
}

func (d *Daemon) recordError(itemID string, state workflow.State, err error) {
	msg := fmt.Sprintf("%s %v", d.nowFunc().UTC().Format(time.RFC3339), err)
	if itemID != "" {
		msg = fmt.Sprintf("%s [%s/%s] %v", d.nowFunc().UTC().Format(time.RFC3339), itemID, state, err)
	}
	d.errors = append(d.errors, msg)
	if len(d.errors) > MaxErrors {
		d.errors = d.errors[len(d.errors)-MaxErrors:]
	}
}

func (d *Daemon) buildSnapshot(ctx context.Context, cycleID string, actions []string) *status.Snapshot {
	now := d.nowFunc()
	snap := &status.Snapshot{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		CycleID:    cycleID,
		LastCycle:  &now,
		Actions:    actions,
		Errors:     append([]string{}, d.errors...),
		Message:    fmt.Sprintf("Cycle complete: %d items, %d actions", len(d.items), len(actions)),
		ItemStates: make(map[string]status.ItemState, len(d.items)),
	}

	if st, err := d.cooldown.Status(ctx); err != nil {
		logging.Warn("failed to read cooldown for status", "error", err)
	} else {
		snap.Cooldown = status.Cooldown{CanAssign: st.CanAssign, MinutesRemaining: st.MinutesRemaining}
		if st.LastCompletion != nil {
			snap.Cooldown.LastCompletion = &status.Completion{
				ItemID:      st.LastCompletion.ItemID,
				CompletedAt: st.LastCompletion.CompletedAt,
			}
		}
	}

	for _, it := range d.items {
		snap.QueueStatus.Total++
		switch {
		case it.State == workflow.StateQueued:
			snap.QueueStatus.Queued++
		case it.State.IsTerminal():
			snap.QueueStatus.Completed++
		default:
			snap.QueueStatus.InProgress++
		}

		is := status.ItemState{
			State:       string(it.State),
			IssueNumber: it.IssueNumber,
			PRNumber:    it.PRNumber,
			IssueTitle:  it.IssueTitle,
			LastAction:  it.LastAction,
		}
		if !it.LastActionTime.IsZero() {
			t := it.LastActionTime
			is.LastActionTime = &t
		}
		if it.PRNumber != 0 {
			done, err := d.tracker.IsDone(ctx, it.PRNumber)
			if err != nil {
				logging.Warn("failed to read loop breaker for status", "item", it.ID, "error", err)
			}
			is.ReviewDone = done
		}
		entries, err := d.history.Get(ctx, it.ID)
		if err != nil {
			logging.Warn("failed to read history for status", "item", it.ID, "error", err)
		}
		is.WorkflowHistory = entries
		snap.ItemStates[it.ID] = is
	}

	tracked, err := d.tracker.Tracked(ctx)
	if err != nil {
		logging.Warn("failed to list loop breakers for status", "error", err)
	}
	snap.ReviewTracker.TrackedPRs = tracked
	if snap.ReviewTracker.TrackedPRs == nil {
		snap.ReviewTracker.TrackedPRs = []int{}
	}
	return snap
}

func (d *Daemon) publish(snap *status.Snapshot) {
	if err := d.writer.Write(snap); err != nil {
		logging.Error("failed to write status snapshot", "path", d.writer.Path(), "error", err)
	}
	d.snapMu.Lock()
	d.last = snap
	d.snapMu.Unlock()
}

// publishStopped records that the daemon is not running, keeping the last
// cycle's item view.
func (d *Daemon) publishStopped(message string, cause error) {
	d.snapMu.Lock()
	var snap status.Snapshot
	if d.last != nil {
		snap = *d.last
	}
	d.snapMu.Unlock()

	snap.Running = false
	snap.PID = os.Getpid()
	snap.Message = message
	if cause != nil {
		snap.Errors = append(append([]string{}, snap.Errors...), cause.Error())
	}
	d.publish(&snap)
}

// Snapshot returns the last published snapshot.
func (d *Daemon) Snapshot() (*status.Snapshot, error) {
	d.snapMu.Lock()
	defer d.snapMu.Unlock()
	if d.last == nil {
		return &status.Snapshot{Running: d.running.Load(), PID: os.Getpid(), Message: "No cycle completed yet"}, nil
	}
	cp := *d.last
	cp.Running = d.running.Load()
	return &cp, nil
}

func (d *Daemon) printf(format string, args ...any) {
	fmt.Fprintf(d.out, "[%s] %s\n", d.nowFunc().Format("15:04:05"), fmt.Sprintf(format, args...))
}
