package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hyprmon/hyprmon/internal/config"
	"github.com/hyprmon/hyprmon/internal/hyprctl"
	"github.com/hyprmon/hyprmon/internal/layout"
)

// EnumerateFunc returns the currently attached monitors.
type EnumerateFunc func(ctx context.Context) ([]hyprctl.PhysicalMonitor, error)

// ApplyFunc applies one monitor configuration directive.
type ApplyFunc func(ctx context.Context, directive string) error

// NotifyFunc delivers a best-effort user-visible summary.
type NotifyFunc func(summary string)

// SubscribeFunc opens the hotplug event stream.
type SubscribeFunc func(ctx context.Context) (<-chan hyprctl.Event, error)

// ErrEventStreamClosed is returned by Run when the event socket closes; the
// stream is not reconnected automatically.
var ErrEventStreamClosed = errors.New("event stream closed")

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	ConfigPath   string
	PollInterval time.Duration
	Logger       *slog.Logger
	Enumerate    EnumerateFunc
	Apply        ApplyFunc
	Notify       NotifyFunc
	Subscribe    SubscribeFunc
}

// Reconciler drives the build-graph, resolve-layout, apply pipeline. Every
// pipeline invocation holds a single mutex for its full duration, so no two
// passes ever interleave their apply stages.
type Reconciler struct {
	configPath   string
	pollInterval time.Duration
	logger       *slog.Logger
	enumerate    EnumerateFunc
	apply        ApplyFunc
	notify       NotifyFunc
	subscribe    SubscribeFunc

	// passMu serializes whole pipeline invocations.
	passMu sync.Mutex
	// inFlight tracks passes dispatched off the loop goroutine.
	inFlight sync.WaitGroup
}

// NewReconciler creates a reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		configPath:   cfg.ConfigPath,
		pollInterval: interval,
		logger:       logger,
		enumerate:    cfg.Enumerate,
		apply:        cfg.Apply,
		notify:       cfg.Notify,
		subscribe:    cfg.Subscribe,
	}
}

// ApplyOnce runs a single reconciliation pass. Errors are returned to the
// caller; at startup they are fatal, inside the loop they are logged.
func (r *Reconciler) ApplyOnce(ctx context.Context) error {
	return r.runPass(ctx)
}

// Run watches for triggers until ctx is cancelled: a 1-second poll of the
// config file's mtime, and, when hook is set, the hotplug event stream.
// Returns nil on cancellation and ErrEventStreamClosed when the event socket
// drops.
func (r *Reconciler) Run(ctx context.Context, hook bool) error {
	defer r.inFlight.Wait()

	var events <-chan hyprctl.Event
	if hook {
		var err error
		events, err = r.subscribe(ctx)
		if err != nil {
			return fmt.Errorf("subscribe to events: %w", err)
		}
	}

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	// Baseline mtime. A failed stat leaves the baseline zero so the first
	// successful stat establishes it without triggering a pass.
	var lastModTime time.Time
	if info, err := os.Stat(r.configPath); err == nil {
		lastModTime = info.ModTime()
	}

	r.logger.Debug("reconciler watching", "path", r.configPath, "interval", r.pollInterval, "hook", hook)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			info, err := os.Stat(r.configPath)
			if err != nil {
				// Transient: keep the baseline so the next successful
				// stat can still detect a real change.
				continue
			}
			if lastModTime.IsZero() {
				lastModTime = info.ModTime()
				continue
			}
			if !info.ModTime().Equal(lastModTime) {
				lastModTime = info.ModTime()
				r.logger.Info("config file changed, re-applying configuration", "path", r.configPath)
				r.dispatch(ctx)
			}

		case ev, ok := <-events:
			if !ok {
				// Cancellation makes the subscriber close the channel, so
				// a shutdown can surface here instead of on ctx.Done().
				if ctx.Err() != nil {
					return nil
				}
				return ErrEventStreamClosed
			}
			if isMonitorChange(ev.Kind) {
				r.logger.Debug("monitor hotplug event", "event", ev.Kind)
				r.dispatch(ctx)
			}
		}
	}
}

// dispatch runs a pass off the loop goroutine so polling and event reading
// never stall behind the blocking hyprctl calls. The pass itself serializes
// on passMu. It runs detached from ctx cancellation: apply calls are not
// safe to interrupt mid-monitor, so an in-flight pass is allowed to finish.
func (r *Reconciler) dispatch(ctx context.Context) {
	passCtx := context.WithoutCancel(ctx)
	r.inFlight.Add(1)
	go func() {
		defer r.inFlight.Done()
		if err := r.runPass(passCtx); err != nil {
			r.logger.Error("failed to re-apply configuration", "error", err)
		}
	}()
}

// runPass executes one full pipeline: load config, enumerate, build graph,
// resolve layout, apply per monitor, notify.
func (r *Reconciler) runPass(ctx context.Context) error {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	cfg, err := config.Load(r.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	physical, err := r.enumerate(ctx)
	if err != nil {
		return fmt.Errorf("enumerate monitors: %w", err)
	}

	monitors, err := layout.BuildGraph(cfg.Monitors, physical, r.logger)
	if err != nil {
		return err
	}
	if err := layout.Resolve(monitors, r.logger); err != nil {
		return err
	}

	// One monitor failing to apply never blocks its siblings.
	applied := make([]string, 0, len(monitors))
	for _, decl := range cfg.Monitors {
		m, ok := monitors[decl.Name]
		if !ok {
			continue
		}
		if err := r.apply(ctx, m.Directive()); err != nil {
			r.logger.Debug("failed to apply monitor configuration", "monitor", m.Name, "error", err)
		}
		applied = append(applied, m.Name)
	}

	if len(applied) > 0 && r.notify != nil {
		r.notify("Applied configuration for monitors: " + strings.Join(applied, ", "))
	}
	return nil
}

// isMonitorChange reports whether an event kind indicates a hotplug change.
// Substring match, mirroring how hyprland names the v1/v2 event variants.
func isMonitorChange(kind string) bool {
	return strings.Contains(kind, "monitoradded") || strings.Contains(kind, "monitorremoved")
}
