// Package mount waits for the host page to finish its own setup, places the
// export trigger on it and runs an export for every click.
package mount

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

const (
	DefaultInterval = 500 * time.Millisecond

	IdleLabel = "Download EB history"
	BusyLabel = "Downloading, please wait, this is slow..."
)

// labelResetTimeout bounds the idle label reset after a run. The reset does not
// inherit ctx's cancellation, so a page that stopped answering would otherwise
// hold Serve forever.
var labelResetTimeout = time.Second

// Document is the page the trigger is mounted on.
type Document interface {
	// Ready reports whether the marker element is present.
	Ready(ctx context.Context) (bool, error)
	// Mount inserts a container holding a trigger labeled label as the first
	// child of the marker element.
	Mount(ctx context.Context, label string) (Trigger, error)
}

// Trigger is the mounted control.
type Trigger interface {
	Clicks() <-chan struct{}
	SetLabel(ctx context.Context, label string) error
}

type Watcher struct {
	doc      Document
	interval time.Duration
	logger   *log.Logger
}

func New(doc Document, interval time.Duration, logger *log.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Watcher{doc: doc, interval: interval, logger: logger}
}

// Wait polls until the marker shows up, then mounts the trigger once. There is
// no retry cap; the wait ends only with ctx.
func (w *Watcher) Wait(ctx context.Context) (Trigger, error) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	attempts := 0
	for {
		attempts++
		ready, err := w.doc.Ready(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			w.logger.Debug("marker check failed", "err", err, "attempt", attempts)
		}
		if ready {
			w.logger.Info("profile page ready", "attempts", attempts)
			trigger, err := w.doc.Mount(ctx, IdleLabel)
			if err != nil {
				return nil, fmt.Errorf("failed to mount trigger: %w", err)
			}
			return trigger, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Serve runs run for every click until ctx ends. The trigger shows BusyLabel
// while run is in flight and always returns to IdleLabel, whatever run
// returned. Clicks received during a run are dropped.
func Serve(ctx context.Context, trigger Trigger, logger *log.Logger, run func(context.Context) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-trigger.Clicks():
			if !ok {
				return nil
			}
			handleClick(ctx, trigger, logger, run)
			drain(trigger.Clicks())
		}
	}
}

func handleClick(ctx context.Context, trigger Trigger, logger *log.Logger, run func(context.Context) error) {
	if err := trigger.SetLabel(ctx, BusyLabel); err != nil {
		logger.Warn("failed to set busy label", "err", err)
	}
	defer func() {
		// The label must come back even when ctx ended mid-export.
		resetCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), labelResetTimeout)
		defer cancel()
		if err := trigger.SetLabel(resetCtx, IdleLabel); err != nil {
			logger.Warn("failed to reset label", "err", err)
		}
	}()

	start := time.Now()
	if err := run(ctx); err != nil {
		logger.Error("export failed", "err", err, "elapsed", time.Since(start))
		return
	}
	logger.Debug("export finished", "elapsed", time.Since(start))
}

func drain(clicks <-chan struct{}) {
	for {
		select {
		case _, ok := <-clicks:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
