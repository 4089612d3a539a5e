package app

import (
	"context"
	"fmt"

	"github.com/ayusman/airpaint/internal/canvas"
	"github.com/ayusman/airpaint/internal/server/api"
	"github.com/ayusman/airpaint/internal/store"
)

type commandKind int

const (
	cmdClear commandKind = iota
	cmdSnapshot
	cmdRestore
)

type command struct {
	kind  commandKind
	snap  *store.Snapshot
	reply chan commandResult
}

type commandResult struct {
	snap *store.Snapshot
	err  error
}

var _ api.Controller = (*App)(nil)

// Clear wipes the canvas on the next frame.
func (a *App) Clear(ctx context.Context) error {
	_, err := a.send(ctx, command{kind: cmdClear})
	return err
}

// SaveSnapshot copies the canvas on the next frame and stores it.
func (a *App) SaveSnapshot(ctx context.Context) (*store.Snapshot, error) {
	if a.deps.Store == nil {
		return nil, ErrNoStore
	}
	snap, err := a.send(ctx, command{kind: cmdSnapshot})
	if err != nil {
		return nil, err
	}
	return a.save(snap)
}

// Restore replaces the canvas with snap on the next frame. The snapshot
// must match the canvas size.
func (a *App) Restore(ctx context.Context, snap *store.Snapshot) error {
	if snap.Width != a.config.Width || snap.Height != a.config.Height {
		return fmt.Errorf("restore %dx%d onto %dx%d: %w",
			snap.Width, snap.Height, a.config.Width, a.config.Height, canvas.ErrSizeMismatch)
	}
	_, err := a.send(ctx, command{kind: cmdRestore, snap: snap})
	return err
}

// start marks the loop running. It fails if Run is already active.
func (a *App) start() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.done != nil {
		return false
	}
	a.done = make(chan struct{})
	return true
}

// stop wakes callers waiting on the loop, then fails queued commands.
func (a *App) stop() {
	a.mu.Lock()
	close(a.done)
	a.done = nil
	a.mu.Unlock()
	a.drainCommands()
}

func (a *App) loopDone() chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

// send queues cmd for the loop and waits for the result. It fails with
// api.ErrUnavailable as soon as the loop is not running.
func (a *App) send(ctx context.Context, cmd command) (*store.Snapshot, error) {
	done := a.loopDone()
	if done == nil {
		return nil, api.ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, CommandTimeout)
	defer cancel()

	cmd.reply = make(chan commandResult, 1)
	select {
	case a.commands <- cmd:
	case <-done:
		return nil, api.ErrUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res.snap, res.err
	case <-done:
		// The loop may have answered just before stopping.
		select {
		case res := <-cmd.reply:
			return res.snap, res.err
		default:
			return nil, api.ErrUnavailable
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// applyCommands runs queued commands on the loop goroutine.
func (a *App) applyCommands() {
	for {
		select {
		case cmd := <-a.commands:
			cmd.reply <- a.apply(cmd)
		default:
			return
		}
	}
}

func (a *App) apply(cmd command) commandResult {
	switch cmd.kind {
	case cmdClear:
		a.painter.Clear()
		a.log.Info().Msg("Canvas cleared remotely")
		return commandResult{}
	case cmdSnapshot:
		return commandResult{snap: a.snapshot()}
	case cmdRestore:
		if err := a.painter.Restore(cmd.snap.Data); err != nil {
			return commandResult{err: err}
		}
		a.log.Info().Str("id", cmd.snap.ID).Msg("Snapshot restored")
		return commandResult{snap: cmd.snap}
	}
	return commandResult{err: fmt.Errorf("unknown command %d", cmd.kind)}
}

// drainCommands fails whatever is still queued when the loop stops.
func (a *App) drainCommands() {
	for {
		select {
		case cmd := <-a.commands:
			cmd.reply <- commandResult{err: api.ErrUnavailable}
		default:
			return
		}
	}
}

// snapshot copies the canvas. Loop goroutine only.
func (a *App) snapshot() *store.Snapshot {
	data, swatch := a.painter.Snapshot()
	return &store.Snapshot{
		Width:  a.config.Width,
		Height: a.config.Height,
		Color:  swatch,
		Data:   data,
	}
}

// save persists a snapshot copied by the loop.
func (a *App) save(snap *store.Snapshot) (*store.Snapshot, error) {
	if a.deps.Store == nil {
		return nil, ErrNoStore
	}
	if err := a.deps.Store.Snapshots().Create(snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}
