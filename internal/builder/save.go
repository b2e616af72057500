package builder

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSaver is returned by Save when no Saver was configured.
var ErrNoSaver = errors.New("no saver configured")

// Saver persists a content tree.
type Saver interface {
	SaveContent(ctx context.Context, c *Content) error
}

// SaverFunc adapts a function to the Saver interface.
type SaverFunc func(ctx context.Context, c *Content) error

// SaveContent calls f.
func (f SaverFunc) SaveContent(ctx context.Context, c *Content) error {
	return f(ctx, c)
}

// Save persists the current tree. Concurrent calls run one at a time and
// each one snapshots the tree when its turn comes, so the last save to
// complete holds the newest state.
func (a *Actions) Save(ctx context.Context) error {
	if a.saver == nil {
		return ErrNoSaver
	}
	a.saving.Add(1)
	defer a.saving.Add(-1)

	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.saver.SaveContent(ctx, a.Content()); err != nil {
		return fmt.Errorf("save content: %w", err)
	}
	return nil
}

// IsSaving reports whether a save is queued or in flight.
func (a *Actions) IsSaving() bool {
	return a.saving.Load() > 0
}
