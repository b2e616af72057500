// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package builder

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultHistoryLimit is how many undo steps are kept by default.
const DefaultHistoryLimit = 100

// ErrClipboardEmpty is returned by Paste when nothing was copied.
var ErrClipboardEmpty = errors.New("clipboard is empty")

// Actions wraps a content tree with undo/redo history, a clipboard and
// serialized saving. It is safe for concurrent use.
type Actions struct {
	mu        sync.Mutex
	content   *Content
	undo      []*Content
	redo      []*Content
	limit     int
	clipboard *fragment

	saveMu sync.Mutex
	saving atomic.Int32
	saver  Saver
}

// ActionsOption configures Actions.
type ActionsOption func(*Actions)

// WithHistoryLimit caps the undo history. Values below 1 are ignored.
func WithHistoryLimit(n int) ActionsOption {
	return func(a *Actions) {
		if n > 0 {
			a.limit = n
		}
	}
}

// WithSaver sets the persistence target used by Save.
func WithSaver(s Saver) ActionsOption {
	return func(a *Actions) { a.saver = s }
}

// NewActions starts an editing session over a copy of c. A nil c starts
// from an empty tree.
func NewActions(c *Content, opts ...ActionsOption) *Actions {
	if c == nil {
		c = NewContent()
	}
	a := &Actions{content: c.Clone(), limit: DefaultHistoryLimit}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Content returns a snapshot of the current tree.
func (a *Actions) Content() *Content {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.content.Clone()
}

// apply runs fn against a working copy. On success the previous state is
// pushed onto the undo stack and the redo stack is cleared; on failure the
// tree is left untouched.
func (a *Actions) apply(fn func(c *Content) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.content.Clone()
	if err := fn(next); err != nil {
		return err
	}
	a.undo = append(a.undo, a.content)
	if len(a.undo) > a.limit {
		a.undo = a.undo[len(a.undo)-a.limit:]
	}
	a.redo = nil
	a.content = next
	return nil
}

// Add inserts a block. See Content.Add.
func (a *Actions) Add(parentID string, b Block, index int) (string, error) {
	var id string
	err := a.apply(func(c *Content) error {
		var err error
		id, err = c.Add(parentID, b, index)
		return err
	})
	return id, err
}

// UpdateSettings merges block settings. See Content.UpdateSettings.
func (a *Actions) UpdateSettings(id string, settings map[string]any) error {
	return a.apply(func(c *Content) error { return c.UpdateSettings(id, settings) })
}

// Move reparents a block. See Content.Move.
func (a *Actions) Move(id, newParentID string, index int) error {
	return a.apply(func(c *Content) error { return c.Move(id, newParentID, index) })
}

// Remove deletes a block and its subtree.
func (a *Actions) Remove(id string) error {
	return a.apply(func(c *Content) error { return c.Remove(id) })
}

// Duplicate copies a block next to itself and returns the copy's id.
func (a *Actions) Duplicate(id string) (string, error) {
	var dup string
	err := a.apply(func(c *Content) error {
		var err error
		dup, err = c.Duplicate(id)
		return err
	})
	return dup, err
}

// Clear empties the tree.
func (a *Actions) Clear() {
	_ = a.apply(func(c *Content) error {
		c.Clear()
		return nil
	})
}

// Set replaces the whole tree.
func (a *Actions) Set(content *Content) error {
	return a.apply(func(c *Content) error { return c.Set(content) })
}

// Undo restores the state before the last action. Returns false when there
// is nothing to undo.
func (a *Actions) Undo() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.undo) == 0 {
		return false
	}
	prev := a.undo[len(a.undo)-1]
	a.undo = a.undo[:len(a.undo)-1]
	a.redo = append(a.redo, a.content)
	a.content = prev
	return true
}

// Redo reapplies the last undone action. Returns false when there is
// nothing to redo.
func (a *Actions) Redo() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.redo) == 0 {
		return false
	}
	next := a.redo[len(a.redo)-1]
	a.redo = a.redo[:len(a.redo)-1]
	a.undo = append(a.undo, a.content)
	a.content = next
	return true
}

// CanUndo reports whether Undo would change anything.
func (a *Actions) CanUndo() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.undo) > 0
}

// CanRedo reports whether Redo would change anything.
func (a *Actions) CanRedo() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.redo) > 0
}

// Copy puts a copy of the block's subtree on the clipboard. Copying does
// not touch the history.
func (a *Actions) Copy(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.content.blocks[id]; !ok {
		return fmt.Errorf("block %q: %w", id, ErrBlockNotFound)
	}
	if id == RootID {
		return ErrRootImmutable
	}
	a.clipboard = a.content.fragment(id)
	return nil
}

// HasClipboard reports whether Paste has something to insert.
func (a *Actions) HasClipboard() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.clipboard != nil
}

// Paste inserts a fresh copy of the clipboard as the last child of
// parentID and returns its id. The clipboard is kept for further pastes.
func (a *Actions) Paste(parentID string) (string, error) {
	a.mu.Lock()
	clip := a.clipboard
	a.mu.Unlock()
	if clip == nil {
		return "", ErrClipboardEmpty
	}

	var id string
	err := a.apply(func(c *Content) error {
		var err error
		id, err = c.insertFragment(clip, parentID, -1)
		return err
	})
	return id, err
}
