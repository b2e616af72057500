// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package builder holds the editable block tree of a page and the action
// layer on top of it: undo/redo history, clipboard, import/export and
// serialized saving.
package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// RootID is the id of the block every content tree hangs from.
const RootID = "root"

// RootType is the block type of the root block.
const RootType = "root"

var (
	ErrBlockNotFound  = errors.New("block not found")
	ErrDuplicateBlock = errors.New("block id already exists")
	ErrRootImmutable  = errors.New("the root block cannot be moved, removed or duplicated")
	ErrInvalidMove    = errors.New("a block cannot be moved into its own subtree")
	ErrInvalidContent = errors.New("invalid content")
)

// Block is one node of the content tree.
type Block struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Settings map[string]any `json:"settings"`
	Children []string       `json:"children"`
	ParentID string         `json:"parentId,omitempty"`
}

func (b *Block) clone() *Block {
	c := *b
	c.Settings = deepCopyMap(b.Settings)
	c.Children = slices.Clone(b.Children)
	if c.Children == nil {
		c.Children = []string{}
	}
	return &c
}

// Content is a block tree keyed by block id. The zero value is not usable;
// create one with NewContent or by decoding JSON.
type Content struct {
	blocks map[string]*Block
}

// newID returns a fresh block id. Replaced in tests.
var newID = func() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// NewContent returns a tree holding only the root block.
func NewContent() *Content {
	return &Content{blocks: map[string]*Block{RootID: newRoot()}}
}

func newRoot() *Block {
	return &Block{ID: RootID, Type: RootType, Settings: map[string]any{}, Children: []string{}}
}

// Len returns the number of blocks, root included.
func (c *Content) Len() int {
	return len(c.blocks)
}

// Get returns a copy of the block with the given id.
func (c *Content) Get(id string) (Block, bool) {
	b, ok := c.blocks[id]
	if !ok {
		return Block{}, false
	}
	return *b.clone(), true
}

// Clone returns a deep copy of the tree.
func (c *Content) Clone() *Content {
	out := &Content{blocks: make(map[string]*Block, len(c.blocks))}
	for id, b := range c.blocks {
		out.blocks[id] = b.clone()
	}
	return out
}

// Walk visits every block reachable from the root depth-first, parents
// before children, in child order. Returning an error stops the walk.
func (c *Content) Walk(fn func(b Block, depth int) error) error {
	var visit func(id string, depth int) error
	visit = func(id string, depth int) error {
		b, ok := c.blocks[id]
		if !ok {
			return nil
		}
		if err := fn(*b.clone(), depth); err != nil {
			return err
		}
		for _, child := range b.Children {
			if err := visit(child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return visit(RootID, 0)
}

// Add inserts b under parentID at index. An index out of range appends.
// A block without an id gets a fresh one; its children are ignored.
// Returns the id of the inserted block.
func (c *Content) Add(parentID string, b Block, index int) (string, error) {
	parent, ok := c.blocks[parentID]
	if !ok {
		return "", fmt.Errorf("parent %q: %w", parentID, ErrBlockNotFound)
	}
	if b.Type == "" {
		return "", fmt.Errorf("%w: block type is required", ErrInvalidContent)
	}
	if b.ID == "" {
		b.ID = c.freshID()
	} else if _, exists := c.blocks[b.ID]; exists {
		return "", fmt.Errorf("block %q: %w", b.ID, ErrDuplicateBlock)
	}

	nb := b.clone()
	nb.Children = []string{}
	nb.ParentID = parentID
	if nb.Settings == nil {
		nb.Settings = map[string]any{}
	}
	c.blocks[nb.ID] = nb
	parent.Children = insertAt(parent.Children, index, nb.ID)
	return nb.ID, nil
}

// UpdateSettings merges settings into the block's settings. Keys set to
// nil are removed.
func (c *Content) UpdateSettings(id string, settings map[string]any) error {
	b, ok := c.blocks[id]
	if !ok {
		return fmt.Errorf("block %q: %w", id, ErrBlockNotFound)
	}
	if b.Settings == nil {
		b.Settings = map[string]any{}
	}
	for k, v := range settings {
		if v == nil {
			delete(b.Settings, k)
			continue
		}
		b.Settings[k] = deepCopyValue(v)
	}
	return nil
}

// Move detaches a block and inserts it under newParentID at index.
func (c *Content) Move(id, newParentID string, index int) error {
	if id == RootID {
		return ErrRootImmutable
	}
	b, ok := c.blocks[id]
	if !ok {
		return fmt.Errorf("block %q: %w", id, ErrBlockNotFound)
	}
	target, ok := c.blocks[newParentID]
	if !ok {
		return fmt.Errorf("parent %q: %w", newParentID, ErrBlockNotFound)
	}
	if slices.Contains(c.subtree(id), newParentID) {
		return ErrInvalidMove
	}

	if old, ok := c.blocks[b.ParentID]; ok {
		old.Children = slices.DeleteFunc(old.Children, func(s string) bool { return s == id })
	}
	target.Children = insertAt(target.Children, index, id)
	b.ParentID = newParentID
	return nil
}

// Remove deletes a block together with its whole subtree.
func (c *Content) Remove(id string) error {
	if id == RootID {
		return ErrRootImmutable
	}
	b, ok := c.blocks[id]
	if !ok {
		return fmt.Errorf("block %q: %w", id, ErrBlockNotFound)
	}
	if parent, ok := c.blocks[b.ParentID]; ok {
		parent.Children = slices.DeleteFunc(parent.Children, func(s string) bool { return s == id })
	}
	for _, sid := range c.subtree(id) {
		delete(c.blocks, sid)
	}
	return nil
}

// Duplicate deep-copies a block's subtree with fresh ids and inserts the
// copy right after the source. Returns the id of the copy.
func (c *Content) Duplicate(id string) (string, error) {
	if id == RootID {
		return "", ErrRootImmutable
	}
	b, ok := c.blocks[id]
	if !ok {
		return "", fmt.Errorf("block %q: %w", id, ErrBlockNotFound)
	}
	parent, ok := c.blocks[b.ParentID]
	if !ok {
		return "", fmt.Errorf("parent of %q: %w", id, ErrBlockNotFound)
	}
	index := slices.Index(parent.Children, id) + 1
	return c.insertFragment(c.fragment(id), b.ParentID, index)
}

// Clear resets the tree to an empty root.
func (c *Content) Clear() {
	c.blocks = map[string]*Block{RootID: newRoot()}
}

// Set replaces the tree with a deep copy of other after validating it.
func (c *Content) Set(other *Content) error {
	next := other.Clone()
	if err := next.Validate(); err != nil {
		return err
	}
	c.blocks = next.blocks
	return nil
}

// MarshalJSON encodes the tree as an object keyed by block id.
func (c *Content) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.blocks)
}

// UnmarshalJSON decodes an object keyed by block id. The result is not
// validated; call Validate before trusting it.
func (c *Content) UnmarshalJSON(data []byte) error {
	var blocks map[string]*Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return err
	}
	for id, b := range blocks {
		if b == nil {
			return fmt.Errorf("%w: block %q is null", ErrInvalidContent, id)
		}
		if b.Children == nil {
			b.Children = []string{}
		}
		if b.Settings == nil {
			b.Settings = map[string]any{}
		}
	}
	c.blocks = blocks
	return nil
}

// subtree returns id and all of its descendants.
func (c *Content) subtree(id string) []string {
	out := []string{id}
	for i := 0; i < len(out); i++ {
		if b, ok := c.blocks[out[i]]; ok {
			out = append(out, b.Children...)
		}
	}
	return out
}

func (c *Content) freshID() string {
	for {
		id := newID()
		if _, taken := c.blocks[id]; !taken {
			return id
		}
	}
}

// insertAt inserts v at index, appending when index is out of range.
func insertAt(s []string, index int, v string) []string {
	if index < 0 || index > len(s) {
		return append(s, v)
	}
	return slices.Insert(s, index, v)
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

// ids returns the sorted block ids; used for stable error messages.
func (c *Content) ids() []string {
	return slices.Sorted(maps.Keys(c.blocks))
}
