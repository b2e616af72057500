// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package registry maps block types to their editor configuration: label,
// icon, group, default settings, style generator and editing controls. It
// also holds the responsive breakpoints used when rendering styles.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	ErrDuplicateBlock      = errors.New("block type already registered")
	ErrUnknownBlock        = errors.New("block type is not registered")
	ErrDuplicateBreakpoint = errors.New("breakpoint already registered")
	ErrUnknownBreakpoint   = errors.New("breakpoint is not registered")
)

// Control is one editing panel shown for a block in the editor.
type Control struct {
	Label     string `json:"label"`
	Component string `json:"component"`
}

// BlockConfig describes a block type.
type BlockConfig struct {
	Type     string         `json:"type"`
	Label    string         `json:"label"`
	Icon     string         `json:"icon"`
	Group    string         `json:"group"`
	Settings map[string]any `json:"settings"`
	Style    StyleFunc      `json:"-"`
	Controls []Control      `json:"controls"`
}

// Breakpoint is a named viewport width range.
type Breakpoint struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	MinWidth int    `json:"minWidth"`
	MaxWidth int    `json:"maxWidth"`
}

// Registry holds block and breakpoint configurations. It is safe for
// concurrent use.
type Registry struct {
	mu          sync.RWMutex
	blocks      map[string]BlockConfig
	order       []string
	groupOrder  []string
	breakpoints map[string]Breakpoint
	bpOrder     []string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		blocks:      map[string]BlockConfig{},
		breakpoints: map[string]Breakpoint{},
	}
}

// Register adds block configurations. It fails on the first type that is
// already registered; configurations before it stay registered.
func (r *Registry) Register(cfgs ...BlockConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cfg := range cfgs {
		if cfg.Type == "" {
			return fmt.Errorf("register block: empty type")
		}
		if _, ok := r.blocks[cfg.Type]; ok {
			return fmt.Errorf("block type %q: %w", cfg.Type, ErrDuplicateBlock)
		}
		if cfg.Settings == nil {
			cfg.Settings = map[string]any{}
		}
		r.blocks[cfg.Type] = cfg
		r.order = append(r.order, cfg.Type)
	}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(cfgs ...BlockConfig) *Registry {
	if err := r.Register(cfgs...); err != nil {
		panic(err)
	}
	return r
}

// Block returns the configuration of a block type.
func (r *Registry) Block(blockType string) (BlockConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.blocks[blockType]
	if !ok {
		return BlockConfig{}, fmt.Errorf("block type %q: %w", blockType, ErrUnknownBlock)
	}
	return cfg, nil
}

// MustBlock is like Block but panics when the type is unknown.
func (r *Registry) MustBlock(blockType string) BlockConfig {
	cfg, err := r.Block(blockType)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Has reports whether a block type is registered.
func (r *Registry) Has(blockType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.blocks[blockType]
	return ok
}

// Blocks returns all configurations in registration order.
func (r *Registry) Blocks() []BlockConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]BlockConfig, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.blocks[t])
	}
	return out
}

// Types returns the registered block types in registration order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// BlocksByGroup returns the configurations belonging to group.
func (r *Registry) BlocksByGroup(group string) []BlockConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []BlockConfig
	for _, t := range r.order {
		if cfg := r.blocks[t]; cfg.Group == group {
			out = append(out, cfg)
		}
	}
	return out
}

// SetGroupsOrder sets the order in which groups are listed in the editor.
func (r *Registry) SetGroupsOrder(groups ...string) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groupOrder = slices.Clone(groups)
	return r
}

// GroupsOrder returns the configured group order.
func (r *Registry) GroupsOrder() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.groupOrder)
}

// GroupOrder returns the position of group in the group order, or -1.
func (r *Registry) GroupOrder(group string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Index(r.groupOrder, group)
}

// RegisterBreakpoint adds breakpoints. It fails on the first duplicate key.
func (r *Registry) RegisterBreakpoint(bps ...Breakpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, bp := range bps {
		if _, ok := r.breakpoints[bp.Key]; ok {
			return fmt.Errorf("breakpoint %q: %w", bp.Key, ErrDuplicateBreakpoint)
		}
		r.breakpoints[bp.Key] = bp
		r.bpOrder = append(r.bpOrder, bp.Key)
	}
	return nil
}

// Breakpoint returns the breakpoint with the given key.
func (r *Registry) Breakpoint(key string) (Breakpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bp, ok := r.breakpoints[key]
	if !ok {
		return Breakpoint{}, fmt.Errorf("breakpoint %q: %w", key, ErrUnknownBreakpoint)
	}
	return bp, nil
}

// Breakpoints returns all breakpoints in registration order.
func (r *Registry) Breakpoints() []Breakpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Breakpoint, 0, len(r.bpOrder))
	for _, k := range r.bpOrder {
		out = append(out, r.breakpoints[k])
	}
	return out
}

// MediaQuery returns the CSS media query matching a breakpoint.
func (r *Registry) MediaQuery(key string) (string, error) {
	bp, err := r.Breakpoint(key)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("@media (max-width: %dpx) and (min-width: %dpx)", bp.MaxWidth, bp.MinWidth), nil
}
