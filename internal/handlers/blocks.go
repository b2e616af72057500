package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dndbuilder/internal/apperr"
	"dndbuilder/internal/registry"
	"dndbuilder/internal/respond"
)

// Blocks exposes the block registry to the editor.
type Blocks struct {
	reg *registry.Registry
}

// NewBlocks creates the registry handlers.
func NewBlocks(reg *registry.Registry) *Blocks {
	return &Blocks{reg: reg}
}

type blockGroup struct {
	Name   string                 `json:"name"`
	Blocks []registry.BlockConfig `json:"blocks"`
}

// List handles GET /blocks. Blocks are returned flat and grouped in the
// configured group order.
func (h *Blocks) List(w http.ResponseWriter, r *http.Request) {
	groups := []blockGroup{}
	for _, g := range h.reg.GroupsOrder() {
		if blocks := h.reg.BlocksByGroup(g); len(blocks) > 0 {
			groups = append(groups, blockGroup{Name: g, Blocks: blocks})
		}
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"blocks": h.reg.Blocks(),
		"groups": groups,
	})
}

// Get handles GET /blocks/{type}.
func (h *Blocks) Get(w http.ResponseWriter, r *http.Request) {
	blockType := chi.URLParam(r, "type")
	cfg, err := h.reg.Block(blockType)
	if err != nil {
		respond.Error(w, r, apperr.NotFound("Block type %q is not registered", blockType).Wrap(err))
		return
	}
	respond.JSON(w, http.StatusOK, cfg)
}

type breakpointView struct {
	registry.Breakpoint
	MediaQuery string `json:"mediaQuery"`
}

// Breakpoints handles GET /breakpoints.
func (h *Blocks) Breakpoints(w http.ResponseWriter, r *http.Request) {
	out := []breakpointView{}
	for _, bp := range h.reg.Breakpoints() {
		q, err := h.reg.MediaQuery(bp.Key)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		out = append(out, breakpointView{Breakpoint: bp, MediaQuery: q})
	}
	respond.JSON(w, http.StatusOK, out)
}
