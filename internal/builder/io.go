package builder

import (
	"encoding/json"
	"fmt"
	"io"
)

// Export writes the current tree as indented JSON.
func (a *Actions) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.Content()); err != nil {
		return fmt.Errorf("export content: %w", err)
	}
	return nil
}

// Import replaces the tree with JSON read from r. Content without a root
// block carrying an id and a type is rejected with ErrInvalidContent.
// Import can be undone.
func (a *Actions) Import(r io.Reader) error {
	c, err := Decode(r)
	if err != nil {
		return err
	}
	return a.apply(func(cur *Content) error {
		cur.blocks = c.blocks
		return nil
	})
}

// Decode reads and validates a tree from JSON.
func Decode(r io.Reader) (*Content, error) {
	var c Content
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContent, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
