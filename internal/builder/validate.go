package builder

import "fmt"

// Validate checks the structure of the tree: the root block exists, every
// child reference resolves, every block has exactly one parent and every
// block is reachable from the root. Parent ids are repaired from the child
// lists.
func (c *Content) Validate() error {
	if c.blocks == nil {
		return fmt.Errorf("%w: empty content", ErrInvalidContent)
	}
	root, ok := c.blocks[RootID]
	if !ok || root.ID == "" || root.Type == "" {
		return fmt.Errorf("%w: missing root block with id and type", ErrInvalidContent)
	}
	if root.ID != RootID {
		return fmt.Errorf("%w: root block id is %q", ErrInvalidContent, root.ID)
	}

	parents := make(map[string]string, len(c.blocks))
	for _, id := range c.ids() {
		b := c.blocks[id]
		if b.ID != id {
			return fmt.Errorf("%w: block stored under %q has id %q", ErrInvalidContent, id, b.ID)
		}
		if b.Type == "" {
			return fmt.Errorf("%w: block %q has no type", ErrInvalidContent, id)
		}
		for _, child := range b.Children {
			if _, ok := c.blocks[child]; !ok {
				return fmt.Errorf("%w: block %q references missing child %q", ErrInvalidContent, id, child)
			}
			if child == RootID {
				return fmt.Errorf("%w: root block cannot be a child", ErrInvalidContent)
			}
			if p, dup := parents[child]; dup {
				return fmt.Errorf("%w: block %q has two parents (%q, %q)", ErrInvalidContent, child, p, id)
			}
			parents[child] = id
		}
	}

	reached := c.subtree(RootID)
	if len(reached) != len(c.blocks) {
		return fmt.Errorf("%w: %d blocks are not reachable from the root", ErrInvalidContent, len(c.blocks)-len(reached))
	}

	root.ParentID = ""
	for child, parent := range parents {
		c.blocks[child].ParentID = parent
	}
	return nil
}

// ValidateTypes reports the first block whose type is not known.
func (c *Content) ValidateTypes(known func(blockType string) bool) error {
	for _, id := range c.ids() {
		if b := c.blocks[id]; !known(b.Type) {
			return fmt.Errorf("%w: block %q has unknown type %q", ErrInvalidContent, id, b.Type)
		}
	}
	return nil
}
