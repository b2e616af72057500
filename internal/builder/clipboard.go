package builder

import "fmt"

// fragment is a detached copy of a subtree, as held by the clipboard.
type fragment struct {
	rootID string
	blocks map[string]*Block
}

// fragment copies the subtree rooted at id.
func (c *Content) fragment(id string) *fragment {
	f := &fragment{rootID: id, blocks: map[string]*Block{}}
	for _, sid := range c.subtree(id) {
		f.blocks[sid] = c.blocks[sid].clone()
	}
	return f
}

// insertFragment adds a copy of f with fresh ids under parentID at index
// and returns the new id of the fragment root.
func (c *Content) insertFragment(f *fragment, parentID string, index int) (string, error) {
	parent, ok := c.blocks[parentID]
	if !ok {
		return "", fmt.Errorf("parent %q: %w", parentID, ErrBlockNotFound)
	}

	renamed := make(map[string]string, len(f.blocks))
	for old := range f.blocks {
		id := c.freshID()
		for taken(renamed, id) {
			id = c.freshID()
		}
		renamed[old] = id
	}

	for old, b := range f.blocks {
		nb := b.clone()
		nb.ID = renamed[old]
		for i, child := range nb.Children {
			nb.Children[i] = renamed[child]
		}
		c.blocks[nb.ID] = nb
	}
	for old, b := range f.blocks {
		for _, child := range b.Children {
			c.blocks[renamed[child]].ParentID = renamed[old]
		}
	}

	newRoot := renamed[f.rootID]
	c.blocks[newRoot].ParentID = parentID
	parent.Children = insertAt(parent.Children, index, newRoot)
	return newRoot, nil
}

func taken(renamed map[string]string, id string) bool {
	for _, v := range renamed {
		if v == id {
			return true
		}
	}
	return false
}
