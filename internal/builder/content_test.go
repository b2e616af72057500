package builder

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// seqIDs makes newID deterministic for the duration of a test.
func seqIDs(t *testing.T) {
	t.Helper()
	n := 0
	old := newID
	newID = func() string {
		n++
		return fmt.Sprintf("b%d", n)
	}
	t.Cleanup(func() { newID = old })
}

func children(t *testing.T, c *Content, id string) []string {
	t.Helper()
	b, ok := c.Get(id)
	if !ok {
		t.Fatalf("block %q missing", id)
	}
	return b.Children
}

func TestNewContent(t *testing.T) {
	c := NewContent()
	if c.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", c.Len())
	}
	root, ok := c.Get(RootID)
	if !ok || root.Type != RootType {
		t.Fatalf("root: %+v", root)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestAdd(t *testing.T) {
	seqIDs(t)
	c := NewContent()

	a, err := c.Add(RootID, Block{Type: "heading"}, -1)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	b, _ := c.Add(RootID, Block{Type: "text"}, -1)
	first, _ := c.Add(RootID, Block{Type: "image"}, 0)
	named, err := c.Add(a, Block{ID: "custom", Type: "button", Settings: map[string]any{"label": "Go"}}, 99)
	if err != nil {
		t.Fatalf("Add custom id: %v", err)
	}

	if diff := cmp.Diff([]string{first, a, b}, children(t, c, RootID)); diff != "" {
		t.Errorf("root children (-want +got):\n%s", diff)
	}
	if named != "custom" {
		t.Errorf("custom id: got %q", named)
	}
	got, _ := c.Get("custom")
	if got.ParentID != a || got.Settings["label"] != "Go" {
		t.Errorf("custom block: %+v", got)
	}

	if _, err := c.Add("missing", Block{Type: "text"}, 0); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("missing parent: %v", err)
	}
	if _, err := c.Add(RootID, Block{ID: "custom", Type: "text"}, 0); !errors.Is(err, ErrDuplicateBlock) {
		t.Errorf("duplicate id: %v", err)
	}
	if _, err := c.Add(RootID, Block{}, 0); !errors.Is(err, ErrInvalidContent) {
		t.Errorf("missing type: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestUpdateSettingsMerges(t *testing.T) {
	c := NewContent()
	id, _ := c.Add(RootID, Block{Type: "text", Settings: map[string]any{"a": 1.0, "b": "x"}}, -1)

	if err := c.UpdateSettings(id, map[string]any{"b": "y", "c": true, "a": nil}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	got, _ := c.Get(id)
	want := map[string]any{"b": "y", "c": true}
	if diff := cmp.Diff(want, got.Settings); diff != "" {
		t.Errorf("settings (-want +got):\n%s", diff)
	}

	if err := c.UpdateSettings("nope", nil); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("missing block: %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	c := NewContent()
	id, _ := c.Add(RootID, Block{Type: "text", Settings: map[string]any{"nested": map[string]any{"k": "v"}}}, -1)

	b, _ := c.Get(id)
	b.Settings["nested"].(map[string]any)["k"] = "changed"

	again, _ := c.Get(id)
	if again.Settings["nested"].(map[string]any)["k"] != "v" {
		t.Error("Get must not expose internal state")
	}
}

func TestMove(t *testing.T) {
	seqIDs(t)
	c := NewContent()
	box, _ := c.Add(RootID, Block{Type: "container"}, -1)
	inner, _ := c.Add(box, Block{Type: "container"}, -1)
	txt, _ := c.Add(RootID, Block{Type: "text"}, -1)

	if err := c.Move(txt, inner, 0); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if diff := cmp.Diff([]string{box}, children(t, c, RootID)); diff != "" {
		t.Errorf("root children (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{txt}, children(t, c, inner)); diff != "" {
		t.Errorf("inner children (-want +got):\n%s", diff)
	}

	if err := c.Move(box, inner, 0); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("move into own subtree: %v", err)
	}
	if err := c.Move(box, box, 0); !errors.Is(err, ErrInvalidMove) {
		t.Errorf("move into itself: %v", err)
	}
	if err := c.Move(RootID, box, 0); !errors.Is(err, ErrRootImmutable) {
		t.Errorf("move root: %v", err)
	}
	if err := c.Move(txt, "missing", 0); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("missing target: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestMoveWithinSameParent(t *testing.T) {
	seqIDs(t)
	c := NewContent()
	a, _ := c.Add(RootID, Block{Type: "text"}, -1)
	b, _ := c.Add(RootID, Block{Type: "text"}, -1)
	d, _ := c.Add(RootID, Block{Type: "text"}, -1)

	if err := c.Move(d, RootID, 0); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if diff := cmp.Diff([]string{d, a, b}, children(t, c, RootID)); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}

func TestRemoveSubtree(t *testing.T) {
	c := NewContent()
	box, _ := c.Add(RootID, Block{Type: "container"}, -1)
	c.Add(box, Block{Type: "text"}, -1)
	c.Add(box, Block{Type: "image"}, -1)
	keep, _ := c.Add(RootID, Block{Type: "text"}, -1)

	if err := c.Remove(box); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len: got %d, want 2", c.Len())
	}
	if diff := cmp.Diff([]string{keep}, children(t, c, RootID)); diff != "" {
		t.Errorf("root children (-want +got):\n%s", diff)
	}
	if err := c.Remove(RootID); !errors.Is(err, ErrRootImmutable) {
		t.Errorf("remove root: %v", err)
	}
	if err := c.Remove(box); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("remove twice: %v", err)
	}
}

func TestDuplicate(t *testing.T) {
	seqIDs(t)
	c := NewContent()
	box, _ := c.Add(RootID, Block{Type: "container", Settings: map[string]any{"gap": 8.0}}, -1)
	c.Add(box, Block{Type: "text", Settings: map[string]any{"content": "hi"}}, -1)
	last, _ := c.Add(RootID, Block{Type: "text"}, -1)

	dup, err := c.Duplicate(box)
	if err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if diff := cmp.Diff([]string{box, dup, last}, children(t, c, RootID)); diff != "" {
		t.Errorf("root children (-want +got):\n%s", diff)
	}
	if c.Len() != 6 {
		t.Errorf("Len: got %d, want 6", c.Len())
	}

	copyBlock, _ := c.Get(dup)
	if copyBlock.Settings["gap"] != 8.0 || len(copyBlock.Children) != 1 {
		t.Fatalf("copy: %+v", copyBlock)
	}
	child, _ := c.Get(copyBlock.Children[0])
	if child.ParentID != dup || child.Settings["content"] != "hi" {
		t.Errorf("copied child: %+v", child)
	}
	if child.ID == children(t, c, box)[0] {
		t.Error("copied child must get a fresh id")
	}

	if _, err := c.Duplicate(RootID); !errors.Is(err, ErrRootImmutable) {
		t.Errorf("duplicate root: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestClearAndSet(t *testing.T) {
	c := NewContent()
	c.Add(RootID, Block{Type: "text"}, -1)

	other := c.Clone()
	c.Clear()
	if c.Len() != 1 || len(children(t, c, RootID)) != 0 {
		t.Fatalf("Clear left %d blocks", c.Len())
	}

	if err := c.Set(other); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("Len after Set: got %d", c.Len())
	}

	bad := &Content{blocks: map[string]*Block{"x": {ID: "x", Type: "text"}}}
	if err := c.Set(bad); !errors.Is(err, ErrInvalidContent) {
		t.Errorf("Set invalid: %v", err)
	}
	if c.Len() != 2 {
		t.Error("failed Set must leave content unchanged")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		json string
		ok   bool
	}{
		{"root only", `{"root":{"id":"root","type":"root"}}`, true},
		{"tree", `{"root":{"id":"root","type":"root","children":["a"]},"a":{"id":"a","type":"text"}}`, true},
		{"missing root", `{"a":{"id":"a","type":"text"}}`, false},
		{"root without type", `{"root":{"id":"root"}}`, false},
		{"root without id", `{"root":{"type":"root"}}`, false},
		{"key mismatch", `{"root":{"id":"root","type":"root","children":["a"]},"a":{"id":"b","type":"text"}}`, false},
		{"missing child", `{"root":{"id":"root","type":"root","children":["a"]}}`, false},
		{"orphan", `{"root":{"id":"root","type":"root"},"a":{"id":"a","type":"text"}}`, false},
		{"two parents", `{"root":{"id":"root","type":"root","children":["a","b"]},"a":{"id":"a","type":"box","children":["b"]},"b":{"id":"b","type":"text"}}`, false},
		{"cycle", `{"root":{"id":"root","type":"root"},"a":{"id":"a","type":"box","children":["b"]},"b":{"id":"b","type":"box","children":["a"]}}`, false},
		{"root as child", `{"root":{"id":"root","type":"root","children":["a"]},"a":{"id":"a","type":"box","children":["root"]}}`, false},
		{"block without type", `{"root":{"id":"root","type":"root","children":["a"]},"a":{"id":"a"}}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Content
			if err := json.Unmarshal([]byte(tt.json), &c); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			err := c.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidContent) {
				t.Errorf("expected ErrInvalidContent, got %v", err)
			}
		})
	}
}

func TestValidateRepairsParentIDs(t *testing.T) {
	var c Content
	raw := `{"root":{"id":"root","type":"root","children":["a"]},"a":{"id":"a","type":"box","children":["b"]},"b":{"id":"b","type":"text"}}`
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	b, _ := c.Get("b")
	if b.ParentID != "a" {
		t.Errorf("parent of b: got %q, want a", b.ParentID)
	}
}

func TestValidateTypes(t *testing.T) {
	c := NewContent()
	c.Add(RootID, Block{Type: "marquee"}, -1)

	known := func(s string) bool { return s == RootType || s == "text" }
	if err := c.ValidateTypes(known); !errors.Is(err, ErrInvalidContent) {
		t.Errorf("expected unknown type error, got %v", err)
	}
}

func TestWalkOrder(t *testing.T) {
	seqIDs(t)
	c := NewContent()
	box, _ := c.Add(RootID, Block{Type: "container"}, -1)
	inner, _ := c.Add(box, Block{Type: "text"}, -1)
	tail, _ := c.Add(RootID, Block{Type: "image"}, -1)

	var order []string
	var depths []int
	c.Walk(func(b Block, depth int) error {
		order = append(order, b.ID)
		depths = append(depths, depth)
		return nil
	})
	if diff := cmp.Diff([]string{RootID, box, inner, tail}, order); diff != "" {
		t.Errorf("walk order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 1}, depths); diff != "" {
		t.Errorf("depths (-want +got):\n%s", diff)
	}
}
