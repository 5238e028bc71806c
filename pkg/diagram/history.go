package diagram

import "github.com/ha1tch/flowcanvas/pkg/geom"

// MaxUndoLevels bounds the undo stack.
const MaxUndoLevels = 50

// Command is a reversible edit of the store.
type Command interface {
	Name() string
	Apply(s *Store)
	Revert(s *Store)
}

// BoundsChange records one element's bounds before and after a gesture.
type BoundsChange struct {
	ID     string
	Before geom.Rect
	After  geom.Rect
}

// BoundsCommand covers move, resize and group resize gestures.
type BoundsCommand struct {
	Label   string
	Changes []BoundsChange
}

func (c *BoundsCommand) Name() string { return c.Label }

func (c *BoundsCommand) Apply(s *Store) {
	m := make(map[string]geom.Rect, len(c.Changes))
	for _, ch := range c.Changes {
		m[ch.ID] = ch.After
	}
	s.ApplyBounds(m)
}

func (c *BoundsCommand) Revert(s *Store) {
	m := make(map[string]geom.Rect, len(c.Changes))
	for _, ch := range c.Changes {
		m[ch.ID] = ch.Before
	}
	s.ApplyBounds(m)
}

// Changed reports whether any element actually moved or resized.
func (c *BoundsCommand) Changed() bool {
	for _, ch := range c.Changes {
		if ch.Before != ch.After {
			return true
		}
	}
	return false
}

// ConnectCommand appends an outgoing connection to its owner.
type ConnectCommand struct {
	OwnerID    string
	Connection Connection
}

func (c *ConnectCommand) Name() string { return "connect" }

func (c *ConnectCommand) Apply(s *Store) {
	s.Mutate(c.OwnerID, func(e *Element) {
		e.Connections = append(e.Connections, c.Connection)
	})
}

func (c *ConnectCommand) Revert(s *Store) {
	s.Mutate(c.OwnerID, func(e *Element) {
		for i := len(e.Connections) - 1; i >= 0; i-- {
			if e.Connections[i] == c.Connection {
				e.Connections = append(e.Connections[:i], e.Connections[i+1:]...)
				return
			}
		}
	})
}

// TextCommand records a text edit together with any auto-grow resize.
type TextCommand struct {
	ID           string
	Before       string
	After        string
	BeforeBounds geom.Rect
	AfterBounds  geom.Rect
}

func (c *TextCommand) Name() string { return "edit text" }

func (c *TextCommand) Apply(s *Store) {
	s.Mutate(c.ID, func(e *Element) {
		e.Text = c.After
		e.SetBounds(c.AfterBounds)
	})
}

func (c *TextCommand) Revert(s *Store) {
	s.Mutate(c.ID, func(e *Element) {
		e.Text = c.Before
		e.SetBounds(c.BeforeBounds)
	})
}

// AddCommand inserts a new element.
type AddCommand struct {
	Element *Element
	Index   int
}

func (c *AddCommand) Name() string { return "add " + c.Element.Shape.String() }

func (c *AddCommand) Apply(s *Store) {
	s.Insert(c.Index, c.Element.Clone())
}

func (c *AddCommand) Revert(s *Store) {
	s.Remove(c.Element.ID)
}

// RemoveCommand deletes an element along with the arrows pointing at it.
type RemoveCommand struct {
	Element  *Element
	Index    int
	Incoming []Incoming
}

// NewRemoveCommand captures everything needed to restore id.
// Returns nil if id is not in the store.
func NewRemoveCommand(s *Store, id string) *RemoveCommand {
	i := s.Index(id)
	if i < 0 {
		return nil
	}
	return &RemoveCommand{
		Element:  s.Find(id).Clone(),
		Index:    i,
		Incoming: s.IncomingTo(id),
	}
}

func (c *RemoveCommand) Name() string { return "delete " + c.Element.Shape.String() }

func (c *RemoveCommand) Apply(s *Store) {
	s.DetachIncoming(c.Element.ID)
	s.Remove(c.Element.ID)
}

func (c *RemoveCommand) Revert(s *Store) {
	s.Insert(c.Index, c.Element.Clone())
	s.RestoreIncoming(c.Incoming)
}

// BatchCommand groups commands that undo and redo as one step, such as a
// multi-element paste.
type BatchCommand struct {
	Label    string
	Commands []Command
}

func (c *BatchCommand) Name() string { return c.Label }

func (c *BatchCommand) Apply(s *Store) {
	for _, cmd := range c.Commands {
		cmd.Apply(s)
	}
}

func (c *BatchCommand) Revert(s *Store) {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		c.Commands[i].Revert(s)
	}
}

// History is the undo/redo stack. Commands pushed here have already been
// applied to the store.
type History struct {
	undo  []Command
	redo  []Command
	limit int
}

// NewHistory creates an empty history with MaxUndoLevels of undo.
func NewHistory() *History {
	return &History{limit: MaxUndoLevels}
}

// Push records an applied command and clears the redo stack.
func (h *History) Push(cmd Command) {
	h.undo = append(h.undo, cmd)
	if len(h.undo) > h.limit {
		h.undo = h.undo[1:]
	}
	h.redo = nil
}

// Do applies cmd to s and records it.
func (h *History) Do(s *Store, cmd Command) {
	cmd.Apply(s)
	h.Push(cmd)
}

// Undo reverts the most recent command.
func (h *History) Undo(s *Store) (Command, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	cmd := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	cmd.Revert(s)
	h.redo = append(h.redo, cmd)
	return cmd, true
}

// Redo re-applies the most recently undone command.
func (h *History) Redo(s *Store) (Command, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	cmd := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	cmd.Apply(s)
	h.undo = append(h.undo, cmd)
	return cmd, true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
