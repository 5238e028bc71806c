package diagram

import (
	"sort"

	"github.com/ha1tch/flowcanvas/pkg/geom"
)

// ChangeKind classifies a store notification.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeRemoved
	ChangeUpdated
)

// Change is delivered to subscribers once per store operation. A batch
// update reports every touched id in one Change.
type Change struct {
	Kind ChangeKind
	IDs  []string
}

// Store is the ordered, mutable collection of diagram elements. It is not
// safe for concurrent use; the host mutates it from its event loop only.
type Store struct {
	elements  []*Element
	listeners []func(Change)
}

// NewStore creates a store holding elements in the given order.
func NewStore(elements ...*Element) *Store {
	s := &Store{}
	s.elements = append(s.elements, elements...)
	return s
}

// Subscribe registers fn to be called after every change.
func (s *Store) Subscribe(fn func(Change)) {
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify(kind ChangeKind, ids ...string) {
	if len(ids) == 0 {
		return
	}
	ch := Change{Kind: kind, IDs: ids}
	for _, fn := range s.listeners {
		fn(ch)
	}
}

// All returns the elements in insertion order. The slice is a copy; the
// elements are shared.
func (s *Store) All() []*Element {
	out := make([]*Element, len(s.elements))
	copy(out, s.elements)
	return out
}

// Len returns the number of elements.
func (s *Store) Len() int {
	return len(s.elements)
}

// Index returns the position of id, or -1 if not found.
func (s *Store) Index(id string) int {
	for i, e := range s.elements {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the element with id, or nil.
func (s *Store) Find(id string) *Element {
	if i := s.Index(id); i >= 0 {
		return s.elements[i]
	}
	return nil
}

// Add appends e on top of the stacking order.
func (s *Store) Add(e *Element) {
	s.Insert(len(s.elements), e)
}

// Insert places e at position i (clamped to the valid range).
func (s *Store) Insert(i int, e *Element) {
	if i < 0 {
		i = 0
	}
	if i > len(s.elements) {
		i = len(s.elements)
	}
	if e.ZIndex == 0 {
		e.ZIndex = s.maxZ() + 1
	}
	s.elements = append(s.elements, nil)
	copy(s.elements[i+1:], s.elements[i:])
	s.elements[i] = e
	s.notify(ChangeAdded, e.ID)
}

// Remove deletes the element with id and returns it with its former index.
// Connections from other elements to it are left in place as dangling
// references.
func (s *Store) Remove(id string) (*Element, int) {
	i := s.Index(id)
	if i < 0 {
		return nil, -1
	}
	e := s.elements[i]
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
	s.notify(ChangeRemoved, id)
	return e, i
}

// Mutate runs fn on the element with id and notifies subscribers.
// Returns false if the element does not exist.
func (s *Store) Mutate(id string, fn func(*Element)) bool {
	e := s.Find(id)
	if e == nil {
		return false
	}
	fn(e)
	s.notify(ChangeUpdated, id)
	return true
}

// ApplyBounds sets the bounds of several elements as one batch with a single
// notification. Unknown ids are skipped.
func (s *Store) ApplyBounds(bounds map[string]geom.Rect) {
	ids := make([]string, 0, len(bounds))
	for _, e := range s.elements {
		if r, ok := bounds[e.ID]; ok {
			e.SetBounds(r)
			ids = append(ids, e.ID)
		}
	}
	s.notify(ChangeUpdated, ids...)
}

// Selected returns the selected elements in order.
func (s *Store) Selected() []*Element {
	var out []*Element
	for _, e := range s.elements {
		if e.Selected {
			out = append(out, e)
		}
	}
	return out
}

// SelectOnly clears the selection and selects the given ids.
func (s *Store) SelectOnly(ids ...string) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, e := range s.elements {
		e.Selected = want[e.ID]
	}
}

// ByZ returns the elements sorted bottom-to-top by z-index.
func (s *Store) ByZ() []*Element {
	out := s.All()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

// HitTest returns the topmost element containing p, or nil.
func (s *Store) HitTest(p geom.Point) *Element {
	z := s.ByZ()
	for i := len(z) - 1; i >= 0; i-- {
		if z[i].Bounds().Contains(p) {
			return z[i]
		}
	}
	return nil
}

// Incoming is a connection pointing at some element, identified by its owner.
type Incoming struct {
	OwnerID    string
	Index      int
	Connection Connection
}

// IncomingTo lists every connection whose target is id.
func (s *Store) IncomingTo(id string) []Incoming {
	var out []Incoming
	for _, e := range s.elements {
		for i, c := range e.Connections {
			if c.TargetID == id {
				out = append(out, Incoming{OwnerID: e.ID, Index: i, Connection: c})
			}
		}
	}
	return out
}

// DetachIncoming removes every connection targeting id and returns them,
// in an order RestoreIncoming can replay.
func (s *Store) DetachIncoming(id string) []Incoming {
	in := s.IncomingTo(id)
	// Remove from the highest index down so earlier indices stay valid.
	for i := len(in) - 1; i >= 0; i-- {
		ref := in[i]
		owner := s.Find(ref.OwnerID)
		owner.Connections = append(owner.Connections[:ref.Index], owner.Connections[ref.Index+1:]...)
	}
	owners := make([]string, 0, len(in))
	for _, ref := range in {
		owners = append(owners, ref.OwnerID)
	}
	s.notify(ChangeUpdated, owners...)
	return in
}

// RestoreIncoming re-inserts connections previously returned by DetachIncoming.
func (s *Store) RestoreIncoming(in []Incoming) {
	ids := make([]string, 0, len(in))
	for _, ref := range in {
		owner := s.Find(ref.OwnerID)
		if owner == nil {
			continue
		}
		i := ref.Index
		if i > len(owner.Connections) {
			i = len(owner.Connections)
		}
		owner.Connections = append(owner.Connections, Connection{})
		copy(owner.Connections[i+1:], owner.Connections[i:])
		owner.Connections[i] = ref.Connection
		ids = append(ids, owner.ID)
	}
	s.notify(ChangeUpdated, ids...)
}

// CanConnect reports whether a new arrow from tail to head respects both
// shapes' arrow rules. Self-connections are refused.
func (s *Store) CanConnect(tailID, headID string) bool {
	tail, head := s.Find(tailID), s.Find(headID)
	if tail == nil || head == nil || tailID == headID {
		return false
	}
	if !tail.Shape.Capabilities().Outgoing.Allows(len(tail.Connections) + 1) {
		return false
	}
	return head.Shape.Capabilities().Incoming.Allows(len(s.IncomingTo(headID)) + 1)
}

func (s *Store) maxZ() int {
	z := 0
	for _, e := range s.elements {
		if e.ZIndex > z {
			z = e.ZIndex
		}
	}
	return z
}
