package collection

import (
	"github.com/google/uuid"
)

// Store is the client-side ordered list of one collection. It never talks
// to the network; every mutation returns a fresh copy of the new sequence.
type Store[T Item[T]] struct {
	items []T
}

func NewStore[T Item[T]](items []T) *Store[T] {
	return &Store[T]{items: clone(items)}
}

func clone[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}

func (s *Store[T]) Items() []T {
	return clone(s.items)
}

func (s *Store[T]) Len() int {
	return len(s.items)
}

func (s *Store[T]) Get(id uuid.UUID) (T, bool) {
	for _, it := range s.items {
		if it.ItemID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Set overwrites the whole sequence, e.g. after a refetch.
func (s *Store[T]) Set(items []T) []T {
	s.items = clone(items)
	return s.Items()
}

// Insert appends item with order_index equal to the current length.
func (s *Store[T]) Insert(item T) []T {
	s.items = append(clone(s.items), item.WithOrderIndex(len(s.items)))
	return s.Items()
}

// Remove drops the item with id. Remaining order indexes are left as is.
func (s *Store[T]) Remove(id uuid.UUID) []T {
	next := make([]T, 0, len(s.items))
	for _, it := range s.items {
		if it.ItemID() != id {
			next = append(next, it)
		}
	}
	s.items = next
	return s.Items()
}

// Reorder takes a permutation of the current items and assigns
// order_index = position to every item. Anything that is not a permutation
// leaves the store untouched.
func (s *Store[T]) Reorder(seq []T) ([]T, error) {
	if !s.isPermutation(seq) {
		return nil, ErrNotPermutation
	}
	next := make([]T, len(seq))
	for i, it := range seq {
		next[i] = it.WithOrderIndex(i)
	}
	s.items = next
	return s.Items(), nil
}

// Move is the drag gesture: the item at from lands at to, everything in
// between shifts by one.
func (s *Store[T]) Move(from, to int) ([]T, error) {
	if from < 0 || from >= len(s.items) || to < 0 || to >= len(s.items) {
		return nil, ErrUnknownItem
	}
	seq := clone(s.items)
	moved := seq[from]
	seq = append(seq[:from], seq[from+1:]...)
	seq = append(seq[:to], append([]T{moved}, seq[to:]...)...)
	return s.Reorder(seq)
}

// Replace substitutes the item with id in place. Position and order_index
// are kept.
func (s *Store[T]) Replace(id uuid.UUID, updated T) ([]T, error) {
	for i, it := range s.items {
		if it.ItemID() == id {
			next := clone(s.items)
			next[i] = updated.WithOrderIndex(it.OrderIndex())
			s.items = next
			return s.Items(), nil
		}
	}
	return nil, ErrUnknownItem
}

// Compact renumbers order indexes to 0..n-1 keeping the current sequence.
func (s *Store[T]) Compact() []T {
	next := make([]T, len(s.items))
	for i, it := range s.items {
		next[i] = it.WithOrderIndex(i)
	}
	s.items = next
	return s.Items()
}

func (s *Store[T]) isPermutation(seq []T) bool {
	if len(seq) != len(s.items) {
		return false
	}
	want := make(map[uuid.UUID]int, len(s.items))
	for _, it := range s.items {
		want[it.ItemID()]++
	}
	for _, it := range seq {
		id := it.ItemID()
		if want[id] == 0 {
			return false
		}
		want[id]--
	}
	return true
}
