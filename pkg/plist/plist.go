// Package plist provides an ordered, duplicate-free container used by the
// matching and booking layers to hold sessions and tutors.
package plist

import "fmt"

// List keeps items in insertion order, rejecting zero values and silently
// ignoring duplicates. For pointer element types the zero value is nil, so
// nil entries can never enter a List.
type List[T comparable] struct {
	items []T
}

// New returns an empty list.
func New[T comparable]() *List[T] {
	return &List[T]{}
}

// NewFrom builds a list from a defensive copy of the given items. Zero values
// and duplicates in the input are skipped.
func NewFrom[T comparable](items []T) *List[T] {
	l := New[T]()
	for _, item := range items {
		_ = l.Add(item)
	}
	return l
}

// Add appends the item unless an equal one is already present.
func (l *List[T]) Add(item T) error {
	var zero T
	if item == zero {
		return fmt.Errorf("plist: cannot add zero item")
	}
	if l.indexOf(item) >= 0 {
		return nil
	}
	l.items = append(l.items, item)
	return nil
}

// Remove deletes the first item equal to the argument, if any.
func (l *List[T]) Remove(item T) error {
	var zero T
	if item == zero {
		return fmt.Errorf("plist: cannot remove zero item")
	}
	if i := l.indexOf(item); i >= 0 {
		l.items = append(l.items[:i], l.items[i+1:]...)
	}
	return nil
}

// Get returns the item at the given position.
func (l *List[T]) Get(i int) (T, error) {
	var zero T
	if i < 0 || i >= len(l.items) {
		return zero, fmt.Errorf("plist: index %d out of range [0,%d)", i, len(l.items))
	}
	return l.items[i], nil
}

// Contains reports whether an equal item is present.
func (l *List[T]) Contains(item T) bool {
	return l.indexOf(item) >= 0
}

// Items returns a copy of the contents; mutating it does not affect the list.
func (l *List[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of stored items.
func (l *List[T]) Len() int {
	return len(l.items)
}

// IsEmpty reports whether the list holds no items.
func (l *List[T]) IsEmpty() bool {
	return len(l.items) == 0
}

func (l *List[T]) indexOf(item T) int {
	for i, existing := range l.items {
		if existing == item {
			return i
		}
	}
	return -1
}
