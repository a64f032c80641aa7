// Package observable provides an ordered list that reports structural changes
// and a field-change notifier for the items it holds.
package observable

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrIndexOutOfRange is returned by positional operations given a bad index.
var ErrIndexOutOfRange = errors.New("observable: index out of range")

// Action identifies the kind of structural change reported by a List.
type Action int

const (
	ActionAdd     Action = iota // items inserted at NewIndex
	ActionRemove                // items removed from OldIndex
	ActionReplace               // OldItems at OldIndex replaced by NewItems
	ActionMove                  // one item moved from OldIndex to NewIndex
	ActionReset                 // contents replaced wholesale
)

// String returns a human-readable label for the action.
func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionReplace:
		return "replace"
	case ActionMove:
		return "move"
	case ActionReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Change describes one structural change. Indices are -1 when not applicable.
type Change[T any] struct {
	Action   Action
	NewItems []T
	NewIndex int
	OldItems []T
	OldIndex int
}

// List is an ordered, indexable collection that reports every mutation to its
// subscribers. It is not safe for concurrent use.
type List[T comparable] struct {
	items   []T
	changes Handlers[Change[T]]
}

// NewList creates a list holding a copy of items.
func NewList[T comparable](items ...T) *List[T] {
	return &List[T]{items: slices.Clone(items)}
}

// Subscribe registers fn for change notifications.
func (l *List[T]) Subscribe(fn func(Change[T])) (cancel func()) {
	return l.changes.Add(fn)
}

// Subscribers returns the number of registered change handlers.
func (l *List[T]) Subscribers() int {
	return l.changes.Len()
}

// Len returns the number of items.
func (l *List[T]) Len() int {
	return len(l.items)
}

// At returns the item at index i. It panics if i is out of range, like a
// slice index.
func (l *List[T]) At(i int) T {
	return l.items[i]
}

// Items returns a copy of the contents.
func (l *List[T]) Items() []T {
	return slices.Clone(l.items)
}

// All iterates over index/item pairs.
func (l *List[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range l.items {
			if !yield(i, item) {
				return
			}
		}
	}
}

// IndexOf returns the index of the first occurrence of item, or -1.
func (l *List[T]) IndexOf(item T) int {
	return slices.Index(l.items, item)
}

// Add appends item.
func (l *List[T]) Add(item T) {
	l.items = append(l.items, item)
	l.emit(Change[T]{Action: ActionAdd, NewItems: []T{item}, NewIndex: len(l.items) - 1, OldIndex: -1})
}

// Insert places item at index i, shifting later items up.
func (l *List[T]) Insert(i int, item T) error {
	if i < 0 || i > len(l.items) {
		return fmt.Errorf("%w: insert at %d (len %d)", ErrIndexOutOfRange, i, len(l.items))
	}
	l.items = slices.Insert(l.items, i, item)
	l.emit(Change[T]{Action: ActionAdd, NewItems: []T{item}, NewIndex: i, OldIndex: -1})
	return nil
}

// AddRange appends items as a single change.
func (l *List[T]) AddRange(items ...T) {
	if len(items) == 0 {
		return
	}
	start := len(l.items)
	l.items = append(l.items, items...)
	l.emit(Change[T]{Action: ActionAdd, NewItems: slices.Clone(items), NewIndex: start, OldIndex: -1})
}

// RemoveAt removes the item at index i.
func (l *List[T]) RemoveAt(i int) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("%w: remove at %d (len %d)", ErrIndexOutOfRange, i, len(l.items))
	}
	old := l.items[i]
	l.items = slices.Delete(l.items, i, i+1)
	l.emit(Change[T]{Action: ActionRemove, OldItems: []T{old}, OldIndex: i, NewIndex: -1})
	return nil
}

// Remove removes the first occurrence of item and reports whether it was found.
func (l *List[T]) Remove(item T) bool {
	i := l.IndexOf(item)
	if i < 0 {
		return false
	}
	_ = l.RemoveAt(i)
	return true
}

// RemoveRange removes n items starting at index i as a single change.
func (l *List[T]) RemoveRange(i, n int) error {
	if i < 0 || n < 0 || i+n > len(l.items) {
		return fmt.Errorf("%w: remove range [%d,%d) (len %d)", ErrIndexOutOfRange, i, i+n, len(l.items))
	}
	if n == 0 {
		return nil
	}
	old := slices.Clone(l.items[i : i+n])
	l.items = slices.Delete(l.items, i, i+n)
	l.emit(Change[T]{Action: ActionRemove, OldItems: old, OldIndex: i, NewIndex: -1})
	return nil
}

// Set replaces the item at index i.
func (l *List[T]) Set(i int, item T) error {
	if i < 0 || i >= len(l.items) {
		return fmt.Errorf("%w: set at %d (len %d)", ErrIndexOutOfRange, i, len(l.items))
	}
	old := l.items[i]
	l.items[i] = item
	l.emit(Change[T]{Action: ActionReplace, OldItems: []T{old}, NewItems: []T{item}, OldIndex: i, NewIndex: i})
	return nil
}

// Move relocates the item at index from to index to.
func (l *List[T]) Move(from, to int) error {
	if from < 0 || from >= len(l.items) || to < 0 || to >= len(l.items) {
		return fmt.Errorf("%w: move %d -> %d (len %d)", ErrIndexOutOfRange, from, to, len(l.items))
	}
	if from == to {
		return nil
	}
	item := l.items[from]
	l.items = slices.Delete(l.items, from, from+1)
	l.items = slices.Insert(l.items, to, item)
	l.emit(Change[T]{Action: ActionMove, OldItems: []T{item}, NewItems: []T{item}, OldIndex: from, NewIndex: to})
	return nil
}

// Reset replaces the whole contents with a copy of items.
func (l *List[T]) Reset(items []T) {
	l.items = slices.Clone(items)
	l.emit(Change[T]{Action: ActionReset, NewIndex: -1, OldIndex: -1})
}

// Clear removes every item.
func (l *List[T]) Clear() {
	l.Reset(nil)
}

func (l *List[T]) emit(c Change[T]) {
	l.changes.Emit(c)
}
