// Package view maintains a filtered, sorted, observable projection of a
// mutable source list.
//
// A CollectionView subscribes to its source's change notifications and keeps
// its own ordered slice consistent without recomputing it on every change:
// single-item adds and removes are applied in place (binary-search insertion
// when sorted, source-relative insertion when not), while bulk changes fall
// back to one full rebuild. With live shaping enabled, field changes on items
// re-evaluate that item's membership and position.
//
// The view also owns a cursor (the "current item") with cancelable moves, and
// DeferRefresh scopes that batch notifications into a single Reset.
//
// A CollectionView is not safe for concurrent use. All mutation of the source
// and of the view's configuration must happen on one goroutine.
package view

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/vanderheijden86/liveview/pkg/observable"
)

// Source is the read contract a view needs from the collection it projects.
type Source[T any] interface {
	Len() int
	At(i int) T
}

// NotifyingSource reports structural changes. Views over a plain Source only
// update on Refresh.
type NotifyingSource[T any] interface {
	Source[T]
	Subscribe(fn func(observable.Change[T])) (cancel func())
}

// MutableSource accepts the mutations the view forwards on behalf of callers.
type MutableSource[T any] interface {
	Source[T]
	Add(item T)
	Remove(item T) bool
	Clear()
}

// Filter decides whether an item belongs in the view. It must not have side
// effects. A nil Filter admits everything.
type Filter[T any] func(item T) bool

// ChangeKind identifies a view change notification.
type ChangeKind int

const (
	ItemInserted ChangeKind = iota
	ItemRemoved
	Reset
)

// String returns a human-readable label for the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ItemInserted:
		return "inserted"
	case ItemRemoved:
		return "removed"
	case Reset:
		return "reset"
	default:
		return "unknown"
	}
}

// ViewChange is delivered to OnViewChanged subscribers. Index is -1 and Item
// is the zero value for Reset.
type ViewChange[T any] struct {
	Kind  ChangeKind
	Index int
	Item  T
}

// CurrentChangingEvent is passed to OnCurrentChanging handlers. Setting Cancel
// aborts the pending cursor move.
type CurrentChangingEvent struct {
	Cancel bool
}

// Option configures a CollectionView at construction.
type Option[T comparable] func(*CollectionView[T])

// WithLiveShaping enables per-item field observation.
func WithLiveShaping[T comparable](enabled bool) Option[T] {
	return func(v *CollectionView[T]) {
		v.liveShaping = enabled
	}
}

// WithFilter sets the initial filter.
func WithFilter[T comparable](f Filter[T]) Option[T] {
	return func(v *CollectionView[T]) {
		v.filter = f
	}
}

// WithSortKeys sets the initial sort keys.
func WithSortKeys[T comparable](keys ...SortKey) Option[T] {
	return func(v *CollectionView[T]) {
		v.keys = slices.Clone(keys)
	}
}

// WithObservedFilterFields sets the fields whose change re-runs the filter.
func WithObservedFilterFields[T comparable](fields ...string) Option[T] {
	return func(v *CollectionView[T]) {
		for _, f := range fields {
			v.observed[f] = struct{}{}
		}
	}
}

// WithAccessor registers an explicit value getter for a sort field. Explicit
// accessors take precedence over reflection.
func WithAccessor[T comparable](field string, fn func(T) any) Option[T] {
	return func(v *CollectionView[T]) {
		v.accessors[field] = fn
	}
}

type itemSubscription struct {
	cancel func()
	refs   int
}

// CollectionView is the derived, observable sequence over a Source.
type CollectionView[T comparable] struct {
	source       Source[T]
	sourceCancel func()

	view []T
	// shadow[i] reports whether source item i is present in view.
	shadow []bool

	filter      Filter[T]
	keys        []SortKey
	accessors   map[string]func(T) any
	cmp         *comparator[T]
	observed    map[string]struct{}
	liveShaping bool
	itemSubs    map[T]*itemSubscription

	position   int
	deferCount int

	viewChanged     observable.Handlers[ViewChange[T]]
	currentChanging observable.Handlers[*CurrentChangingEvent]
	currentChanged  observable.Handlers[struct{}]
}

// New builds a view over source. source may be nil; use SetSource later.
func New[T comparable](source Source[T], opts ...Option[T]) (*CollectionView[T], error) {
	v := &CollectionView[T]{
		accessors: make(map[string]func(T) any),
		observed:  make(map[string]struct{}),
		itemSubs:  make(map[T]*itemSubscription),
		position:  -1,
	}
	for _, opt := range opts {
		opt(v)
	}
	if err := v.recompile(); err != nil {
		return nil, err
	}
	v.SetSource(source)
	return v, nil
}

// recompile rebuilds the comparator and drops every cached accessor.
func (v *CollectionView[T]) recompile() error {
	c, err := newComparator(v.keys, v.accessors)
	if err != nil {
		return err
	}
	v.cmp = c
	return nil
}

// SetSource replaces the source and rebuilds the view.
func (v *CollectionView[T]) SetSource(source Source[T]) {
	v.detach()
	v.source = source
	if ns, ok := source.(NotifyingSource[T]); ok {
		v.sourceCancel = ns.Subscribe(v.handleSourceChange)
	}
	v.syncItemSubscriptions()
	v.rebuild("source assigned")
}

// Source returns the current source.
func (v *CollectionView[T]) Source() Source[T] {
	return v.source
}

// Close releases the source subscription and every item subscription. The
// view keeps its last contents but no longer tracks the source.
func (v *CollectionView[T]) Close() {
	v.detach()
}

func (v *CollectionView[T]) detach() {
	if v.sourceCancel != nil {
		v.sourceCancel()
		v.sourceCancel = nil
	}
	for item, sub := range v.itemSubs {
		sub.cancel()
		delete(v.itemSubs, item)
	}
}

// SetFilter replaces the filter and rebuilds the view.
func (v *CollectionView[T]) SetFilter(f Filter[T]) {
	v.filter = f
	v.rebuild("filter assigned")
}

// Filter returns the current filter.
func (v *CollectionView[T]) Filter() Filter[T] {
	return v.filter
}

// SetSortKeys replaces the sort keys and rebuilds the view. On error the
// previous keys stay in effect.
func (v *CollectionView[T]) SetSortKeys(keys ...SortKey) error {
	prev := v.keys
	v.keys = slices.Clone(keys)
	if err := v.recompile(); err != nil {
		v.keys = prev
		return err
	}
	v.rebuild("sort keys assigned")
	return nil
}

// AddSortKey appends a lower-priority key and rebuilds the view.
func (v *CollectionView[T]) AddSortKey(key SortKey) error {
	return v.SetSortKeys(append(slices.Clone(v.keys), key)...)
}

// ClearSortKeys removes all keys; the view reverts to source order.
func (v *CollectionView[T]) ClearSortKeys() {
	_ = v.SetSortKeys()
}

// SortKeys returns a copy of the active keys.
func (v *CollectionView[T]) SortKeys() []SortKey {
	return slices.Clone(v.keys)
}

// ObserveFilterField adds fields whose change re-evaluates the filter for the
// changed item. A change to an unobserved field never adds or removes an item,
// even when the item no longer matches; it stays in the view until the next
// rebuild. Sort fields are still honored, so such an item is resorted.
func (v *CollectionView[T]) ObserveFilterField(fields ...string) {
	for _, f := range fields {
		v.observed[f] = struct{}{}
	}
	// Structural change to the observed set invalidates cached accessors.
	_ = v.recompile()
}

// ClearObservedFilterFields empties the observed field set.
func (v *CollectionView[T]) ClearObservedFilterFields() {
	clear(v.observed)
	_ = v.recompile()
}

// ObservedFilterFields returns the observed field names in sorted order.
func (v *CollectionView[T]) ObservedFilterFields() []string {
	return slices.Sorted(maps.Keys(v.observed))
}

// LiveShaping reports whether field changes are observed.
func (v *CollectionView[T]) LiveShaping() bool {
	return v.liveShaping
}

// Refresh performs a full rebuild. It does nothing while a DeferRefresh scope
// is open; the outermost scope refreshes on close.
func (v *CollectionView[T]) Refresh() {
	if v.deferCount > 0 {
		return
	}
	v.rebuild("refresh")
}

// OnViewChanged registers fn for view change notifications. Mutating the
// source from inside fn is undefined.
func (v *CollectionView[T]) OnViewChanged(fn func(ViewChange[T])) (cancel func()) {
	return v.viewChanged.Add(fn)
}

// Len returns the number of items in the view.
func (v *CollectionView[T]) Len() int {
	return len(v.view)
}

// At returns the item at view index i.
func (v *CollectionView[T]) At(i int) (T, error) {
	if i < 0 || i >= len(v.view) {
		var zero T
		return zero, fmt.Errorf("%w: %d (len %d)", ErrArgumentOutOfRange, i, len(v.view))
	}
	return v.view[i], nil
}

// Items returns a copy of the view contents.
func (v *CollectionView[T]) Items() []T {
	return slices.Clone(v.view)
}

// All iterates over view index/item pairs.
func (v *CollectionView[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, item := range v.view {
			if !yield(i, item) {
				return
			}
		}
	}
}

// IndexOf returns the view index of item, or -1.
func (v *CollectionView[T]) IndexOf(item T) int {
	return slices.Index(v.view, item)
}

// Contains reports whether item is in the view.
func (v *CollectionView[T]) Contains(item T) bool {
	return v.IndexOf(item) >= 0
}

// Add forwards to the source.
func (v *CollectionView[T]) Add(item T) error {
	ms, ok := v.source.(MutableSource[T])
	if !ok {
		return fmt.Errorf("%w: source is not mutable", ErrInvalidOperation)
	}
	ms.Add(item)
	return nil
}

// Remove forwards to the source and reports whether the item was found there.
func (v *CollectionView[T]) Remove(item T) (bool, error) {
	ms, ok := v.source.(MutableSource[T])
	if !ok {
		return false, fmt.Errorf("%w: source is not mutable", ErrInvalidOperation)
	}
	return ms.Remove(item), nil
}

// Clear forwards to the source.
func (v *CollectionView[T]) Clear() error {
	ms, ok := v.source.(MutableSource[T])
	if !ok {
		return fmt.Errorf("%w: source is not mutable", ErrInvalidOperation)
	}
	ms.Clear()
	return nil
}

// Insert always fails: positions in a derived view are computed, not chosen.
func (v *CollectionView[T]) Insert(int, T) error {
	return fmt.Errorf("%w: insert into the source instead", ErrInvalidOperation)
}

// RemoveAt removes the item at view index i from the source.
func (v *CollectionView[T]) RemoveAt(i int) error {
	item, err := v.At(i)
	if err != nil {
		return err
	}
	ms, ok := v.source.(MutableSource[T])
	if !ok {
		return fmt.Errorf("%w: remove by index on a read-only projection", ErrNotSupported)
	}
	ms.Remove(item)
	return nil
}

// Set always fails: replace the item in the source instead.
func (v *CollectionView[T]) Set(int, T) error {
	return fmt.Errorf("%w: set on a projection", ErrNotSupported)
}
