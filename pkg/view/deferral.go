package view

import "github.com/vanderheijden86/liveview/pkg/debug"

// Deferral is an open DeferRefresh scope.
type Deferral[T comparable] struct {
	view       *CollectionView[T]
	current    T
	hasCurrent bool
	closed     bool
}

// DeferRefresh suspends view and cursor notifications until the returned
// scope is closed. Scopes nest; closing the outermost one rebuilds the view
// and emits a single Reset.
//
//	d := v.DeferRefresh()
//	defer d.Close()
func (v *CollectionView[T]) DeferRefresh() *Deferral[T] {
	item, ok := v.CurrentItem()
	v.deferCount++
	return &Deferral[T]{view: v, current: item, hasCurrent: ok}
}

// IsDeferred reports whether a DeferRefresh scope is open.
func (v *CollectionView[T]) IsDeferred() bool {
	return v.deferCount > 0
}

// Close ends the scope. Closing twice is a no-op.
func (d *Deferral[T]) Close() {
	if d.closed {
		return
	}
	d.closed = true
	v := d.view

	target := -1
	if d.hasCurrent {
		target = v.IndexOf(d.current)
	}
	v.MoveCurrentToPosition(target)

	v.deferCount--
	if v.deferCount == 0 {
		v.rebuild("deferral closed")
		return
	}
	debug.Log("view: deferral closed, %d still open", v.deferCount)
}
