package view

// CurrentPosition returns the cursor position in [-1, Len()].
func (v *CollectionView[T]) CurrentPosition() int {
	return v.position
}

// CurrentItem returns the item under the cursor. ok is false when the cursor
// is before the first or after the last item.
func (v *CollectionView[T]) CurrentItem() (item T, ok bool) {
	if v.position < 0 || v.position >= len(v.view) {
		return item, false
	}
	return v.view[v.position], true
}

// IsCurrentBeforeFirst reports whether the cursor is before the first item.
func (v *CollectionView[T]) IsCurrentBeforeFirst() bool {
	return v.position < 0
}

// IsCurrentAfterLast reports whether the cursor is after the last item.
func (v *CollectionView[T]) IsCurrentAfterLast() bool {
	return v.position >= len(v.view)
}

// OnCurrentChanging registers fn to run before every cursor move. fn may set
// Cancel to veto the move. Not raised while a DeferRefresh scope is open.
func (v *CollectionView[T]) OnCurrentChanging(fn func(*CurrentChangingEvent)) (cancel func()) {
	return v.currentChanging.Add(fn)
}

// OnCurrentChanged registers fn to run after every committed cursor move.
func (v *CollectionView[T]) OnCurrentChanged(fn func()) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	return v.currentChanged.Add(func(struct{}) { fn() })
}

// MoveCurrentToPosition moves the cursor to p. It returns false without
// raising any event when p equals the current position or lies outside
// [-1, Len()], and false when a CurrentChanging handler cancels.
func (v *CollectionView[T]) MoveCurrentToPosition(p int) bool {
	if p < -1 || p > len(v.view) || p == v.position {
		return false
	}
	if v.deferCount == 0 {
		ev := &CurrentChangingEvent{}
		v.currentChanging.Emit(ev)
		if ev.Cancel {
			return false
		}
	}
	v.position = p
	if v.deferCount == 0 {
		v.currentChanged.Emit(struct{}{})
	}
	return true
}

// MoveCurrentTo moves the cursor to item, or before the first item when the
// view does not contain it.
func (v *CollectionView[T]) MoveCurrentTo(item T) bool {
	return v.MoveCurrentToPosition(v.IndexOf(item))
}

// MoveCurrentToFirst moves the cursor to index 0.
func (v *CollectionView[T]) MoveCurrentToFirst() bool {
	return v.MoveCurrentToPosition(0)
}

// MoveCurrentToLast moves the cursor to the last item.
func (v *CollectionView[T]) MoveCurrentToLast() bool {
	return v.MoveCurrentToPosition(len(v.view) - 1)
}

// MoveCurrentToNext advances the cursor; past the last item it reaches the
// after-last position.
func (v *CollectionView[T]) MoveCurrentToNext() bool {
	return v.MoveCurrentToPosition(v.position + 1)
}

// MoveCurrentToPrevious steps the cursor back; before the first item it
// reaches the before-first position.
func (v *CollectionView[T]) MoveCurrentToPrevious() bool {
	return v.MoveCurrentToPosition(v.position - 1)
}
