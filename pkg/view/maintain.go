package view

import (
	"slices"
	"sort"

	"github.com/vanderheijden86/liveview/pkg/debug"
	"github.com/vanderheijden86/liveview/pkg/metrics"
	"github.com/vanderheijden86/liveview/pkg/observable"
)

func (v *CollectionView[T]) matches(item T) bool {
	return v.filter == nil || v.filter(item)
}

func (v *CollectionView[T]) sorted() bool {
	return v.cmp.active()
}

func (v *CollectionView[T]) notify(change ViewChange[T]) {
	if v.deferCount > 0 {
		return
	}
	metrics.ViewNotifications.Inc()
	v.viewChanged.Emit(change)
}

// rebuild recomputes the view from scratch, emits one Reset, and relocates the
// previously current item.
func (v *CollectionView[T]) rebuild(reason string) {
	defer metrics.Timer(metrics.ViewRebuild)()

	current, hasCurrent := v.CurrentItem()

	clear(v.view)
	v.view = v.view[:0]
	n := 0
	if v.source != nil {
		n = v.source.Len()
	}
	v.shadow = slices.Grow(v.shadow[:0], n)[:n]
	for i := range n {
		item := v.source.At(i)
		in := v.matches(item)
		v.shadow[i] = in
		if in {
			v.view = append(v.view, item)
		}
	}
	// Equal items keep source order; sortedInsertionPoint matches this.
	if v.sorted() {
		slices.SortStableFunc(v.view, v.cmp.compare)
	}
	debug.Log("view: rebuild (%s): %d of %d items", reason, len(v.view), n)

	v.notify(ViewChange[T]{Kind: Reset, Index: -1})

	target := -1
	if hasCurrent {
		target = v.IndexOf(current)
	}
	v.MoveCurrentToPosition(target)
	if v.position > len(v.view) {
		v.position = -1
	}
}

func (v *CollectionView[T]) handleSourceChange(change observable.Change[T]) {
	switch {
	case change.Action == observable.ActionAdd && len(change.NewItems) == 1:
		item := change.NewItems[0]
		v.subscribeItem(item)
		v.sourceInserted(change.NewIndex, item)
	case change.Action == observable.ActionRemove && len(change.OldItems) == 1:
		item := change.OldItems[0]
		v.unsubscribeItem(item)
		v.sourceRemoved(change.OldIndex, item)
	default:
		metrics.ViewFallbacks.Inc()
		v.syncItemSubscriptions()
		v.rebuild(change.Action.String())
	}
}

// sourceInserted applies a single-item add at source index idx.
func (v *CollectionView[T]) sourceInserted(idx int, item T) {
	if idx < 0 || idx > len(v.shadow) {
		debug.Log("view: add at %d outside shadow of %d, rebuilding", idx, len(v.shadow))
		v.rebuild("add out of range")
		return
	}
	v.shadow = slices.Insert(v.shadow, idx, false)
	if !v.matches(item) {
		return
	}
	defer metrics.Timer(metrics.ViewInsert)()
	pos := v.insertionPoint(idx, item)
	v.shadow[idx] = true
	v.insertAt(pos, item)
}

// sourceRemoved applies a single-item remove at source index idx.
func (v *CollectionView[T]) sourceRemoved(idx int, item T) {
	if idx < 0 || idx >= len(v.shadow) {
		debug.Log("view: remove at %d outside shadow of %d, rebuilding", idx, len(v.shadow))
		v.rebuild("remove out of range")
		return
	}
	present := v.shadow[idx]
	translated := v.viewIndexFor(idx)
	v.shadow = slices.Delete(v.shadow, idx, idx+1)
	if !present {
		return
	}
	defer metrics.Timer(metrics.ViewRemove)()
	pos := v.locate(translated, item)
	if pos < 0 {
		// Reported removed but not in view: nothing to do.
		return
	}
	v.removeAt(pos)
}

// insertionPoint computes where a newly admitted item at source index idx
// belongs. shadow[idx] must still be false.
func (v *CollectionView[T]) insertionPoint(idx int, item T) int {
	switch {
	case v.sorted():
		return v.sortedInsertionPoint(idx, item)
	case v.filter == nil:
		return idx
	case idx == 0:
		return 0
	case idx == len(v.shadow)-1:
		return len(v.view)
	default:
		return v.viewIndexFor(idx)
	}
}

// viewIndexFor counts view items whose source index is below idx.
func (v *CollectionView[T]) viewIndexFor(idx int) int {
	n := 0
	for _, in := range v.shadow[:idx] {
		if in {
			n++
		}
	}
	return n
}

// lowerBound returns the index of the first view item not less than item.
func (v *CollectionView[T]) lowerBound(item T) int {
	return sort.Search(len(v.view), func(j int) bool {
		return v.cmp.compare(v.view[j], item) >= 0
	})
}

// upperBound returns the index after every view item that compares equal to
// item.
func (v *CollectionView[T]) upperBound(item T) int {
	return sort.Search(len(v.view), func(j int) bool {
		return v.cmp.compare(v.view[j], item) > 0
	})
}

// sortedInsertionPoint places item, which sits at source index idx, among
// the view items that compare equal to it. Equal items are ordered by source
// index, the same order a rebuild's stable sort produces. item itself must
// not be in the view.
func (v *CollectionView[T]) sortedInsertionPoint(idx int, item T) int {
	lo, hi := v.lowerBound(item), v.upperBound(item)
	if lo == hi || idx < 0 || idx >= len(v.shadow)-1 {
		return hi
	}
	if idx == 0 {
		return lo
	}
	before := 0
	for j, in := range v.shadow[:idx] {
		if in && v.cmp.compare(v.source.At(j), item) == 0 {
			before++
		}
	}
	return lo + before
}

// locate finds item in the view, trying hint first.
func (v *CollectionView[T]) locate(hint int, item T) int {
	if !v.sorted() && hint >= 0 && hint < len(v.view) && v.view[hint] == item {
		return hint
	}
	if v.sorted() {
		for j := v.lowerBound(item); j < len(v.view) && v.cmp.compare(v.view[j], item) == 0; j++ {
			if v.view[j] == item {
				return j
			}
		}
	}
	return v.IndexOf(item)
}

func (v *CollectionView[T]) insertAt(pos int, item T) {
	v.view = slices.Insert(v.view, pos, item)
	if pos <= v.position {
		v.position++
	}
	v.notify(ViewChange[T]{Kind: ItemInserted, Index: pos, Item: item})
}

func (v *CollectionView[T]) removeAt(pos int) {
	item := v.view[pos]
	v.view = slices.Delete(v.view, pos, pos+1)
	if pos <= v.position {
		v.position--
	}
	v.notify(ViewChange[T]{Kind: ItemRemoved, Index: pos, Item: item})
}

// sourceIndexOf returns the source index of item, or -1.
func (v *CollectionView[T]) sourceIndexOf(item T) int {
	if v.source == nil {
		return -1
	}
	for i := range v.source.Len() {
		if v.source.At(i) == item {
			return i
		}
	}
	return -1
}

// itemFieldChanged is the live shaping entry point.
func (v *CollectionView[T]) itemFieldChanged(item T, field string) {
	if !v.liveShaping {
		return
	}
	defer metrics.Timer(metrics.LiveShape)()

	nowMatches := v.matches(item)
	if _, observed := v.observed[field]; observed && v.filter != nil {
		viewIndex := v.IndexOf(item)
		switch {
		case viewIndex >= 0 && !nowMatches:
			if si := v.sourceIndexOf(item); si >= 0 && si < len(v.shadow) {
				v.shadow[si] = false
			}
			v.removeAt(viewIndex)
		case viewIndex < 0 && nowMatches:
			si := v.sourceIndexOf(item)
			if si < 0 || si >= len(v.shadow) {
				return
			}
			pos := v.insertionPoint(si, item)
			v.shadow[si] = true
			v.insertAt(pos, item)
		}
	}

	// An item kept in the view by an unobserved filter field is still
	// repositioned so the order holds.
	if v.cmp.sortsOn(field) {
		v.reposition(item)
	}
}

// reposition moves item to its sorted position after a sort field changed.
// Nothing is emitted when the position is unchanged.
func (v *CollectionView[T]) reposition(item T) {
	old := v.IndexOf(item)
	if old < 0 {
		return
	}
	v.view = slices.Delete(v.view, old, old+1)
	target := v.sortedInsertionPoint(v.sourceIndexOf(item), item)
	v.view = slices.Insert(v.view, target, item)
	if target == old {
		return
	}

	if v.position == old {
		v.position = target
	} else {
		if old < v.position {
			v.position--
		}
		if target <= v.position {
			v.position++
		}
	}
	v.notify(ViewChange[T]{Kind: ItemRemoved, Index: old, Item: item})
	v.notify(ViewChange[T]{Kind: ItemInserted, Index: target, Item: item})
}

func (v *CollectionView[T]) subscribeItem(item T) {
	if !v.liveShaping {
		return
	}
	n, ok := any(item).(observable.FieldNotifier)
	if !ok {
		return
	}
	if sub, ok := v.itemSubs[item]; ok {
		sub.refs++
		return
	}
	cancel := n.OnFieldChanged(func(field string) { v.itemFieldChanged(item, field) })
	v.itemSubs[item] = &itemSubscription{cancel: cancel, refs: 1}
}

func (v *CollectionView[T]) unsubscribeItem(item T) {
	sub, ok := v.itemSubs[item]
	if !ok {
		return
	}
	sub.refs--
	if sub.refs <= 0 {
		sub.cancel()
		delete(v.itemSubs, item)
	}
}

// syncItemSubscriptions reconciles item subscriptions with the source after a
// bulk change.
func (v *CollectionView[T]) syncItemSubscriptions() {
	if !v.liveShaping {
		return
	}
	counts := make(map[T]int)
	if v.source != nil {
		for i := range v.source.Len() {
			item := v.source.At(i)
			if _, ok := any(item).(observable.FieldNotifier); ok {
				counts[item]++
			}
		}
	}
	for item, sub := range v.itemSubs {
		if n := counts[item]; n > 0 {
			sub.refs = n
			continue
		}
		sub.cancel()
		delete(v.itemSubs, item)
	}
	for item, n := range counts {
		if _, ok := v.itemSubs[item]; ok {
			continue
		}
		v.subscribeItem(item)
		v.itemSubs[item].refs = n
	}
}

// itemSubscriptions returns the number of items currently observed.
func (v *CollectionView[T]) itemSubscriptions() int {
	return len(v.itemSubs)
}
