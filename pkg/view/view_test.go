package view

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/vanderheijden86/liveview/pkg/observable"
)

// sliceSource is a read-only, non-notifying Source.
type sliceSource []int

func (s sliceSource) Len() int     { return len(s) }
func (s sliceSource) At(i int) int { return s[i] }

type person struct {
	observable.FieldChanges
	Name  string
	Age   int
	Alive bool
	Born  time.Time
}

func (p *person) SetAge(age int) {
	p.Age = age
	p.NotifyFieldChanged("Age")
}

func (p *person) SetAlive(alive bool) {
	p.Alive = alive
	p.NotifyFieldChanged("Alive")
}

func (p *person) Initial() string {
	if p.Name == "" {
		return ""
	}
	return p.Name[:1]
}

// recorder captures view change notifications.
type recorder[T any] struct {
	changes []ViewChange[T]
}

func record[T comparable](v *CollectionView[T]) *recorder[T] {
	r := &recorder[T]{}
	v.OnViewChanged(func(c ViewChange[T]) { r.changes = append(r.changes, c) })
	return r
}

func (r *recorder[T]) kinds() []ChangeKind {
	kinds := make([]ChangeKind, len(r.changes))
	for i, c := range r.changes {
		kinds[i] = c.Kind
	}
	return kinds
}

func mustView[T comparable](t *testing.T, src Source[T], opts ...Option[T]) *CollectionView[T] {
	t.Helper()
	v, err := New(src, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func isEven(x int) bool { return x%2 == 0 }

func TestScenarioA_SortedInsertUsesBinarySearch(t *testing.T) {
	src := observable.NewList(3, 1, 2)
	v := mustView(t, src, WithSortKeys[int](SortKey{Direction: Ascending}))

	if got := v.Items(); !slices.Equal(got, []int{1, 2, 3}) {
		t.Fatalf("initial view = %v, want [1 2 3]", got)
	}

	rec := record(v)
	src.Add(0)

	if got := v.Items(); !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Fatalf("view after add = %v, want [0 1 2 3]", got)
	}
	if len(rec.changes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rec.changes))
	}
	if c := rec.changes[0]; c.Kind != ItemInserted || c.Index != 0 || c.Item != 0 {
		t.Errorf("notification = %+v, want inserted 0 at 0", c)
	}
}

func TestScenarioB_FilteredRemoveAdjustsCursor(t *testing.T) {
	src := observable.NewList(1, 2, 3, 4)
	v := mustView(t, src, WithFilter[int](isEven))

	if got := v.Items(); !slices.Equal(got, []int{2, 4}) {
		t.Fatalf("initial view = %v, want [2 4]", got)
	}
	if !v.MoveCurrentToFirst() {
		t.Fatal("MoveCurrentToFirst returned false")
	}

	rec := record(v)
	src.Remove(2)

	if got := v.Items(); !slices.Equal(got, []int{4}) {
		t.Fatalf("view after remove = %v, want [4]", got)
	}
	if !v.IsCurrentBeforeFirst() {
		t.Errorf("cursor = %d, want before first", v.CurrentPosition())
	}
	if len(rec.changes) != 1 || rec.changes[0].Kind != ItemRemoved || rec.changes[0].Index != 0 {
		t.Errorf("notifications = %+v, want one removed at 0", rec.changes)
	}
}

func TestScenarioC_LiveShapingMovesItem(t *testing.T) {
	a := &person{Name: "a", Age: 10}
	b := &person{Name: "b", Age: 20}
	x := &person{Name: "x", Age: 5}
	c := &person{Name: "c", Age: 30}
	src := observable.NewList(a, b, x, c)
	v := mustView(t, src,
		WithLiveShaping[*person](true),
		WithSortKeys[*person](Asc("Age")),
	)

	if got := v.Items(); !slices.Equal(got, []*person{x, a, b, c}) {
		t.Fatalf("initial order wrong: %v", names(got))
	}

	rec := record(v)
	x.SetAge(50)

	if got := v.Items(); !slices.Equal(got, []*person{a, b, c, x}) {
		t.Fatalf("order after SetAge = %v", names(got))
	}
	if !slices.Equal(rec.kinds(), []ChangeKind{ItemRemoved, ItemInserted}) {
		t.Fatalf("notifications = %v, want [removed inserted]", rec.kinds())
	}
	if rec.changes[0].Index != 0 || rec.changes[1].Index != 3 {
		t.Errorf("indices = %d,%d, want 0,3", rec.changes[0].Index, rec.changes[1].Index)
	}
}

func TestScenarioD_DeferralEmitsSingleReset(t *testing.T) {
	src := observable.NewList(1, 2, 3, 4, 5, 6)
	v := mustView(t, src, WithFilter[int](isEven), WithSortKeys[int](SortKey{Direction: Descending}))
	rec := record(v)

	d := v.DeferRefresh()
	src.Remove(2)
	src.Remove(5)
	src.Remove(6)
	src.Add(8)
	d.Close()

	if !slices.Equal(rec.kinds(), []ChangeKind{Reset}) {
		t.Fatalf("notifications = %v, want exactly one reset", rec.kinds())
	}
	want := rebuildOf(src.Items(), isEven, true, Descending)
	if got := v.Items(); !slices.Equal(got, want) {
		t.Errorf("view = %v, want %v", got, want)
	}
}

func TestUnsortedFilteredInsertKeepsSourceOrder(t *testing.T) {
	src := observable.NewList(1, 2, 3, 4, 5, 6)
	v := mustView(t, src, WithFilter[int](isEven))

	tests := []struct {
		index int
		value int
		want  []int
	}{
		{0, 10, []int{10, 2, 4, 6}},
		{3, 12, []int{10, 2, 12, 4, 6}},
		{8, 14, []int{10, 2, 12, 4, 6, 14}},
		{5, 7, []int{10, 2, 12, 4, 6, 14}},
	}
	for _, tc := range tests {
		if err := src.Insert(tc.index, tc.value); err != nil {
			t.Fatalf("Insert(%d, %d): %v", tc.index, tc.value, err)
		}
		if got := v.Items(); !slices.Equal(got, tc.want) {
			t.Fatalf("after Insert(%d, %d) view = %v, want %v", tc.index, tc.value, got, tc.want)
		}
	}
}

func TestUnfilteredUnsortedMirrorsSource(t *testing.T) {
	src := observable.NewList(5, 6)
	v := mustView[int](t, src)
	_ = src.Insert(1, 9)
	_ = src.Insert(0, 1)
	if got, want := v.Items(), src.Items(); !slices.Equal(got, want) {
		t.Errorf("view = %v, want %v", got, want)
	}
}

func TestMultiKeyFirstDifferenceWins(t *testing.T) {
	p1 := &person{Name: "bob", Age: 30}
	p2 := &person{Name: "amy", Age: 30}
	p3 := &person{Name: "cat", Age: 20}
	src := observable.NewList(p1, p2, p3)
	v := mustView(t, src, WithSortKeys[*person](Desc("Age"), Asc("Name")))

	if got := v.Items(); !slices.Equal(got, []*person{p2, p1, p3}) {
		t.Errorf("order = %v, want [amy bob cat]", names(got))
	}
}

func TestSortKeyResolution(t *testing.T) {
	early := &person{Name: "early", Born: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)}
	late := &person{Name: "zed", Born: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), Alive: true}

	tests := []struct {
		name string
		key  SortKey
		want []*person
	}{
		{"time via Compare method", Asc("Born"), []*person{early, late}},
		{"case-insensitive field", Desc("born"), []*person{late, early}},
		{"bool false first", Asc("Alive"), []*person{early, late}},
		{"getter method", Desc("Initial"), []*person{late, early}},
		{"custom compare", SortKey{Field: "Name", Compare: func(a, b any) int {
			return len(a.(string)) - len(b.(string))
		}}, []*person{late, early}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := mustView(t, observable.NewList(late, early), WithSortKeys[*person](tc.key))
			if got := v.Items(); !slices.Equal(got, tc.want) {
				t.Errorf("order = %v, want %v", names(got), names(tc.want))
			}
		})
	}
}

func TestExplicitAccessorWins(t *testing.T) {
	p1 := &person{Name: "a", Age: 1}
	p2 := &person{Name: "b", Age: 2}
	v := mustView(t, observable.NewList(p1, p2),
		WithAccessor("Age", func(p *person) any { return -p.Age }),
		WithSortKeys[*person](Asc("Age")),
	)
	if got := v.Items(); !slices.Equal(got, []*person{p2, p1}) {
		t.Errorf("order = %v, want [b a]", names(got))
	}
}

func TestSetSortKeysErrors(t *testing.T) {
	type opaque struct{ M map[string]int }
	v := mustView(t, observable.NewList(&opaque{}, &opaque{}))

	err := v.SetSortKeys(Asc("M"))
	if !errors.Is(err, ErrNotComparable) {
		t.Errorf("SetSortKeys(M) error = %v, want ErrNotComparable", err)
	}
	err = v.SetSortKeys(Asc("Missing"))
	if !errors.Is(err, ErrUnknownField) {
		t.Errorf("SetSortKeys(Missing) error = %v, want ErrUnknownField", err)
	}
	if len(v.SortKeys()) != 0 {
		t.Errorf("failed SetSortKeys should keep previous keys, got %v", v.SortKeys())
	}
}

func TestDynamicElementType(t *testing.T) {
	src := observable.NewList[any](3, "b", 1, nil, "a")
	v := mustView(t, src, WithSortKeys[any](SortKey{}))
	// nil first, then by type name: int < string.
	want := []any{nil, 1, 3, "a", "b"}
	if got := v.Items(); !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestRemoveOfFilteredOutItemIsNoop(t *testing.T) {
	src := observable.NewList(1, 2, 3)
	v := mustView(t, src, WithFilter[int](isEven))
	rec := record(v)

	src.Remove(3)

	if len(rec.changes) != 0 {
		t.Errorf("expected no notifications, got %+v", rec.changes)
	}
	if got := v.Items(); !slices.Equal(got, []int{2}) {
		t.Errorf("view = %v, want [2]", got)
	}
}

func TestBulkChangesRebuild(t *testing.T) {
	src := observable.NewList(4, 1)
	v := mustView(t, src, WithSortKeys[int](SortKey{}))
	rec := record(v)

	src.AddRange(3, 2)
	_ = src.Move(0, 2)
	_ = src.Set(0, 9)
	_ = src.RemoveRange(0, 2)
	src.Reset([]int{7, 5})

	want := []ChangeKind{Reset, Reset, Reset, Reset, Reset}
	if !slices.Equal(rec.kinds(), want) {
		t.Fatalf("notifications = %v, want %v", rec.kinds(), want)
	}
	if got := v.Items(); !slices.Equal(got, []int{5, 7}) {
		t.Errorf("view = %v, want [5 7]", got)
	}
}

func TestFilterAndSortAssignmentRebuild(t *testing.T) {
	src := observable.NewList(5, 2, 8, 1)
	v := mustView[int](t, src)
	rec := record(v)

	v.SetFilter(func(x int) bool { return x > 1 })
	if err := v.SetSortKeys(SortKey{Direction: Descending}); err != nil {
		t.Fatal(err)
	}
	if got := v.Items(); !slices.Equal(got, []int{8, 5, 2}) {
		t.Fatalf("view = %v, want [8 5 2]", got)
	}
	v.ClearSortKeys()
	if got := v.Items(); !slices.Equal(got, []int{5, 2, 8}) {
		t.Fatalf("view after ClearSortKeys = %v, want [5 2 8]", got)
	}
	if !slices.Equal(rec.kinds(), []ChangeKind{Reset, Reset, Reset}) {
		t.Errorf("notifications = %v, want three resets", rec.kinds())
	}
}

func TestCursorNavigation(t *testing.T) {
	v := mustView[int](t, sliceSource{10, 20, 30})

	if !v.IsCurrentBeforeFirst() {
		t.Fatalf("new view cursor = %d, want -1", v.CurrentPosition())
	}
	if _, ok := v.CurrentItem(); ok {
		t.Error("CurrentItem should report not present before first")
	}

	var changed int
	v.OnCurrentChanged(func() { changed++ })

	steps := []struct {
		name string
		move func() bool
		ok   bool
		pos  int
	}{
		{"first", v.MoveCurrentToFirst, true, 0},
		{"first again", v.MoveCurrentToFirst, false, 0},
		{"next", v.MoveCurrentToNext, true, 1},
		{"last", v.MoveCurrentToLast, true, 2},
		{"next past end", v.MoveCurrentToNext, true, 3},
		{"next beyond after-last", v.MoveCurrentToNext, false, 3},
		{"to item", func() bool { return v.MoveCurrentTo(10) }, true, 0},
		{"previous", v.MoveCurrentToPrevious, true, -1},
		{"previous beyond before-first", v.MoveCurrentToPrevious, false, -1},
		{"out of range", func() bool { return v.MoveCurrentToPosition(7) }, false, -1},
	}
	for _, s := range steps {
		if got := s.move(); got != s.ok {
			t.Errorf("%s: returned %v, want %v", s.name, got, s.ok)
		}
		if got := v.CurrentPosition(); got != s.pos {
			t.Errorf("%s: position = %d, want %d", s.name, got, s.pos)
		}
	}
	if v.IsCurrentAfterLast() {
		t.Error("cursor should not be after last")
	}
	if changed != 6 {
		t.Errorf("CurrentChanged fired %d times, want 6", changed)
	}
}

func TestCursorChangingCanBeCanceled(t *testing.T) {
	v := mustView[int](t, sliceSource{1, 2})
	var changed bool
	cancel := v.OnCurrentChanging(func(ev *CurrentChangingEvent) { ev.Cancel = true })
	v.OnCurrentChanged(func() { changed = true })

	if v.MoveCurrentToFirst() {
		t.Error("canceled move should return false")
	}
	if v.CurrentPosition() != -1 || changed {
		t.Errorf("canceled move changed state: pos=%d changed=%v", v.CurrentPosition(), changed)
	}

	cancel()
	if !v.MoveCurrentToFirst() || !changed {
		t.Error("move after removing the canceling handler should succeed")
	}
}

func TestCursorFollowsItemThroughRebuild(t *testing.T) {
	src := observable.NewList(3, 1, 2)
	v := mustView[int](t, src)
	v.MoveCurrentTo(2)

	if err := v.SetSortKeys(SortKey{}); err != nil {
		t.Fatal(err)
	}
	if item, ok := v.CurrentItem(); !ok || item != 2 || v.CurrentPosition() != 1 {
		t.Errorf("current = %v,%v at %d, want 2 at 1", item, ok, v.CurrentPosition())
	}

	v.SetFilter(func(x int) bool { return x != 2 })
	if !v.IsCurrentBeforeFirst() {
		t.Errorf("cursor = %d, want before first when current item filtered out", v.CurrentPosition())
	}
}

func TestCursorKeepsLogicalItemOnInsert(t *testing.T) {
	src := observable.NewList(10, 30)
	v := mustView(t, src, WithSortKeys[int](SortKey{}))
	v.MoveCurrentTo(30)

	src.Add(20)
	if item, _ := v.CurrentItem(); item != 30 || v.CurrentPosition() != 2 {
		t.Errorf("current = %d at %d, want 30 at 2", item, v.CurrentPosition())
	}
}

func TestTiesInsertAfterExistingEquals(t *testing.T) {
	a := &person{Name: "a", Age: 1}
	b := &person{Name: "b", Age: 1}
	c := &person{Name: "c", Age: 1}
	src := observable.NewList(a, b)
	v := mustView(t, src, WithSortKeys[*person](Asc("Age")))

	_ = src.Insert(0, c)
	if got := v.Items(); !slices.Equal(got, []*person{a, b, c}) {
		t.Errorf("order = %v, want [a b c]", names(got))
	}
}

func TestViewMutationErrors(t *testing.T) {
	ro := mustView[int](t, sliceSource{1, 2})
	rw := mustView[int](t, observable.NewList(1, 2))

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"insert", rw.Insert(0, 5), ErrInvalidOperation},
		{"set", rw.Set(0, 5), ErrNotSupported},
		{"add read-only", ro.Add(5), ErrInvalidOperation},
		{"clear read-only", ro.Clear(), ErrInvalidOperation},
		{"remove at read-only", ro.RemoveAt(0), ErrNotSupported},
		{"remove at out of range", rw.RemoveAt(5), ErrArgumentOutOfRange},
	}
	for _, tc := range tests {
		if !errors.Is(tc.err, tc.want) {
			t.Errorf("%s: error = %v, want %v", tc.name, tc.err, tc.want)
		}
	}
	if _, err := ro.At(-1); !errors.Is(err, ErrArgumentOutOfRange) {
		t.Errorf("At(-1) error = %v, want ErrArgumentOutOfRange", err)
	}
	if _, err := ro.Remove(1); !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("Remove on read-only error = %v", err)
	}
}

func TestViewMutationForwardsToSource(t *testing.T) {
	src := observable.NewList(1, 2, 3)
	v := mustView(t, src, WithSortKeys[int](SortKey{Direction: Descending}))

	if err := v.Add(4); err != nil {
		t.Fatal(err)
	}
	if err := v.RemoveAt(1); err != nil { // removes 3
		t.Fatal(err)
	}
	if found, err := v.Remove(1); err != nil || !found {
		t.Fatalf("Remove(1) = %v, %v", found, err)
	}
	if got := src.Items(); !slices.Equal(got, []int{2, 4}) {
		t.Errorf("source = %v, want [2 4]", got)
	}
	if got := v.Items(); !slices.Equal(got, []int{4, 2}) {
		t.Errorf("view = %v, want [4 2]", got)
	}
	if err := v.Clear(); err != nil || v.Len() != 0 {
		t.Errorf("Clear: err=%v len=%d", err, v.Len())
	}
}

func TestNonNotifyingSourceNeedsRefresh(t *testing.T) {
	src := sliceSource{2, 1}
	v := mustView(t, Source[int](src), WithSortKeys[int](SortKey{}))
	if got := v.Items(); !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("view = %v", got)
	}
	src[0] = 0
	v.Refresh()
	if got := v.Items(); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("view after Refresh = %v, want [0 1]", got)
	}
}

func names(ps []*person) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

func TestSortedInsertOrdersTiesBySourceIndex(t *testing.T) {
	a := &person{Name: "a", Age: 1}
	b := &person{Name: "b", Age: 1}
	z := &person{Name: "z", Age: 0}
	src := observable.NewList(a, z, b)
	v := mustView(t, src, WithSortKeys[*person](Asc("Age")))

	c := &person{Name: "c", Age: 1}
	_ = src.Insert(0, c)
	if got := v.Items(); !slices.Equal(got, []*person{z, c, a, b}) {
		t.Fatalf("after insert at 0 = %v, want [z c a b]", names(got))
	}

	d := &person{Name: "d", Age: 1}
	_ = src.Insert(2, d) // source is now c a d z b
	if got := v.Items(); !slices.Equal(got, []*person{z, c, a, d, b}) {
		t.Fatalf("after insert at 2 = %v, want [z c a d b]", names(got))
	}

	incremental := v.Items()
	v.Refresh()
	if got := v.Items(); !slices.Equal(got, incremental) {
		t.Errorf("rebuild = %v, incremental = %v", names(got), names(incremental))
	}
}

func TestLiveShapingRepositionOrdersTiesBySourceIndex(t *testing.T) {
	a := &person{Name: "a", Age: 1}
	b := &person{Name: "b", Age: 2}
	c := &person{Name: "c", Age: 1}
	v := mustView(t, observable.NewList(a, b, c),
		WithLiveShaping[*person](true),
		WithSortKeys[*person](Asc("Age")),
	)
	if got := v.Items(); !slices.Equal(got, []*person{a, c, b}) {
		t.Fatalf("initial = %v", names(got))
	}

	b.SetAge(1)
	if got := v.Items(); !slices.Equal(got, []*person{a, b, c}) {
		t.Errorf("after b ties = %v, want source order [a b c]", names(got))
	}
}

func TestUnobservedFilterFieldStillRepositions(t *testing.T) {
	a := &person{Name: "a", Age: 1}
	b := &person{Name: "b", Age: 2}
	v := mustView(t, observable.NewList(a, b),
		WithLiveShaping[*person](true),
		WithFilter[*person](func(p *person) bool { return p.Age < 100 }),
		WithSortKeys[*person](Asc("Age")),
	)

	a.SetAge(200)
	if got := v.Items(); !slices.Equal(got, []*person{b, a}) {
		t.Errorf("order = %v, want [b a]: a stays in view but must be resorted", names(got))
	}
}
