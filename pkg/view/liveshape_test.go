package view

import (
	"slices"
	"testing"

	"github.com/vanderheijden86/liveview/pkg/observable"
)

func TestLiveShapingUnchangedPositionIsSilent(t *testing.T) {
	a := &person{Name: "a", Age: 10}
	b := &person{Name: "b", Age: 20}
	c := &person{Name: "c", Age: 30}
	v := mustView(t, observable.NewList(a, b, c),
		WithLiveShaping[*person](true),
		WithSortKeys[*person](Asc("Age")),
	)
	rec := record(v)

	b.SetAge(25)
	b.SetAlive(true) // not a sort or observed field

	if len(rec.changes) != 0 {
		t.Errorf("expected no notifications, got %v", rec.kinds())
	}
	if got := v.Items(); !slices.Equal(got, []*person{a, b, c}) {
		t.Errorf("order = %v, want [a b c]", names(got))
	}
}

func TestLiveShapingObservedFilterField(t *testing.T) {
	a := &person{Name: "a", Age: 1, Alive: true}
	b := &person{Name: "b", Age: 2, Alive: false}
	c := &person{Name: "c", Age: 3, Alive: true}
	src := observable.NewList(a, b, c)
	v := mustView(t, src,
		WithLiveShaping[*person](true),
		WithFilter[*person](func(p *person) bool { return p.Alive }),
		WithObservedFilterFields[*person]("Alive"),
	)
	if got := v.Items(); !slices.Equal(got, []*person{a, c}) {
		t.Fatalf("initial view = %v", names(got))
	}

	rec := record(v)
	b.SetAlive(true)
	if got := v.Items(); !slices.Equal(got, []*person{a, b, c}) {
		t.Fatalf("after b joins = %v, want [a b c]", names(got))
	}
	a.SetAlive(false)
	if got := v.Items(); !slices.Equal(got, []*person{b, c}) {
		t.Fatalf("after a leaves = %v, want [b c]", names(got))
	}
	want := []ChangeKind{ItemInserted, ItemRemoved}
	if !slices.Equal(rec.kinds(), want) {
		t.Errorf("notifications = %v, want %v", rec.kinds(), want)
	}
	if rec.changes[0].Index != 1 || rec.changes[1].Index != 0 {
		t.Errorf("indices = %d,%d, want 1,0", rec.changes[0].Index, rec.changes[1].Index)
	}

	// A structural remove after live changes must still find b.
	src.Remove(b)
	if got := v.Items(); !slices.Equal(got, []*person{c}) {
		t.Errorf("after removing b = %v, want [c]", names(got))
	}
}

func TestUnobservedFilterFieldIsIgnored(t *testing.T) {
	a := &person{Name: "a", Alive: true}
	v := mustView(t, observable.NewList(a),
		WithLiveShaping[*person](true),
		WithFilter[*person](func(p *person) bool { return p.Alive }),
	)
	a.SetAlive(false)
	if v.Len() != 1 {
		t.Errorf("view changed on an unobserved field: %v", names(v.Items()))
	}
	v.Refresh()
	if v.Len() != 0 {
		t.Errorf("Refresh should drop the item, got %v", names(v.Items()))
	}
}

func TestLiveShapingCursorFollowsMovedItem(t *testing.T) {
	a := &person{Name: "a", Age: 1}
	b := &person{Name: "b", Age: 2}
	c := &person{Name: "c", Age: 3}
	v := mustView(t, observable.NewList(a, b, c),
		WithLiveShaping[*person](true),
		WithSortKeys[*person](Asc("Age")),
	)

	v.MoveCurrentTo(a)
	a.SetAge(9)
	if item, _ := v.CurrentItem(); item != a || v.CurrentPosition() != 2 {
		t.Errorf("current = %v at %d, want a at 2", item.Name, v.CurrentPosition())
	}

	v.MoveCurrentTo(c)
	b.SetAge(10) // b moves from before c to after it
	if item, _ := v.CurrentItem(); item != c || v.CurrentPosition() != 0 {
		t.Errorf("current = %v at %d, want c at 0", item.Name, v.CurrentPosition())
	}
}

func TestLiveShapingDisabledIgnoresFieldChanges(t *testing.T) {
	a := &person{Name: "a", Age: 1}
	b := &person{Name: "b", Age: 2}
	v := mustView(t, observable.NewList(a, b), WithSortKeys[*person](Asc("Age")))

	a.SetAge(5)
	if got := v.Items(); !slices.Equal(got, []*person{a, b}) {
		t.Errorf("order = %v, want unchanged [a b]", names(got))
	}
	if n := v.itemSubscriptions(); n != 0 {
		t.Errorf("item subscriptions = %d, want 0", n)
	}
	if n := a.FieldSubscribers(); n != 0 {
		t.Errorf("a has %d field subscribers, want 0", n)
	}
}

func TestItemSubscriptionsTrackSource(t *testing.T) {
	a := &person{Name: "a"}
	b := &person{Name: "b"}
	src := observable.NewList(a, b, a)
	v := mustView(t, src, WithLiveShaping[*person](true))

	if n := v.itemSubscriptions(); n != 2 {
		t.Fatalf("item subscriptions = %d, want 2", n)
	}
	if a.FieldSubscribers() != 1 {
		t.Errorf("duplicate item subscribed %d times, want 1", a.FieldSubscribers())
	}

	src.Remove(a)
	if a.FieldSubscribers() != 1 {
		t.Error("item still in the source lost its subscription")
	}
	src.Remove(a)
	if a.FieldSubscribers() != 0 {
		t.Error("removed item kept its subscription")
	}

	src.Reset([]*person{a})
	if a.FieldSubscribers() != 1 || b.FieldSubscribers() != 0 {
		t.Errorf("after reset: a=%d b=%d, want 1 and 0", a.FieldSubscribers(), b.FieldSubscribers())
	}

	v.Close()
	if v.itemSubscriptions() != 0 || a.FieldSubscribers() != 0 || src.Subscribers() != 0 {
		t.Errorf("Close left subscriptions: view=%d item=%d source=%d",
			v.itemSubscriptions(), a.FieldSubscribers(), src.Subscribers())
	}
}

func TestSetSourceMovesSubscriptions(t *testing.T) {
	a := &person{Name: "a"}
	b := &person{Name: "b"}
	first := observable.NewList(a)
	second := observable.NewList(b)
	v := mustView(t, first, WithLiveShaping[*person](true))

	v.SetSource(second)
	if first.Subscribers() != 0 || a.FieldSubscribers() != 0 {
		t.Error("old source or its items still observed")
	}
	if second.Subscribers() != 1 || b.FieldSubscribers() != 1 {
		t.Error("new source or its items not observed")
	}
	if got := v.Items(); !slices.Equal(got, []*person{b}) {
		t.Errorf("view = %v, want [b]", names(got))
	}
}

func TestObservedFilterFieldsConfiguration(t *testing.T) {
	v := mustView(t, observable.NewList[*person]())
	v.ObserveFilterField("Status", "Age")
	if got := v.ObservedFilterFields(); !slices.Equal(got, []string{"Age", "Status"}) {
		t.Errorf("observed = %v", got)
	}
	v.ClearObservedFilterFields()
	if got := v.ObservedFilterFields(); len(got) != 0 {
		t.Errorf("observed after clear = %v", got)
	}
}
