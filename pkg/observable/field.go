package observable

// FieldNotifier is implemented by items that report changes to their own
// fields. The callback receives the name of the changed field.
type FieldNotifier interface {
	OnFieldChanged(fn func(field string)) (cancel func())
}

// FieldChanges is an embeddable FieldNotifier implementation.
//
//	type Task struct {
//	    observable.FieldChanges
//	    Title string
//	}
//
//	func (t *Task) SetTitle(s string) {
//	    t.Title = s
//	    t.NotifyFieldChanged("Title")
//	}
type FieldChanges struct {
	handlers Handlers[string]
}

// OnFieldChanged implements FieldNotifier.
func (f *FieldChanges) OnFieldChanged(fn func(field string)) (cancel func()) {
	return f.handlers.Add(fn)
}

// NotifyFieldChanged tells every subscriber that field changed.
func (f *FieldChanges) NotifyFieldChanged(field string) {
	f.handlers.Emit(field)
}

// FieldSubscribers returns the number of live subscriptions.
func (f *FieldChanges) FieldSubscribers() int {
	return f.handlers.Len()
}
