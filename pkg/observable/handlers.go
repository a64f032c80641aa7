package observable

import "slices"

// Handlers is an ordered registry of callbacks for one event type. The zero
// value is ready to use. It is not safe for concurrent use.
type Handlers[E any] struct {
	next    uint64
	entries []handlerEntry[E]
}

type handlerEntry[E any] struct {
	id uint64
	fn func(E)
}

// Add registers fn and returns a function that removes it again. Calling the
// returned function more than once is harmless.
func (h *Handlers[E]) Add(fn func(E)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	h.next++
	id := h.next
	h.entries = append(h.entries, handlerEntry[E]{id: id, fn: fn})
	return func() { h.remove(id) }
}

func (h *Handlers[E]) remove(id uint64) {
	idx := slices.IndexFunc(h.entries, func(e handlerEntry[E]) bool { return e.id == id })
	if idx < 0 {
		return
	}
	h.entries = slices.Delete(h.entries, idx, idx+1)
}

// Emit calls every registered handler in registration order. Handlers added or
// removed during Emit take effect on the next call.
func (h *Handlers[E]) Emit(e E) {
	if len(h.entries) == 0 {
		return
	}
	for _, entry := range slices.Clone(h.entries) {
		entry.fn(e)
	}
}

// Len returns the number of registered handlers.
func (h *Handlers[E]) Len() int {
	return len(h.entries)
}
