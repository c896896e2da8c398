package survey

// Handlers is an ordered listener list. Add returns a func that removes the
// listener; calling it more than once is harmless.
type Handlers[T any] struct {
	next    int
	entries []handlerEntry[T]
}

type handlerEntry[T any] struct {
	id int
	fn func(T)
}

// Add registers fn and returns its remover.
func (h *Handlers[T]) Add(fn func(T)) (remove func()) {
	if fn == nil {
		return func() {}
	}
	h.next++
	id := h.next
	h.entries = append(h.entries, handlerEntry[T]{id: id, fn: fn})
	return func() {
		for i, entry := range h.entries {
			if entry.id == id {
				h.entries = append(h.entries[:i:i], h.entries[i+1:]...)
				return
			}
		}
	}
}

// Len reports the number of registered listeners.
func (h *Handlers[T]) Len() int {
	return len(h.entries)
}

// Reset drops every listener.
func (h *Handlers[T]) Reset() {
	h.entries = nil
}

func (h *Handlers[T]) fire(v T) {
	if len(h.entries) == 0 {
		return
	}
	snapshot := append([]handlerEntry[T](nil), h.entries...)
	for _, entry := range snapshot {
		entry.fn(v)
	}
}
