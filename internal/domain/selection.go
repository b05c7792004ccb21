package domain

// Selection is a set of items keyed by URL that remembers the order items
// were first selected in. It is not safe for concurrent use; views guard it
// with their own mutex.
type Selection[T any] struct {
	keys  []string
	items map[string]T
}

// NewSelection returns an empty selection.
func NewSelection[T any]() *Selection[T] {
	return &Selection[T]{items: map[string]T{}}
}

// Set adds item under key, or refreshes the stored item in place when key
// is already selected.
func (s *Selection[T]) Set(key string, item T) {
	if _, ok := s.items[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.items[key] = item
}

// Delete removes key.
func (s *Selection[T]) Delete(key string) {
	if _, ok := s.items[key]; !ok {
		return
	}
	delete(s.items, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i:i], s.keys[i+1:]...)
			break
		}
	}
}

// Has reports whether key is selected.
func (s *Selection[T]) Has(key string) bool {
	_, ok := s.items[key]
	return ok
}

// Get returns the item stored under key.
func (s *Selection[T]) Get(key string) (T, bool) {
	item, ok := s.items[key]
	return item, ok
}

// Len returns the number of selected items.
func (s *Selection[T]) Len() int {
	return len(s.keys)
}

// Items returns the selected items in selection order.
func (s *Selection[T]) Items() []T {
	out := make([]T, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.items[k])
	}
	return out
}
