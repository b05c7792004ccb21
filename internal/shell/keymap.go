package shell

import (
	"strings"
	"sync"
)

// Key is a navigation key.
type Key string

const (
	KeyRight Key = "right"
	KeyLeft  Key = "left"
)

// ParseKey maps console input to a key. ANSI arrow sequences, the arrow
// glyphs and the words "right" and "left" are understood.
func ParseKey(input string) (Key, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "\x1b[c", "\x1boc", "→", "right":
		return KeyRight, true
	case "\x1b[d", "\x1bod", "←", "left":
		return KeyLeft, true
	default:
		return "", false
	}
}

type binding struct {
	id int
	fn func()
}

// Keymap dispatches keys to every handler bound to them, in bind order.
type Keymap struct {
	mu       sync.Mutex
	nextID   int
	bindings map[Key][]binding
}

// NewKeymap returns an empty keymap.
func NewKeymap() *Keymap {
	return &Keymap{bindings: map[Key][]binding{}}
}

// Bind registers fn for key and returns a function that removes it.
func (k *Keymap) Bind(key Key, fn func()) (unbind func()) {
	k.mu.Lock()
	k.nextID++
	id := k.nextID
	k.bindings[key] = append(k.bindings[key], binding{id: id, fn: fn})
	k.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			k.mu.Lock()
			defer k.mu.Unlock()
			list := k.bindings[key]
			for i, b := range list {
				if b.id == id {
					k.bindings[key] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(k.bindings[key]) == 0 {
				delete(k.bindings, key)
			}
		})
	}
}

// Dispatch runs the handlers bound to key and reports whether any ran.
func (k *Keymap) Dispatch(key Key) bool {
	k.mu.Lock()
	handlers := make([]func(), 0, len(k.bindings[key]))
	for _, b := range k.bindings[key] {
		handlers = append(handlers, b.fn)
	}
	k.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
	return len(handlers) > 0
}

// Bound returns how many handlers are registered for key.
func (k *Keymap) Bound(key Key) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.bindings[key])
}
