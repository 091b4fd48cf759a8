package broadcast

import (
	"sync"

	"FinSignal/internal/domain/models"
)

// Ring keeps the most recently broadcast signals for history dumps when the
// store cannot be read.
type Ring struct {
	mu   sync.RWMutex
	buf  []models.Signal
	next int
	full bool
}

func NewRing(size int) *Ring {
	if size <= 0 {
		size = 1
	}
	return &Ring{buf: make([]models.Signal, size)}
}

func (r *Ring) Add(s models.Signal) {
	r.mu.Lock()
	r.buf[r.next] = s
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()
}

// Recent returns up to n signals, newest first.
func (r *Ring) Recent(n int) []models.Signal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	size := r.next
	if r.full {
		size = len(r.buf)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]models.Signal, 0, n)
	for i := 1; i <= n; i++ {
		idx := (r.next - i + len(r.buf)) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}
