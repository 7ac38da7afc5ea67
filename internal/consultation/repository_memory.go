package consultation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps consultations in process memory. Values are copied
// on the way in and out.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Consultation
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[uuid.UUID]*Consultation)}
}

func (r *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Consultation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.clone(), nil
}

func (r *MemoryRepository) Save(_ context.Context, c *Consultation) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[c.ID] = c.clone()
	return nil
}
