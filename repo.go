package labelmerge

import (
	"context"
	"fmt"
	"sync"
)

// Repository persists produced documents. The engine never talks to
// storage directly: callers inject an implementation (object storage in
// production, MemoryRepository in tests). Never ambient state.
type Repository interface {
	// Save stores a produced document and returns its storage key.
	Save(ctx context.Context, name string, data []byte) (string, error)
	// Load retrieves a previously stored document.
	Load(ctx context.Context, key string) ([]byte, error)
}

// MemoryRepository is an in-memory Repository for tests and ephemeral
// runs.
type MemoryRepository struct {
	mu    sync.RWMutex
	files map[string][]byte
	seq   int
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{files: make(map[string][]byte)}
}

// Save stores a copy of data under a generated key.
func (r *MemoryRepository) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	key := fmt.Sprintf("mem/%d/%s", r.seq, name)
	r.files[key] = append([]byte(nil), data...)
	return key, nil
}

// Load returns a copy of the stored document.
func (r *MemoryRepository) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.files[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRepoNotFound, key)
	}
	return append([]byte(nil), data...), nil
}

// Len reports how many documents are stored.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}
