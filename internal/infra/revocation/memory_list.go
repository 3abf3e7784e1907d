package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/service"
)

type memoryList struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryList keeps revoked token ids in process until they expire.
func NewMemoryList() service.TokenRevocationList {
	return newMemoryList(time.Now)
}

func newMemoryList(now func() time.Time) *memoryList {
	return &memoryList{entries: make(map[string]time.Time), now: now}
}

func (l *memoryList) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[tokenID] = l.now().Add(ttl)

	return nil
}

func (l *memoryList) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	expiresAt, ok := l.entries[tokenID]

	return ok && l.now().Before(expiresAt), nil
}

func (l *memoryList) Purge(_ context.Context) error {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()
	for id, expiresAt := range l.entries {
		if !now.Before(expiresAt) {
			delete(l.entries, id)
		}
	}

	return nil
}
