package repository

import (
	"context"
	"ctchen222/tic-tac-toe-minimax/internal/game"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	game      *game.Game
	expiresAt time.Time
}

type memoryGameRepository struct {
	mu        sync.Mutex
	games     map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

// NewMemoryGameRepository creates a process-local GameRepository, used when
// Redis is disabled. Like the Redis keys, a game expires ttl after its last
// write; a ttl of zero keeps games forever.
func NewMemoryGameRepository(ttl time.Duration) GameRepository {
	return &memoryGameRepository{
		games: make(map[string]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (r *memoryGameRepository) expiry(now time.Time) time.Time {
	if r.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(r.ttl)
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// lookup returns the live entry for id, dropping it if it has expired.
// r.mu must be held.
func (r *memoryGameRepository) lookup(id string, now time.Time) (memoryEntry, bool) {
	entry, ok := r.games[id]
	if !ok {
		return memoryEntry{}, false
	}
	if entry.expired(now) {
		delete(r.games, id)
		return memoryEntry{}, false
	}
	return entry, true
}

// sweep drops every expired game, at most once per ttl. r.mu must be held.
func (r *memoryGameRepository) sweep(now time.Time) {
	if r.ttl <= 0 || now.Before(r.nextSweep) {
		return
	}
	for id, entry := range r.games {
		if entry.expired(now) {
			delete(r.games, id)
		}
	}
	r.nextSweep = now.Add(r.ttl)
}

func (r *memoryGameRepository) Create(ctx context.Context, id string, g *game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	if _, exists := r.lookup(id, now); exists {
		return fmt.Errorf("game %s already exists", id)
	}
	r.games[id] = memoryEntry{game: cloneGame(g), expiresAt: r.expiry(now)}
	return nil
}

func (r *memoryGameRepository) FindByID(ctx context.Context, id string) (*game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.lookup(id, r.now())
	if !ok {
		return nil, ErrGameNotFound
	}
	return cloneGame(entry.game), nil
}

func (r *memoryGameRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*game.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	entry, ok := r.lookup(id, now)
	if !ok {
		return nil, ErrGameNotFound
	}

	g := cloneGame(entry.game)
	if err := fn(g); err != nil {
		return nil, err
	}
	r.games[id] = memoryEntry{game: g, expiresAt: r.expiry(now)}
	return cloneGame(g), nil
}

func (r *memoryGameRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.games, id)
	return nil
}

func (r *memoryGameRepository) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}
