package profile

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/auth"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/cart"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/logger"
	"github.com/iamtanmay-ui/riftbattle-sub000/internal/storage"

	"github.com/google/uuid"
)

const persistTimeout = 3 * time.Second

// Profile is the state of one browser profile: its cart and its login.
type Profile struct {
	ID   string
	Cart *cart.Store
	Auth *auth.Store

	lastUsed time.Time
}

// Registry keeps one Profile per id in memory, loading it from storage on
// first use and writing every mutation back.
type Registry struct {
	store storage.Store

	mu       sync.Mutex
	profiles map[string]*Profile
}

func NewRegistry(store storage.Store) *Registry {
	return &Registry{
		store:    store,
		profiles: make(map[string]*Profile),
	}
}

// NewID mints a profile id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an id minted by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the profile for id, loading it from storage on first use.
// Storage is read without holding the registry lock; when two requests
// race on a new id the first one stored wins.
func (r *Registry) Get(ctx context.Context, id string) *Profile {
	if p := r.lookup(id); p != nil {
		return p
	}

	p := r.open(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.profiles[id]; ok {
		existing.lastUsed = time.Now()
		return existing
	}
	r.profiles[id] = p
	return p
}

func (r *Registry) lookup(id string) *Profile {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil
	}
	p.lastUsed = time.Now()
	return p
}

func (r *Registry) open(ctx context.Context, id string) *Profile {
	p := &Profile{ID: id, lastUsed: time.Now()}
	p.Cart = cart.NewStore(func(snap cart.Snapshot) {
		r.persist(id, cart.StorageKey, snap)
	})
	p.Auth = auth.NewStore(func(snap auth.Snapshot) {
		r.persist(id, auth.StorageKey, snap)
	})

	var cartSnap cart.Snapshot
	if r.load(ctx, id, cart.StorageKey, &cartSnap) {
		p.Cart.Restore(cartSnap)
	}
	var authSnap auth.Snapshot
	if r.load(ctx, id, auth.StorageKey, &authSnap) {
		p.Auth.Restore(authSnap)
	}
	if t, ok := r.store.(storage.Toucher); ok {
		if err := t.Touch(ctx, id); err != nil {
			logger.Warn("Failed to record profile visit", "profile_id", id, "error", err)
		}
	}
	return p
}

func (r *Registry) load(ctx context.Context, id, key string, out interface{}) bool {
	raw, err := r.store.Load(ctx, id, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("Failed to load profile state, starting empty",
				"profile_id", id,
				"key", key,
				"error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.Warn("Discarding unreadable profile state",
			"profile_id", id,
			"key", key,
			"error", err)
		return false
	}
	return true
}

// persist failures are logged only: the in-memory state stays authoritative.
func (r *Registry) persist(id, key string, snapshot interface{}) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		logger.Error("Failed to encode profile state", "profile_id", id, "key", key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := r.store.Save(ctx, id, key, raw); err != nil {
		logger.Error("Failed to persist profile state",
			"profile_id", id,
			"key", key,
			"error", err)
	}
}

// Evict drops profiles idle for longer than maxIdle from memory. Their
// state remains in storage and is reloaded on next use.
func (r *Registry) Evict(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, p := range r.profiles {
		if time.Since(p.lastUsed) > maxIdle {
			delete(r.profiles, id)
			evicted++
		}
	}
	return evicted
}

// RunEviction evicts idle profiles every interval until ctx is done.
func (r *Registry) RunEviction(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(maxIdle); n > 0 {
				logger.Debug("Evicted idle profiles", "count", n)
			}
		}
	}
}
