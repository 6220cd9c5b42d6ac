package auth

import (
	"errors"
	"sync"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/models"
)

// StorageKey names the persisted auth entry of a profile.
const StorageKey = "auth-storage"

// ErrFlagConflict is returned when a direct flag override would disagree
// with the role of the current user.
var ErrFlagConflict = errors.New("flag conflicts with current user role")

// Snapshot is the persisted form of a Store.
type Snapshot struct {
	User            *models.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsAdmin         bool         `json:"isAdmin"`
	IsSeller        bool         `json:"isSeller"`
}

type PersistFunc func(Snapshot)

// Store is the single authority on who is logged in for a profile.
type Store struct {
	mu      sync.RWMutex
	user    *models.User
	isAuth  bool
	isAdmin bool
	isSell  bool
	persist PersistFunc
}

func NewStore(persist PersistFunc) *Store {
	return &Store{persist: persist}
}

// Restore loads a snapshot without persisting it. Flags are re-derived
// from the stored user so a tampered snapshot cannot grant a role.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(snap.User)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	var u *models.User
	if s.user != nil {
		copied := *s.user
		u = &copied
	}
	return Snapshot{User: u, IsAuthenticated: s.isAuth, IsAdmin: s.isAdmin, IsSeller: s.isSell}
}

func (s *Store) commit() {
	if s.persist != nil {
		s.persist(s.snapshotLocked())
	}
}

// SetUser replaces the user wholesale and recomputes every flag. A nil user
// logs out.
func (s *Store) SetUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(user)
	s.commit()
}

func (s *Store) setLocked(user *models.User) {
	if user == nil {
		s.user = nil
		s.isAuth, s.isAdmin, s.isSell = false, false, false
		return
	}
	copied := *user
	s.user = &copied
	s.isAuth = true
	s.isAdmin = user.Role == models.RoleAdmin
	s.isSell = user.Role == models.RoleSeller || user.Role == models.RoleAdmin
}

// User returns a copy of the current user, or nil.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	copied := *s.user
	return &copied
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAuth
}

func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAdmin
}

func (s *Store) IsSeller() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSell
}

func (s *Store) HasSellerAccess() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSell || s.isAdmin
}

// SetIsAuthenticated overrides the flag. Only values consistent with the
// current user are accepted.
func (s *Store) SetIsAuthenticated(v bool) error {
	return s.override(v, func(u *models.User) bool { return u != nil }, &s.isAuth)
}

func (s *Store) SetIsAdmin(v bool) error {
	return s.override(v, func(u *models.User) bool {
		return u != nil && u.Role == models.RoleAdmin
	}, &s.isAdmin)
}

func (s *Store) SetIsSeller(v bool) error {
	return s.override(v, func(u *models.User) bool {
		return u != nil && (u.Role == models.RoleSeller || u.Role == models.RoleAdmin)
	}, &s.isSell)
}

func (s *Store) override(v bool, derive func(*models.User) bool, flag *bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if derive(s.user) != v {
		return ErrFlagConflict
	}
	if *flag != v {
		*flag = v
		s.commit()
	}
	return nil
}
