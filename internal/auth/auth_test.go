package auth

import (
	"errors"
	"testing"

	"github.com/iamtanmay-ui/riftbattle-sub000/internal/models"
)

func TestRoleDerivation(t *testing.T) {
	tests := []struct {
		role         models.Role
		admin        bool
		seller       bool
		sellerAccess bool
	}{
		{models.RoleAdmin, true, true, true},
		{models.RoleSeller, false, true, true},
		{models.RoleUser, false, false, false},
	}

	for _, tt := range tests {
		s := NewStore(nil)
		s.SetUser(&models.User{ID: 1, Email: "player@riftbattle.com", Role: tt.role})

		if !s.IsAuthenticated() {
			t.Errorf("%s: expected authenticated", tt.role)
		}
		if s.IsAdmin() != tt.admin {
			t.Errorf("%s: expected isAdmin=%v", tt.role, tt.admin)
		}
		if s.IsSeller() != tt.seller {
			t.Errorf("%s: expected isSeller=%v", tt.role, tt.seller)
		}
		if s.HasSellerAccess() != tt.sellerAccess {
			t.Errorf("%s: expected hasSellerAccess=%v", tt.role, tt.sellerAccess)
		}
	}
}

func TestLogoutResetsFlags(t *testing.T) {
	s := NewStore(nil)
	s.SetUser(&models.User{ID: 1, Role: models.RoleSeller})
	s.SetUser(nil)

	if s.IsAuthenticated() {
		t.Error("Expected isAuthenticated to be false after logout")
	}
	if s.HasSellerAccess() {
		t.Error("Expected hasSellerAccess to be false after logout")
	}
	if s.User() != nil {
		t.Error("Expected no user after logout")
	}
}

func TestFlagOverridesCannotDesync(t *testing.T) {
	s := NewStore(nil)

	if err := s.SetIsAdmin(true); !errors.Is(err, ErrFlagConflict) {
		t.Errorf("Expected ErrFlagConflict with no user, got %v", err)
	}
	if err := s.SetIsAuthenticated(false); err != nil {
		t.Errorf("Expected consistent override to succeed, got %v", err)
	}

	s.SetUser(&models.User{ID: 2, Role: models.RoleUser})
	if err := s.SetIsSeller(true); !errors.Is(err, ErrFlagConflict) {
		t.Errorf("Expected ErrFlagConflict for plain user, got %v", err)
	}
	if s.HasSellerAccess() {
		t.Error("Expected rejected override to leave seller access off")
	}
}

func TestSetUserCopiesInput(t *testing.T) {
	s := NewStore(nil)
	u := &models.User{ID: 3, Role: models.RoleUser}
	s.SetUser(u)

	u.Role = models.RoleAdmin
	if s.IsAdmin() {
		t.Error("Expected store to be unaffected by caller mutation")
	}
}

func TestRestoreRederivesFlags(t *testing.T) {
	s := NewStore(nil)
	s.Restore(Snapshot{
		User:     &models.User{ID: 4, Role: models.RoleUser},
		IsAdmin:  true,
		IsSeller: true,
	})

	if s.IsAdmin() || s.IsSeller() {
		t.Error("Expected flags to follow the stored role, not the stored flags")
	}
	if !s.IsAuthenticated() {
		t.Error("Expected restored user to be authenticated")
	}
}

func TestPersistOnSetUser(t *testing.T) {
	var last Snapshot
	calls := 0
	s := NewStore(func(snap Snapshot) {
		calls++
		last = snap
	})

	s.SetUser(&models.User{ID: 5, Role: models.RoleSeller})

	if calls != 1 {
		t.Fatalf("Expected 1 persist call, got %d", calls)
	}
	if last.User == nil || !last.IsSeller {
		t.Errorf("Unexpected persisted snapshot %+v", last)
	}
}
