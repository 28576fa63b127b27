package service

import (
	"errors"
	"testing"

	"github.com/bitfantasy/partsdesk/internal/access"
)

func TestAuthLoginRefreshMe(t *testing.T) {
	hash, err := access.HashPassword("counter-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	env := newSvcEnv(t, withUsers(access.User{
		Username: "Clerk", Name: "Front Desk", PasswordHash: hash, Roles: []string{access.RoleUser},
	}))
	auth := env.svc.Auth

	if _, _, err := auth.Login(env.ctx, &LoginRequest{Username: "clerk", Password: "wrong"}); !errors.Is(err, access.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	pair, user, err := auth.Login(env.ctx, &LoginRequest{Username: "CLERK", Password: "counter-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.TokenType != "Bearer" || pair.ExpiresIn != 3600 {
		t.Errorf("unexpected token pair %+v", pair)
	}
	if user.UserID != "clerk" || user.Name != "Front Desk" {
		t.Errorf("unexpected user %+v", user.Identity)
	}
	if !contains(user.Permissions, access.PermSalesAdd) || contains(user.Permissions, access.PermPartsDelete) {
		t.Errorf("unexpected permissions %v", user.Permissions)
	}

	refreshed, err := auth.Refresh(env.ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Error("expected a new access token")
	}
	if _, err := auth.Refresh(env.ctx, pair.AccessToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("access token must not refresh, got %v", err)
	}
	if _, err := auth.Refresh(env.ctx, "garbage"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("expected ErrInvalidRefreshToken, got %v", err)
	}

	me, err := auth.Me(env.ctx, "clerk")
	if err != nil || me.Username != "Clerk" {
		t.Errorf("Me: %v %+v", err, me)
	}
	var nf *NotFoundError
	if _, err := auth.Me(env.ctx, "ghost"); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
	if err := auth.Logout(env.ctx, pair.RefreshToken); err != nil {
		t.Errorf("Logout: %v", err)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
