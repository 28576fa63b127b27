package access

import (
	"context"
	"errors"
	"testing"
)

func TestDefaultPolicy(t *testing.T) {
	p := NewPolicy(nil)

	if !p.Allows([]string{RoleAdmin}, PermSettingsEdit) {
		t.Error("admin should edit settings")
	}
	if !p.Allows([]string{RoleUser}, PermSalesAdd) {
		t.Error("user should record sales")
	}
	if p.Allows([]string{RoleUser}, PermPartsDelete) {
		t.Error("user must not delete parts")
	}
	if p.Allows([]string{RoleUser}, PermDashboard) {
		t.Error("user must not see dashboard")
	}
	if p.Allows([]string{"ghost"}, PermPartsView) {
		t.Error("unknown role has no permissions")
	}
}

func TestPolicyWildcardAndUnion(t *testing.T) {
	p := NewPolicy(map[string][]string{
		"owner":   {PermAll},
		"auditor": {PermSalesView},
		"stocker": {PermPartsView, PermPartsEdit},
	})
	if !p.Allows([]string{"owner"}, "anything.at.all") {
		t.Error("wildcard should allow everything")
	}
	perms := p.Permissions([]string{"auditor", "stocker"})
	want := []string{PermPartsEdit, PermPartsView, PermSalesView}
	if len(perms) != len(want) {
		t.Fatalf("expected %v, got %v", want, perms)
	}
	for i := range want {
		if perms[i] != want[i] {
			t.Errorf("perms[%d] = %s, want %s", i, perms[i], want[i])
		}
	}
}

func TestConfigCredentials(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	store := NewConfigCredentials([]User{{Username: "Counter", Name: "Front Counter", PasswordHash: hash, Roles: []string{RoleUser}}})

	id, err := store.Authenticate(context.Background(), "counter", "s3cret")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if id.UserID != "counter" || id.Name != "Front Counter" || len(id.Roles) != 1 {
		t.Errorf("unexpected identity %+v", id)
	}

	if _, err := store.Authenticate(context.Background(), "counter", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := store.Authenticate(context.Background(), "nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	if _, err := store.Lookup(context.Background(), "COUNTER"); err != nil {
		t.Errorf("lookup should be case-insensitive: %v", err)
	}
}
