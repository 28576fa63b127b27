package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsAndEnv(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("expected DB_HOST override, got %s", cfg.Database.Host)
	}
	if cfg.Inventory.DefaultThreshold != 5 || cfg.Inventory.PriceTolerance != 0.01 {
		t.Errorf("unexpected inventory defaults: %+v", cfg.Inventory)
	}
	if !cfg.Inventory.ReactivateRetired {
		t.Error("reactivation should default to on")
	}
	if cfg.Redis.Enabled() {
		t.Error("redis should be disabled without a host")
	}
	if cfg.JWT.AccessTokenExpire != 8*time.Hour {
		t.Errorf("unexpected access expiry %v", cfg.JWT.AccessTokenExpire)
	}
}

func TestLoadFileWithUsersAndRoles(t *testing.T) {
	dir := t.TempDir()
	yaml := `
jwt:
  secret: file-secret
auth:
  users:
    - username: owner
      name: Shop Owner
      password_hash: "$2a$10$abcdefghijklmnopqrstuv"
      roles: [admin]
  roles:
    admin: ["*"]
    clerk: [sales.add, sales.view]
inventory:
  reactivate_retired: false
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Auth.Users) != 1 || cfg.Auth.Users[0].Username != "owner" || cfg.Auth.Users[0].Roles[0] != "admin" {
		t.Errorf("unexpected users: %+v", cfg.Auth.Users)
	}
	if len(cfg.Auth.Roles["clerk"]) != 2 {
		t.Errorf("unexpected roles: %+v", cfg.Auth.Roles)
	}
	if cfg.Inventory.ReactivateRetired {
		t.Error("file should disable reactivation")
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without jwt secret")
	}
}
