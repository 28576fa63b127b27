package service

import (
	"context"
	"testing"

	"github.com/bitfantasy/partsdesk/internal/access"
	"github.com/bitfantasy/partsdesk/internal/config"
	"github.com/bitfantasy/partsdesk/internal/inventory/repository"
	"github.com/bitfantasy/partsdesk/internal/inventory/sse"
	"github.com/bitfantasy/partsdesk/internal/inventory/testutil"
	"github.com/bitfantasy/partsdesk/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type svcEnv struct {
	db  *gorm.DB
	svc *Services
	hub *sse.Hub
	ctx context.Context
}

func newSvcEnv(t *testing.T, opts ...func(*config.Config)) *svcEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	cfg := testutil.TestConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	hub := sse.NewHub(zap.NewNop())
	svc := NewServices(repository.NewRepositories(db), nil, cfg, hub, metrics.New("test"), zap.NewNop())
	return &svcEnv{db: db, svc: svc, hub: hub, ctx: context.Background()}
}

func withUsers(users ...access.User) func(*config.Config) {
	return func(cfg *config.Config) {
		cfg.Auth.Users = users
	}
}

func price(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
