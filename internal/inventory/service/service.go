package service

import (
	"github.com/bitfantasy/partsdesk/internal/access"
	"github.com/bitfantasy/partsdesk/internal/config"
	"github.com/bitfantasy/partsdesk/internal/inventory/repository"
	"github.com/bitfantasy/partsdesk/internal/inventory/sse"
	"github.com/bitfantasy/partsdesk/internal/metrics"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务集合
type Services struct {
	Category  *CategoryService
	Model     *MobileModelService
	Part      *PartService
	Sale      *SaleService
	Setting   *SettingService
	PartType  *PartTypeService
	Dashboard *DashboardService
	Auth      *AuthService
	Import    *ImportService
	Receipt   *ReceiptService
}

// deps 各服务共享的基础设施
type deps struct {
	repos   *repository.Repositories
	cache   *dashboardCache
	hub     *sse.Hub
	metrics *metrics.Metrics
	logger  *zap.Logger
	inv     config.InventoryConfig
}

// NewServices 创建服务集合。rdb、hub、m 均可为 nil。
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, hub *sse.Hub, m *metrics.Metrics, logger *zap.Logger) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}

	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("MinIO disabled", zap.Error(err))
			minioClient = nil
		}
	}

	d := &deps{
		repos:   repos,
		cache:   &dashboardCache{rdb: rdb, ttl: cfg.Inventory.DashboardCacheTTL, logger: logger},
		hub:     hub,
		metrics: m,
		logger:  logger,
		inv:     cfg.Inventory,
	}

	settingSvc := NewSettingService(d)
	partSvc := NewPartService(d, settingSvc)
	policy := access.NewPolicy(cfg.Auth.Roles)

	return &Services{
		Category:  NewCategoryService(d),
		Model:     NewMobileModelService(d),
		Part:      partSvc,
		Sale:      NewSaleService(d),
		Setting:   settingSvc,
		PartType:  NewPartTypeService(d),
		Dashboard: NewDashboardService(d),
		Auth:      NewAuthService(access.NewConfigCredentials(cfg.Auth.Users), policy, rdb, cfg.JWT, m),
		Import:    NewImportService(d, partSvc, minioClient, cfg.MinIO.Bucket),
		Receipt:   NewReceiptService(d),
	}
}

// Policy 当前权限策略，供路由注册使用
func (s *Services) Policy() *access.Policy {
	return s.Auth.policy
}
