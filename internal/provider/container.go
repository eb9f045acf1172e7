package provider

import (
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/cache"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/config"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/logger"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/queue"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo        repository.UserRepository
	BlindBoxRepo    repository.BlindBoxRepository
	PrizeItemRepo   repository.PrizeItemRepository
	OrderRepo       repository.OrderRepository
	OrderItemRepo   repository.OrderItemRepository
	CouponRepo      repository.CouponRepository
	UserCouponRepo  repository.UserCouponRepository
	WalletTxnRepo   repository.WalletTransactionRepository
	PaymentRepo     repository.PaymentRepository
	AddressRepo     repository.AddressRepository
	PostRepo        repository.PostRepository

	// Services
	UserAuthService *service.UserAuthService
	BlindBoxService *service.BlindBoxService
	PrizeService    *service.PrizeService
	CouponService   *service.CouponService
	WalletService   *service.WalletService
	OrderService    *service.OrderService
	PaymentService  *service.PaymentService
	AddressService  *service.AddressService
	PostService     *service.PostService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.BlindBoxRepo = repository.NewBlindBoxRepository(db)
	c.PrizeItemRepo = repository.NewPrizeItemRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.OrderItemRepo = repository.NewOrderItemRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.UserCouponRepo = repository.NewUserCouponRepository(db)
	c.WalletTxnRepo = repository.NewWalletTransactionRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.PostRepo = repository.NewPostRepository(db)
}

func (c *Container) initServices() {
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.BlindBoxService = service.NewBlindBoxService(c.BlindBoxRepo, c.PrizeItemRepo)
	c.PrizeService = service.NewPrizeService(c.PrizeItemRepo, nil)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.UserCouponRepo)
	c.WalletService = service.NewWalletService(c.UserRepo, c.WalletTxnRepo)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.OrderItemRepo,
		c.BlindBoxRepo,
		c.UserCouponRepo,
		c.CouponService,
		c.WalletService,
		c.PrizeService,
		c.QueueClient,
		c.Config.Order.TimeoutCancelSeconds,
		c.Config.Order.AutoDeliverSeconds,
	)
	c.PaymentService = service.NewPaymentService(c.OrderRepo, c.PaymentRepo, c.OrderService, &c.Config.Epay)
	c.AddressService = service.NewAddressService(c.AddressRepo)
	c.PostService = service.NewPostService(c.PostRepo, c.OrderRepo, c.OrderItemRepo)
}
