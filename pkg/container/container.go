package container

import (
	"context"
	"fmt"

	"shopora-backend/internal/config"
	cartHandler "shopora-backend/internal/domains/cart/handler"
	cartRepo "shopora-backend/internal/domains/cart/repository"
	cartService "shopora-backend/internal/domains/cart/service"
	couponHandler "shopora-backend/internal/domains/coupon/handler"
	couponRepo "shopora-backend/internal/domains/coupon/repository"
	couponService "shopora-backend/internal/domains/coupon/service"
	orderHandler "shopora-backend/internal/domains/order/handler"
	orderRepo "shopora-backend/internal/domains/order/repository"
	orderService "shopora-backend/internal/domains/order/service"
	"shopora-backend/internal/domains/payment/gateway"
	"shopora-backend/internal/domains/payment/gateway/stripe"
	productHandler "shopora-backend/internal/domains/product/handler"
	productRepo "shopora-backend/internal/domains/product/repository"
	productService "shopora-backend/internal/domains/product/service"
	userHandler "shopora-backend/internal/domains/user/handler"
	userRepo "shopora-backend/internal/domains/user/repository"
	userService "shopora-backend/internal/domains/user/service"
	"shopora-backend/internal/infrastructure/cache"
	"shopora-backend/internal/infrastructure/database"
	"shopora-backend/internal/infrastructure/email"
	"shopora-backend/internal/infrastructure/queue"
	"shopora-backend/internal/infrastructure/storage"
	"shopora-backend/pkg/jwt"
	"shopora-backend/pkg/logger"
)

// =====================================================
// DEPENDENCY CONTAINER
// =====================================================
// Container wires the whole application: infrastructure first, then
// repositories, services and handlers. Construction fails fast on any
// unreachable dependency.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB          *database.PostgresDB
	Redis       *cache.RedisClient
	QueueClient *queue.Client
	Storage     *storage.MinIOStorage
	Email       email.EmailService
	JWTManager  *jwt.Manager
	Gateway     gateway.PaymentGateway
	Idempotency cache.IdempotencyGuard

	// Repositories
	UserRepo    userRepo.UserRepository
	ProductRepo productRepo.ProductRepository
	CouponRepo  couponRepo.CouponRepository
	CartRepo    cartRepo.CartRepository
	OrderRepo   orderRepo.OrderRepository

	// Services
	UserService    userService.UserService
	ProductService productService.ProductService
	CouponService  couponService.CouponService
	CartService    cartService.CartService
	OrderService   orderService.OrderService

	// Handlers
	UserHandler    *userHandler.UserHandler
	ProductHandler *productHandler.ProductHandler
	CouponHandler  *couponHandler.CouponHandler
	CartHandler    *cartHandler.CartHandler
	OrderHandler   *orderHandler.OrderHandler
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	if err := c.initInfrastructure(ctx); err != nil {
		return nil, err
	}

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	logger.Info("🚀 Container initialized", map[string]interface{}{
		"environment": cfg.App.Environment,
	})

	return c, nil
}

func (c *Container) initInfrastructure(ctx context.Context) error {
	// Database
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	c.DB = database.NewPostgresDB(dbConfig)
	if err := c.DB.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info("✅ Database connected", nil)

	// Redis
	c.Redis = cache.NewRedisClient(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.Idempotency = cache.NewIdempotencyGuard(c.Redis)
	logger.Info("✅ Redis connected", nil)

	// Task queue client
	c.QueueClient = queue.NewClient(c.Config.Jobs.RedisAddr)

	// Object storage
	c.Storage, err = storage.NewMinIOStorage(c.Config.MinIO)
	if err != nil {
		return fmt.Errorf("failed to init storage: %w", err)
	}
	logger.Info("✅ Storage ready", nil)

	// Email
	c.Email = email.NewSMTPEmailService(c.Config.SMTP.Host, c.Config.SMTP.Port, c.Config.SMTP.From)

	// Auth
	c.JWTManager = jwt.NewManager(c.Config.JWT.Secret)

	// Payment gateway
	c.Gateway = stripe.NewClient(c.Config.Stripe)

	return nil
}

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UserRepo = userRepo.NewPostgresUserRepository(pool)
	c.ProductRepo = productRepo.NewPostgresProductRepository(pool)
	c.CouponRepo = couponRepo.NewPostgresCouponRepository(pool)
	c.CartRepo = cartRepo.NewPostgresCartRepository(pool)
	c.OrderRepo = orderRepo.NewPostgresOrderRepository(pool)
}

func (c *Container) initServices() {
	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager)
	c.ProductService = productService.NewProductService(c.ProductRepo, c.Storage, c.QueueClient)
	c.CouponService = couponService.NewCouponService(c.CouponRepo)
	c.CartService = cartService.NewCartService(c.CartRepo, c.ProductService)

	c.OrderService = orderService.NewOrderService(orderService.Deps{
		Orders:      c.OrderRepo,
		Products:    c.ProductRepo,
		Checker:     c.ProductService,
		Coupons:     c.CouponService,
		CouponDB:    c.CouponRepo,
		Carts:       c.CartRepo,
		Users:       c.UserRepo,
		Gateway:     c.Gateway,
		Idempotency: c.Idempotency,
		QueueClient: c.QueueClient,
		Mailer:      c.Email,
	})
}

func (c *Container) initHandlers() {
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.ProductHandler = productHandler.NewProductHandler(c.ProductService)
	c.CouponHandler = couponHandler.NewCouponHandler(c.CouponService)
	c.CartHandler = cartHandler.NewCartHandler(c.CartService)
	c.OrderHandler = orderHandler.NewOrderHandler(c.OrderService, c.Config.Stripe.WebhookSecret)
}

// Cleanup closes everything the container opened, in reverse order.
func (c *Container) Cleanup() {
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Error("Failed to close queue client", err)
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("Failed to close redis", err)
		}
	}

	if c.DB != nil && c.DB.Pool != nil {
		c.DB.Pool.Close()
	}

	logger.Info("👋 Container cleaned up", nil)
}
