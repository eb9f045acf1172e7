package router

import (
	"fmt"
	"strings"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/cache"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/config"
	publichandlers "github.com/AdamAmon/blindboxmall-backside-sub000/internal/http/handlers/public"
	sellerhandlers "github.com/AdamAmon/blindboxmall-backside-sub000/internal/http/handlers/seller"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/logger"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按买家/卖家分组）
	publicHandler := publichandlers.New(c)
	sellerHandler := sellerhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "bbm"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       "登录尝试过于频繁，请稍后再试",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 静态文件服务（上传的图片）- 必须放在最前面
	r.Static("/uploads", "./uploads")

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/blind-boxes", publicHandler.GetBlindBoxes)
			public.GET("/blind-boxes/:id", publicHandler.GetBlindBox)
			public.GET("/posts", publicHandler.GetPosts)
			public.GET("/posts/:id", publicHandler.GetPost)
			public.GET("/coupons", publicHandler.GetCoupons)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)
			user.PUT("/me/profile", publicHandler.UpdateUserProfile)
			user.PUT("/me/password", publicHandler.ChangeUserPassword)
			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/orders/:id/pay", publicHandler.PayOrder)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)
			user.POST("/orders/:id/confirm", publicHandler.ConfirmOrder)
			user.GET("/orders/:id/payments", publicHandler.ListOrderPayments)
			user.POST("/order-items/:item_id/open", publicHandler.OpenOrderItem)
			user.POST("/blind-boxes/draw", publicHandler.DrawBlindBox)
			user.POST("/payments", publicHandler.CreatePayment)
			user.GET("/payments/:id", publicHandler.GetPayment)
			user.GET("/wallet", publicHandler.GetMyWallet)
			user.GET("/wallet/transactions", publicHandler.GetMyWalletTransactions)
			user.POST("/wallet/recharge", publicHandler.RechargeWallet)
			user.POST("/coupons/:id/claim", publicHandler.ClaimCoupon)
			user.GET("/me/coupons", publicHandler.GetMyCoupons)
			user.GET("/addresses", publicHandler.ListAddresses)
			user.POST("/addresses", publicHandler.CreateAddress)
			user.GET("/addresses/:id", publicHandler.GetAddress)
			user.PUT("/addresses/:id", publicHandler.UpdateAddress)
			user.DELETE("/addresses/:id", publicHandler.DeleteAddress)
			user.POST("/posts", publicHandler.CreatePost)
			user.PUT("/posts/:id", publicHandler.UpdatePost)
			user.DELETE("/posts/:id", publicHandler.DeletePost)
		}

		// 支付网关异步回调（无鉴权，验签在服务层）
		apiV1.POST("/payments/callback/epay", publicHandler.EpayNotify)
		apiV1.GET("/payments/callback/epay", publicHandler.EpayNotify)

		// 卖家接口
		seller := apiV1.Group("/seller")
		seller.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo), RequireSellerMiddleware())
		{
			seller.GET("/blind-boxes", sellerHandler.ListMyBlindBoxes)
			seller.POST("/blind-boxes", sellerHandler.CreateBlindBox)
			seller.PUT("/blind-boxes/:id", sellerHandler.UpdateBlindBox)
			seller.DELETE("/blind-boxes/:id", sellerHandler.DeleteBlindBox)
			seller.POST("/blind-boxes/:id/prizes", sellerHandler.AddPrizeItem)
			seller.PUT("/prizes/:item_id", sellerHandler.UpdatePrizeItem)
			seller.DELETE("/prizes/:item_id", sellerHandler.DeletePrizeItem)
			seller.POST("/coupons", sellerHandler.CreateCoupon)
			seller.GET("/coupons", sellerHandler.ListCoupons)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
