package main

import (
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/config"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/logger"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认卖家
	if err := models.InitDefaultSeller(cfg.Seed.SellerEmail, cfg.Seed.SellerPassword); err != nil {
		stdLog.Fatalf("Failed to init default seller: %v", err)
	}

	var seller models.User
	if err := models.DB.Where("role = ?", constants.UserRoleSeller).First(&seller).Error; err != nil {
		stdLog.Fatalf("Failed to load seller: %v", err)
	}

	// 演示买家
	hash, err := bcrypt.GenerateFromPassword([]byte("customer123"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash password: %v", err)
	}
	customer := models.User{
		Email:        "customer@example.com",
		PasswordHash: string(hash),
		Nickname:     "演示买家",
		Role:         constants.UserRoleCustomer,
		Status:       constants.UserStatusActive,
		Balance:      models.NewMoneyFromDecimal(decimal.NewFromInt(500)),
	}
	var customerCount int64
	models.DB.Model(&models.User{}).Where("email = ?", customer.Email).Count(&customerCount)
	if customerCount == 0 {
		if err := models.DB.Create(&customer).Error; err != nil {
			stdLog.Fatalf("Failed to create customer: %v", err)
		}
	}

	// 盲盒与奖池
	var boxCount int64
	models.DB.Model(&models.BlindBox{}).Count(&boxCount)
	if boxCount == 0 {
		now := time.Now()
		boxes := []struct {
			box    models.BlindBox
			prizes []models.PrizeItem
		}{
			{
				box: models.BlindBox{
					SellerID:    seller.ID,
					Name:        "星空系列盲盒",
					Description: "以星空为主题的手办系列，含隐藏款",
					Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(59.9)),
					Stock:       200,
					Status:      constants.BlindBoxStatusOnShelf,
					ListedAt:    &now,
				},
				prizes: []models.PrizeItem{
					{Name: "星尘小像", Rarity: constants.PrizeRarityNormal, Probability: 0.6},
					{Name: "月轨摆件", Rarity: constants.PrizeRarityRare, Probability: 0.3},
					{Name: "银河手办", Rarity: constants.PrizeRarityEpic, Probability: 0.08},
					{Name: "超新星隐藏款", Rarity: constants.PrizeRarityLegendary, Probability: 0.02},
				},
			},
			{
				box: models.BlindBox{
					SellerID:    seller.ID,
					Name:        "深海秘境盲盒",
					Description: "深海生物主题徽章系列",
					Price:       models.NewMoneyFromDecimal(decimal.NewFromFloat(29.9)),
					Stock:       500,
					Status:      constants.BlindBoxStatusOnShelf,
					ListedAt:    &now,
				},
				prizes: []models.PrizeItem{
					{Name: "水母徽章", Rarity: constants.PrizeRarityNormal, Probability: 0.7},
					{Name: "灯笼鱼徽章", Rarity: constants.PrizeRarityRare, Probability: 0.25},
					{Name: "鲸落徽章", Rarity: constants.PrizeRarityLegendary, Probability: 0.05},
				},
			},
		}
		for i := range boxes {
			if err := models.DB.Create(&boxes[i].box).Error; err != nil {
				stdLog.Fatalf("Failed to create blind box: %v", err)
			}
			for j := range boxes[i].prizes {
				boxes[i].prizes[j].BlindBoxID = boxes[i].box.ID
			}
			if err := models.DB.Create(&boxes[i].prizes).Error; err != nil {
				stdLog.Fatalf("Failed to create prize items: %v", err)
			}
		}
	}

	// 优惠券模板
	var couponCount int64
	models.DB.Model(&models.Coupon{}).Count(&couponCount)
	if couponCount == 0 {
		endsAt := time.Now().AddDate(0, 1, 0)
		coupons := []models.Coupon{
			{
				Name:      "满 100 减 10",
				Type:      constants.CouponTypeFixed,
				Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
				Threshold: models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
				IsActive:  true,
				EndsAt:    &endsAt,
			},
			{
				Name:     "全场 9 折",
				Type:     constants.CouponTypePercent,
				Rate:     models.NewMoneyFromDecimal(decimal.NewFromFloat(0.9)),
				IsActive: true,
				EndsAt:   &endsAt,
			},
		}
		if err := models.DB.Create(&coupons).Error; err != nil {
			stdLog.Fatalf("Failed to create coupons: %v", err)
		}
	}

	stdLog.Println("Seed data initialized")
}
