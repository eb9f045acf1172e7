package service

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/queue"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type orderServiceTestEnv struct {
	db       *gorm.DB
	orderSvc *OrderService
	prizeSvc *PrizeService
}

func setupOrderServiceTest(t *testing.T) *orderServiceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.BlindBox{},
		&models.PrizeItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Coupon{},
		&models.UserCoupon{},
		&models.WalletTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	userRepo := repository.NewUserRepository(db)
	txnRepo := repository.NewWalletTransactionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	orderItemRepo := repository.NewOrderItemRepository(db)
	boxRepo := repository.NewBlindBoxRepository(db)
	prizeRepo := repository.NewPrizeItemRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	userCouponRepo := repository.NewUserCouponRepository(db)

	couponSvc := NewCouponService(couponRepo, userCouponRepo)
	walletSvc := NewWalletService(userRepo, txnRepo)
	prizeSvc := NewPrizeService(prizeRepo, fixedRandSource{value: 0.0})
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	orderSvc := NewOrderService(orderRepo, orderItemRepo, boxRepo, userCouponRepo, couponSvc, walletSvc, prizeSvc, queueClient, 600, 30)

	return &orderServiceTestEnv{db: db, orderSvc: orderSvc, prizeSvc: prizeSvc}
}

func seedOrderTestUser(t *testing.T, db *gorm.DB, balance string) *models.User {
	t.Helper()
	amount, err := decimal.NewFromString(balance)
	if err != nil {
		t.Fatalf("parse balance failed: %v", err)
	}
	user := &models.User{
		Email:        fmt.Sprintf("order_%d@example.com", time.Now().UnixNano()),
		PasswordHash: "hash",
		Nickname:     "下单用户",
		Role:         constants.UserRoleCustomer,
		Status:       constants.UserStatusActive,
		Balance:      models.NewMoneyFromDecimal(amount),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func seedOrderTestBox(t *testing.T, db *gorm.DB, price string, stock int) *models.BlindBox {
	t.Helper()
	amount, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("parse price failed: %v", err)
	}
	box := &models.BlindBox{
		SellerID: 1,
		Name:     "测试盲盒",
		Price:    models.NewMoneyFromDecimal(amount),
		Stock:    stock,
		Status:   constants.BlindBoxStatusOnShelf,
	}
	if err := db.Create(box).Error; err != nil {
		t.Fatalf("create blind box failed: %v", err)
	}
	seedPrizeItems(t, db, box.ID, []float64{0.6, 0.4})
	return box
}

func TestCreateOrderExpandsItemsAndComputesAmounts(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "100.00")
	box := seedOrderTestBox(t, env.db, "19.90", 10)

	order, err := env.orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		Items:         []CreateOrderItem{{BlindBoxID: box.ID, Quantity: 2}},
		DeclaredTotal: decimal.NewFromFloat(39.80),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("expected pending, got %s", order.Status)
	}
	if order.ExpiresAt == nil {
		t.Fatalf("expected expires_at to be set")
	}
	if order.TotalAmount.Decimal.StringFixed(2) != "39.80" {
		t.Fatalf("expected total 39.80, got %s", order.TotalAmount.Decimal.StringFixed(2))
	}

	var itemCount int64
	if err := env.db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&itemCount).Error; err != nil {
		t.Fatalf("count items failed: %v", err)
	}
	if itemCount != 2 {
		t.Fatalf("expected 2 item rows, got %d", itemCount)
	}
}

func TestCreateOrderRejectsAmountMismatch(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "100.00")
	box := seedOrderTestBox(t, env.db, "19.90", 10)

	_, err := env.orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		Items:         []CreateOrderItem{{BlindBoxID: box.ID, Quantity: 1}},
		DeclaredTotal: decimal.NewFromFloat(10.00),
	})
	if !errors.Is(err, ErrOrderAmountMismatch) {
		t.Fatalf("expected ErrOrderAmountMismatch, got %v", err)
	}
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "100.00")

	_, err := env.orderSvc.CreateOrder(CreateOrderInput{UserID: user.ID})
	if !errors.Is(err, ErrOrderItemsEmpty) {
		t.Fatalf("expected ErrOrderItemsEmpty, got %v", err)
	}
}

func TestCreateOrderAppliesFixedCoupon(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "100.00")
	box := seedOrderTestBox(t, env.db, "30.00", 10)

	coupon := &models.Coupon{
		Name:      "满50减10",
		Type:      constants.CouponTypeFixed,
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		Threshold: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		IsActive:  true,
	}
	if err := env.db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	userCoupon := &models.UserCoupon{
		UserID:   user.ID,
		CouponID: coupon.ID,
		Status:   constants.UserCouponStatusUnused,
	}
	if err := env.db.Create(userCoupon).Error; err != nil {
		t.Fatalf("create user coupon failed: %v", err)
	}

	order, err := env.orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		Items:         []CreateOrderItem{{BlindBoxID: box.ID, Quantity: 2}},
		UserCouponID:  userCoupon.ID,
		DeclaredTotal: decimal.NewFromFloat(50.00),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.DiscountAmount.Decimal.StringFixed(2) != "10.00" {
		t.Fatalf("expected discount 10.00, got %s", order.DiscountAmount.Decimal.StringFixed(2))
	}

	var reloaded models.UserCoupon
	if err := env.db.First(&reloaded, userCoupon.ID).Error; err != nil {
		t.Fatalf("reload user coupon failed: %v", err)
	}
	if reloaded.Status != constants.UserCouponStatusUsed {
		t.Fatalf("expected coupon used, got %s", reloaded.Status)
	}
}

func TestPayOrderBalanceFlow(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "100.00")
	box := seedOrderTestBox(t, env.db, "19.90", 5)

	order, err := env.orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		Items:         []CreateOrderItem{{BlindBoxID: box.ID, Quantity: 2}},
		DeclaredTotal: decimal.NewFromFloat(39.80),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	paid, err := env.orderSvc.PayOrder(order.ID, user.ID)
	if err != nil {
		t.Fatalf("pay order failed: %v", err)
	}
	if paid.Status != constants.OrderStatusDelivering {
		t.Fatalf("expected delivering, got %s", paid.Status)
	}
	if paid.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}

	var reloadedUser models.User
	if err := env.db.First(&reloadedUser, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloadedUser.Balance.Decimal.StringFixed(2) != "60.20" {
		t.Fatalf("expected balance 60.20, got %s", reloadedUser.Balance.Decimal.StringFixed(2))
	}

	var reloadedBox models.BlindBox
	if err := env.db.First(&reloadedBox, box.ID).Error; err != nil {
		t.Fatalf("reload box failed: %v", err)
	}
	if reloadedBox.Stock != 3 {
		t.Fatalf("expected stock 3, got %d", reloadedBox.Stock)
	}
}

func TestPayOrderInsufficientBalance(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "10.00")
	box := seedOrderTestBox(t, env.db, "19.90", 5)

	order, err := env.orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		Items:         []CreateOrderItem{{BlindBoxID: box.ID, Quantity: 1}},
		DeclaredTotal: decimal.NewFromFloat(19.90),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := env.orderSvc.PayOrder(order.ID, user.ID); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	var reloadedBox models.BlindBox
	if err := env.db.First(&reloadedBox, box.ID).Error; err != nil {
		t.Fatalf("reload box failed: %v", err)
	}
	if reloadedBox.Stock != 5 {
		t.Fatalf("expected stock untouched, got %d", reloadedBox.Stock)
	}
}

func TestPayOrderRejectsNonPending(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "100.00")
	box := seedOrderTestBox(t, env.db, "19.90", 5)

	order, err := env.orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		Items:         []CreateOrderItem{{BlindBoxID: box.ID, Quantity: 1}},
		DeclaredTotal: decimal.NewFromFloat(19.90),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := env.orderSvc.PayOrder(order.ID, user.ID); err != nil {
		t.Fatalf("first pay failed: %v", err)
	}
	if _, err := env.orderSvc.PayOrder(order.ID, user.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid, got %v", err)
	}
}

func TestPayOrderExpiredIsCancelled(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "100.00")
	box := seedOrderTestBox(t, env.db, "19.90", 5)

	order, err := env.orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		Items:         []CreateOrderItem{{BlindBoxID: box.ID, Quantity: 1}},
		DeclaredTotal: decimal.NewFromFloat(19.90),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	expired := time.Now().Add(-time.Minute)
	if err := env.db.Model(&models.Order{}).Where("id = ?", order.ID).Update("expires_at", expired).Error; err != nil {
		t.Fatalf("backdate expires_at failed: %v", err)
	}

	if _, err := env.orderSvc.PayOrder(order.ID, user.ID); !errors.Is(err, ErrOrderCancelled) {
		t.Fatalf("expected ErrOrderCancelled, got %v", err)
	}

	reloaded, err := env.orderSvc.GetOrder(order.ID, user.ID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", reloaded.Status)
	}
}

func TestConfirmOrderLifecycle(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "100.00")
	box := seedOrderTestBox(t, env.db, "19.90", 5)

	order, err := env.orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		Items:         []CreateOrderItem{{BlindBoxID: box.ID, Quantity: 1}},
		DeclaredTotal: decimal.NewFromFloat(19.90),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := env.orderSvc.PayOrder(order.ID, user.ID); err != nil {
		t.Fatalf("pay order failed: %v", err)
	}

	// 发货中不能确认收货
	if _, err := env.orderSvc.ConfirmOrder(order.ID, user.ID); !errors.Is(err, ErrOrderNotDelivered) {
		t.Fatalf("expected ErrOrderNotDelivered, got %v", err)
	}

	if err := env.orderSvc.DeliverOrder(order.ID); err != nil {
		t.Fatalf("deliver order failed: %v", err)
	}
	confirmed, err := env.orderSvc.ConfirmOrder(order.ID, user.ID)
	if err != nil {
		t.Fatalf("confirm order failed: %v", err)
	}
	if confirmed.Status != constants.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", confirmed.Status)
	}
	if confirmed.CompletedAt == nil {
		t.Fatalf("expected completed_at to be set")
	}
}

func TestCancelExpiredOrderSkipsNonPending(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "100.00")
	box := seedOrderTestBox(t, env.db, "19.90", 5)

	order, err := env.orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		Items:         []CreateOrderItem{{BlindBoxID: box.ID, Quantity: 1}},
		DeclaredTotal: decimal.NewFromFloat(19.90),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := env.orderSvc.PayOrder(order.ID, user.ID); err != nil {
		t.Fatalf("pay order failed: %v", err)
	}

	if err := env.orderSvc.CancelExpiredOrder(order.ID); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected ErrOrderStatusInvalid, got %v", err)
	}
}

func TestCancelOrderReturnsCoupon(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "100.00")
	box := seedOrderTestBox(t, env.db, "30.00", 5)

	coupon := &models.Coupon{
		Name:      "满50减10",
		Type:      constants.CouponTypeFixed,
		Amount:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		Threshold: models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		IsActive:  true,
	}
	if err := env.db.Create(coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	userCoupon := &models.UserCoupon{
		UserID:   user.ID,
		CouponID: coupon.ID,
		Status:   constants.UserCouponStatusUnused,
	}
	if err := env.db.Create(userCoupon).Error; err != nil {
		t.Fatalf("create user coupon failed: %v", err)
	}

	order, err := env.orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		Items:         []CreateOrderItem{{BlindBoxID: box.ID, Quantity: 2}},
		UserCouponID:  userCoupon.ID,
		DeclaredTotal: decimal.NewFromFloat(50.00),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := env.orderSvc.CancelOrder(order.ID, user.ID); err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}

	var reloaded models.UserCoupon
	if err := env.db.First(&reloaded, userCoupon.ID).Error; err != nil {
		t.Fatalf("reload user coupon failed: %v", err)
	}
	if reloaded.Status != constants.UserCouponStatusUnused {
		t.Fatalf("expected coupon returned, got %s", reloaded.Status)
	}
}

func completeOrderForOpen(t *testing.T, env *orderServiceTestEnv, userID, orderID uint) {
	t.Helper()
	if _, err := env.orderSvc.PayOrder(orderID, userID); err != nil {
		t.Fatalf("pay order failed: %v", err)
	}
	if err := env.orderSvc.DeliverOrder(orderID); err != nil {
		t.Fatalf("deliver order failed: %v", err)
	}
	if _, err := env.orderSvc.ConfirmOrder(orderID, userID); err != nil {
		t.Fatalf("confirm order failed: %v", err)
	}
}

func TestOpenOrderItemExactlyOnce(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "100.00")
	box := seedOrderTestBox(t, env.db, "19.90", 5)

	order, err := env.orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		Items:         []CreateOrderItem{{BlindBoxID: box.ID, Quantity: 1}},
		DeclaredTotal: decimal.NewFromFloat(19.90),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	completeOrderForOpen(t, env, user.ID, order.ID)

	var item models.OrderItem
	if err := env.db.Where("order_id = ?", order.ID).First(&item).Error; err != nil {
		t.Fatalf("load item failed: %v", err)
	}

	opened, err := env.orderSvc.OpenOrderItem(item.ID, user.ID)
	if err != nil {
		t.Fatalf("open item failed: %v", err)
	}
	if !opened.Opened || opened.PrizeItemID == nil || opened.PrizeName == "" {
		t.Fatalf("expected opened item with prize, got %+v", opened)
	}

	if _, err := env.orderSvc.OpenOrderItem(item.ID, user.ID); !errors.Is(err, ErrOrderItemAlreadyOpened) {
		t.Fatalf("expected ErrOrderItemAlreadyOpened, got %v", err)
	}
}

func TestOpenOrderItemRequiresCompleted(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "100.00")
	box := seedOrderTestBox(t, env.db, "19.90", 5)

	order, err := env.orderSvc.CreateOrder(CreateOrderInput{
		UserID:        user.ID,
		Items:         []CreateOrderItem{{BlindBoxID: box.ID, Quantity: 1}},
		DeclaredTotal: decimal.NewFromFloat(19.90),
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := env.orderSvc.PayOrder(order.ID, user.ID); err != nil {
		t.Fatalf("pay order failed: %v", err)
	}

	var item models.OrderItem
	if err := env.db.Where("order_id = ?", order.ID).First(&item).Error; err != nil {
		t.Fatalf("load item failed: %v", err)
	}
	if _, err := env.orderSvc.OpenOrderItem(item.ID, user.ID); !errors.Is(err, ErrOrderNotCompleted) {
		t.Fatalf("expected ErrOrderNotCompleted, got %v", err)
	}
}

func TestDrawBlindBoxCreatesDeliveringOrder(t *testing.T) {
	env := setupOrderServiceTest(t)
	user := seedOrderTestUser(t, env.db, "100.00")
	box := seedOrderTestBox(t, env.db, "19.90", 5)

	order, err := env.orderSvc.DrawBlindBox(user.ID, box.ID, 2, nil)
	if err != nil {
		t.Fatalf("draw blind box failed: %v", err)
	}
	if order.Status != constants.OrderStatusDelivering {
		t.Fatalf("expected delivering, got %s", order.Status)
	}
	if order.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}

	var reloadedUser models.User
	if err := env.db.First(&reloadedUser, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloadedUser.Balance.Decimal.StringFixed(2) != "60.20" {
		t.Fatalf("expected balance 60.20, got %s", reloadedUser.Balance.Decimal.StringFixed(2))
	}

	var reloadedBox models.BlindBox
	if err := env.db.First(&reloadedBox, box.ID).Error; err != nil {
		t.Fatalf("reload box failed: %v", err)
	}
	if reloadedBox.Stock != 3 {
		t.Fatalf("expected stock 3, got %d", reloadedBox.Stock)
	}
}

func TestDrawBlindBoxConcurrentSingleStock(t *testing.T) {
	env := setupOrderServiceTest(t)
	box := seedOrderTestBox(t, env.db, "19.90", 1)

	// 单连接池让并发事务在驱动层排队，库存守卫仍须保证只成交一单
	sqlDB, err := env.db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	const buyers = 4
	users := make([]*models.User, buyers)
	for i := range users {
		users[i] = seedOrderTestUser(t, env.db, "100.00")
	}

	var wg sync.WaitGroup
	var succeeded int32
	errCh := make(chan error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			if _, err := env.orderSvc.DrawBlindBox(userID, box.ID, 1, nil); err != nil {
				errCh <- err
				return
			}
			atomic.AddInt32(&succeeded, 1)
		}(users[i].ID)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if !errors.Is(err, ErrBlindBoxOutOfStock) {
			t.Fatalf("loser should see out-of-stock, got %v", err)
		}
	}

	if succeeded != 1 {
		t.Fatalf("exactly one draw should succeed, got %d", succeeded)
	}

	var reloadedBox models.BlindBox
	if err := env.db.First(&reloadedBox, box.ID).Error; err != nil {
		t.Fatalf("reload box failed: %v", err)
	}
	if reloadedBox.Stock != 0 {
		t.Fatalf("stock want 0 got %d", reloadedBox.Stock)
	}

	var orderCount int64
	if err := env.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 1 {
		t.Fatalf("expected a single order, got %d", orderCount)
	}
}
