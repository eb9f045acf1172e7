package service

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/config"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/queue"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type callbackTestEnv struct {
	db         *gorm.DB
	paymentSvc *PaymentService
	orderSvc   *OrderService
}

func setupCallbackTest(t *testing.T) *callbackTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:payment_callback_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
		&models.Payment{},
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
	paymentRepo := repository.NewPaymentRepository(db)

	couponSvc := NewCouponService(couponRepo, userCouponRepo)
	walletSvc := NewWalletService(userRepo, txnRepo)
	prizeSvc := NewPrizeService(prizeRepo, fixedRandSource{value: 0.0})
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}
	orderSvc := NewOrderService(orderRepo, orderItemRepo, boxRepo, userCouponRepo, couponSvc, walletSvc, prizeSvc, queueClient, 600, 30)
	paymentSvc := NewPaymentService(orderRepo, paymentRepo, orderSvc, &config.EpayConfig{
		Enabled:    true,
		Endpoint:   "https://pay.example.com",
		MerchantID: "1001",
		Key:        "test-key",
		NotifyURL:  "https://mall.example.com/api/payments/epay/notify",
	})

	return &callbackTestEnv{db: db, paymentSvc: paymentSvc, orderSvc: orderSvc}
}

func seedPendingGatewayOrder(t *testing.T, env *callbackTestEnv) (*models.Order, *models.Payment) {
	t.Helper()
	user := &models.User{
		Email:        fmt.Sprintf("cb_%d@example.com", time.Now().UnixNano()),
		PasswordHash: "hash",
		Role:         constants.UserRoleCustomer,
		Status:       constants.UserStatusActive,
	}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	box := &models.BlindBox{
		SellerID: 1,
		Name:     "回调测试盲盒",
		Price:    models.NewMoneyFromDecimal(decimal.NewFromFloat(19.90)),
		Stock:    5,
		Status:   constants.BlindBoxStatusOnShelf,
	}
	if err := env.db.Create(box).Error; err != nil {
		t.Fatalf("create box failed: %v", err)
	}

	expiresAt := time.Now().Add(10 * time.Minute)
	tradeNo := fmt.Sprintf("BB%d0001", time.Now().UnixNano())
	order := &models.Order{
		OrderNo:        fmt.Sprintf("BB%d", time.Now().UnixNano()),
		UserID:         user.ID,
		Status:         constants.OrderStatusPending,
		PayMethod:      constants.PayMethodGateway,
		Currency:       constants.SiteCurrencyDefault,
		OriginalAmount: models.NewMoneyFromDecimal(decimal.NewFromFloat(19.90)),
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromFloat(19.90)),
		TradeNo:        tradeNo,
		ExpiresAt:      &expiresAt,
	}
	if err := env.db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	item := &models.OrderItem{
		OrderID:    order.ID,
		BlindBoxID: box.ID,
		BoxName:    box.Name,
		UnitPrice:  box.Price,
	}
	if err := env.db.Create(item).Error; err != nil {
		t.Fatalf("create order item failed: %v", err)
	}
	payment := &models.Payment{
		OrderID:  order.ID,
		Method:   constants.PayMethodGateway,
		Amount:   order.TotalAmount,
		Currency: order.Currency,
		Status:   constants.PaymentStatusPending,
		TradeNo:  tradeNo,
	}
	if err := env.db.Create(payment).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	return order, payment
}

func successCallbackForm(payment *models.Payment) url.Values {
	form := url.Values{}
	form.Set("out_trade_no", payment.TradeNo)
	form.Set("trade_no", "2026083112000001")
	form.Set("trade_status", constants.EpayTradeStatusSuccess)
	form.Set("money", payment.Amount.Decimal.StringFixed(2))
	form.Set("sign", "bad-signature")
	form.Set("sign_type", "MD5")
	return form
}

func TestHandleEpayCallbackMissingReference(t *testing.T) {
	env := setupCallbackTest(t)

	form := url.Values{}
	form.Set("trade_status", constants.EpayTradeStatusSuccess)
	ack, err := env.paymentSvc.HandleEpayCallback(form)
	if !errors.Is(err, ErrCallbackMissingReference) {
		t.Fatalf("expected ErrCallbackMissingReference, got %v", err)
	}
	// 缺引用的通知永远无法对账，应答成功以终止网关重试
	if ack != constants.EpayCallbackSuccess {
		t.Fatalf("expected success ack, got %s", ack)
	}
}

func TestHandleEpayCallbackNonSuccessAcked(t *testing.T) {
	env := setupCallbackTest(t)
	order, payment := seedPendingGatewayOrder(t, env)

	form := successCallbackForm(payment)
	form.Set("trade_status", "WAIT_BUYER_PAY")
	ack, err := env.paymentSvc.HandleEpayCallback(form)
	if err != nil {
		t.Fatalf("expected non-success to be acked, got %v", err)
	}
	if ack != constants.EpayCallbackSuccess {
		t.Fatalf("expected success ack, got %s", ack)
	}

	var reloaded models.Order
	if err := env.db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPending {
		t.Fatalf("expected order untouched, got %s", reloaded.Status)
	}
}

func TestHandleEpayCallbackUnknownReference(t *testing.T) {
	env := setupCallbackTest(t)

	form := url.Values{}
	form.Set("out_trade_no", "UNKNOWN-REF")
	form.Set("trade_status", constants.EpayTradeStatusSuccess)
	ack, err := env.paymentSvc.HandleEpayCallback(form)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	// 引用未知时重试也不会成功，应答成功以终止网关重试
	if ack != constants.EpayCallbackSuccess {
		t.Fatalf("expected success ack, got %s", ack)
	}
}

func TestHandleEpayCallbackSuccessMarksOrderPaid(t *testing.T) {
	env := setupCallbackTest(t)
	order, payment := seedPendingGatewayOrder(t, env)

	// 签名无效仅告警，对账仍按本地记录执行
	ack, err := env.paymentSvc.HandleEpayCallback(successCallbackForm(payment))
	if err != nil {
		t.Fatalf("callback failed: %v", err)
	}
	if ack != constants.EpayCallbackSuccess {
		t.Fatalf("expected success ack, got %s", ack)
	}

	var reloadedOrder models.Order
	if err := env.db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusDelivering {
		t.Fatalf("expected delivering, got %s", reloadedOrder.Status)
	}
	if reloadedOrder.PaidAt == nil {
		t.Fatalf("expected paid_at to be set")
	}

	var reloadedPayment models.Payment
	if err := env.db.First(&reloadedPayment, payment.ID).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if reloadedPayment.Status != constants.PaymentStatusSuccess {
		t.Fatalf("expected payment success, got %s", reloadedPayment.Status)
	}
	if reloadedPayment.ProviderRef != "2026083112000001" {
		t.Fatalf("expected provider ref recorded, got %s", reloadedPayment.ProviderRef)
	}

	var reloadedBox models.BlindBox
	if err := env.db.Where("name = ?", "回调测试盲盒").First(&reloadedBox).Error; err != nil {
		t.Fatalf("reload box failed: %v", err)
	}
	if reloadedBox.Stock != 4 {
		t.Fatalf("expected stock 4 after reserve, got %d", reloadedBox.Stock)
	}
}

func TestHandleEpayCallbackIdempotentReplay(t *testing.T) {
	env := setupCallbackTest(t)
	_, payment := seedPendingGatewayOrder(t, env)

	if _, err := env.paymentSvc.HandleEpayCallback(successCallbackForm(payment)); err != nil {
		t.Fatalf("first callback failed: %v", err)
	}
	ack, err := env.paymentSvc.HandleEpayCallback(successCallbackForm(payment))
	if err != nil {
		t.Fatalf("replay callback failed: %v", err)
	}
	if ack != constants.EpayCallbackSuccess {
		t.Fatalf("expected success ack on replay, got %s", ack)
	}

	// 重放不再扣减库存
	var reloadedBox models.BlindBox
	if err := env.db.Where("name = ?", "回调测试盲盒").First(&reloadedBox).Error; err != nil {
		t.Fatalf("reload box failed: %v", err)
	}
	if reloadedBox.Stock != 4 {
		t.Fatalf("expected stock unchanged on replay, got %d", reloadedBox.Stock)
	}
}

func TestHandleEpayCallbackAmountMismatch(t *testing.T) {
	env := setupCallbackTest(t)
	order, payment := seedPendingGatewayOrder(t, env)

	form := successCallbackForm(payment)
	form.Set("money", "0.01")
	ack, err := env.paymentSvc.HandleEpayCallback(form)
	if !errors.Is(err, ErrPaymentInvalid) {
		t.Fatalf("expected ErrPaymentInvalid, got %v", err)
	}
	// 金额不符的通知被拒绝入账，但仍应答成功以终止网关重试
	if ack != constants.EpayCallbackSuccess {
		t.Fatalf("expected success ack, got %s", ack)
	}

	var reloadedOrder models.Order
	if err := env.db.First(&reloadedOrder, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloadedOrder.Status != constants.OrderStatusPending {
		t.Fatalf("expected order untouched, got %s", reloadedOrder.Status)
	}
	var reloadedPayment models.Payment
	if err := env.db.First(&reloadedPayment, payment.ID).Error; err != nil {
		t.Fatalf("reload payment failed: %v", err)
	}
	if reloadedPayment.Status != constants.PaymentStatusPending {
		t.Fatalf("expected payment untouched, got %s", reloadedPayment.Status)
	}
}
