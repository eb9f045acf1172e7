package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/logger"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/queue"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo          repository.OrderRepository
	orderItemRepo      repository.OrderItemRepository
	blindBoxRepo       repository.BlindBoxRepository
	userCouponRepo     repository.UserCouponRepository
	couponService      *CouponService
	walletService      *WalletService
	prizeDrawer        PrizeDrawer
	queueClient        *queue.Client
	timeoutSeconds     int
	autoDeliverSeconds int
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, orderItemRepo repository.OrderItemRepository, blindBoxRepo repository.BlindBoxRepository, userCouponRepo repository.UserCouponRepository, couponService *CouponService, walletService *WalletService, prizeDrawer PrizeDrawer, queueClient *queue.Client, timeoutSeconds, autoDeliverSeconds int) *OrderService {
	if timeoutSeconds <= 0 {
		timeoutSeconds = constants.DefaultOrderTimeoutSeconds
	}
	if autoDeliverSeconds <= 0 {
		autoDeliverSeconds = constants.DefaultOrderAutoDeliverSeconds
	}
	return &OrderService{
		orderRepo:          orderRepo,
		orderItemRepo:      orderItemRepo,
		blindBoxRepo:       blindBoxRepo,
		userCouponRepo:     userCouponRepo,
		couponService:      couponService,
		walletService:      walletService,
		prizeDrawer:        prizeDrawer,
		queueClient:        queueClient,
		timeoutSeconds:     timeoutSeconds,
		autoDeliverSeconds: autoDeliverSeconds,
	}
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	UserID        uint
	AddressID     *uint
	Items         []CreateOrderItem
	UserCouponID  uint
	PayMethod     string
	DeclaredTotal decimal.Decimal
}

// CreateOrderItem 创建订单项输入
type CreateOrderItem struct {
	BlindBoxID uint
	Quantity   int
}

var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusDelivering: true,
		constants.OrderStatusCancelled:  true,
	},
	constants.OrderStatusDelivering: {
		constants.OrderStatusDelivered: true,
	},
	constants.OrderStatusDelivered: {
		constants.OrderStatusCompleted: true,
	},
}

func isTransitionAllowed(current, target string) bool {
	if current == target {
		return true
	}
	targets, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return targets[target]
}

// CreateOrder 创建订单。
// 金额以服务端盲盒价格重新计算，客户端声明金额不一致时拒单。
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 || len(input.Items) == 0 {
		return nil, ErrOrderItemsEmpty
	}
	payMethod := input.PayMethod
	if payMethod == "" {
		payMethod = constants.PayMethodBalance
	}
	if payMethod != constants.PayMethodBalance && payMethod != constants.PayMethodGateway {
		return nil, ErrPaymentInvalid
	}

	now := time.Now()
	subtotal := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		if item.BlindBoxID == 0 || item.Quantity <= 0 {
			return nil, ErrOrderItemsEmpty
		}
		box, err := s.blindBoxRepo.GetByID(item.BlindBoxID)
		if err != nil {
			return nil, ErrOrderCreateFailed
		}
		if box == nil {
			return nil, ErrBlindBoxNotFound
		}
		if box.Status != constants.BlindBoxStatusOnShelf {
			return nil, ErrBlindBoxOffShelf
		}
		if box.Stock < item.Quantity {
			return nil, ErrBlindBoxOutOfStock
		}
		subtotal = subtotal.Add(box.Price.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity))))
		// 每件一行，开盒按行做一次性守卫
		for i := 0; i < item.Quantity; i++ {
			orderItems = append(orderItems, models.OrderItem{
				BlindBoxID: box.ID,
				BoxName:    box.Name,
				UnitPrice:  box.Price,
				Opened:     false,
				CreatedAt:  now,
				UpdatedAt:  now,
			})
		}
	}
	subtotal = subtotal.Round(2)

	couponResult, err := s.couponService.Validate(input.UserCouponID, input.UserID, subtotal)
	if err != nil {
		return nil, err
	}
	discount := couponResult.Discount
	total := subtotal.Sub(discount)
	if total.LessThan(decimal.Zero) {
		total = decimal.Zero
	}
	if !input.DeclaredTotal.Equal(total) {
		return nil, ErrOrderAmountMismatch
	}

	expiresAt := now.Add(time.Duration(s.timeoutSeconds) * time.Second)
	order := &models.Order{
		OrderNo:        generateOrderNo(),
		UserID:         input.UserID,
		AddressID:      input.AddressID,
		Status:         constants.OrderStatusPending,
		PayMethod:      payMethod,
		Currency:       constants.SiteCurrencyDefault,
		OriginalAmount: models.NewMoneyFromDecimal(subtotal),
		DiscountAmount: models.NewMoneyFromDecimal(discount),
		TotalAmount:    models.NewMoneyFromDecimal(total),
		ExpiresAt:      &expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if couponResult.UserCoupon != nil {
		couponID := couponResult.UserCoupon.ID
		order.UserCouponID = &couponID
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(order, orderItems); err != nil {
			return ErrOrderCreateFailed
		}
		if couponResult.UserCoupon != nil {
			ok, err := s.userCouponRepo.WithTx(tx).MarkUsed(couponResult.UserCoupon.ID, order.ID, now)
			if err != nil {
				return ErrOrderCreateFailed
			}
			if !ok {
				return ErrCouponAlreadyUsed
			}
		}
		if err := s.queueClient.EnqueueOrderTimeoutCancel(queue.OrderTimeoutCancelPayload{OrderID: order.ID}, time.Duration(s.timeoutSeconds)*time.Second); err != nil {
			logger.Warnw("order_timeout_enqueue_failed", "order_id", order.ID, "error", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", order.UserID,
		"total_amount", order.TotalAmount.Decimal.StringFixed(2),
	)
	return order, nil
}

// PayOrder 余额支付订单。
// 扣款、锁定库存、pending -> delivering 在同一事务内完成。
func (s *OrderService) PayOrder(orderID uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	order, err = s.ensureOrderCancelledIfExpired(order)
	if err != nil {
		return nil, err
	}
	if order.Status == constants.OrderStatusCancelled {
		return nil, ErrOrderCancelled
	}
	if order.Status != constants.OrderStatusPending {
		return nil, ErrOrderStatusInvalid
	}

	paidAt := time.Now()
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		reference := fmt.Sprintf("order_pay:%s", order.OrderNo)
		if _, err := s.walletService.Debit(tx, userID, order.TotalAmount.Decimal, constants.WalletTxnTypeOrderPay, reference, fmt.Sprintf("订单支付 %s", order.OrderNo)); err != nil {
			return err
		}
		return s.markOrderPaid(tx, order, constants.PayMethodBalance, "", paidAt)
	})
	if err != nil {
		return nil, err
	}

	s.scheduleAutoDeliver(order.ID)
	logger.Infow("order_paid",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"pay_method", constants.PayMethodBalance,
	)
	return s.orderRepo.GetByID(order.ID)
}

// markOrderPaid 事务内锁定库存并迁移 pending -> delivering。
// 余额支付与网关回调共用此路径。
func (s *OrderService) markOrderPaid(tx *gorm.DB, order *models.Order, payMethod, tradeNo string, paidAt time.Time) error {
	items, err := s.orderItemRepo.WithTx(tx).ListByOrder(order.ID)
	if err != nil {
		return ErrOrderUpdateFailed
	}
	quantities := make(map[uint]int)
	for _, item := range items {
		quantities[item.BlindBoxID]++
	}
	boxRepo := s.blindBoxRepo.WithTx(tx)
	for blindBoxID, quantity := range quantities {
		ok, err := boxRepo.ReserveStock(blindBoxID, quantity)
		if err != nil {
			return ErrOrderUpdateFailed
		}
		if !ok {
			return ErrBlindBoxOutOfStock
		}
	}

	updates := map[string]interface{}{
		"pay_method": payMethod,
		"paid_at":    paidAt,
	}
	if tradeNo != "" {
		updates["trade_no"] = tradeNo
	}
	ok, err := s.orderRepo.WithTx(tx).UpdateStatusFrom(order.ID, constants.OrderStatusPending, constants.OrderStatusDelivering, updates)
	if err != nil {
		return ErrOrderUpdateFailed
	}
	if !ok {
		return ErrOrderStatusInvalid
	}
	return nil
}

// scheduleAutoDeliver 支付成功后安排自动送达
func (s *OrderService) scheduleAutoDeliver(orderID uint) {
	delay := time.Duration(s.autoDeliverSeconds) * time.Second
	if err := s.queueClient.EnqueueOrderAutoDeliver(queue.OrderAutoDeliverPayload{OrderID: orderID}, delay); err != nil {
		logger.Warnw("order_auto_deliver_enqueue_failed", "order_id", orderID, "error", err)
	}
}

// DeliverOrder 发货中的订单自动送达（delivering -> delivered），由队列任务触发
func (s *OrderService) DeliverOrder(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return ErrOrderFetchFailed
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusDelivering {
		return ErrOrderStatusInvalid
	}
	now := time.Now()
	ok, err := s.orderRepo.UpdateStatusFrom(orderID, constants.OrderStatusDelivering, constants.OrderStatusDelivered, map[string]interface{}{
		"delivered_at": now,
	})
	if err != nil {
		return ErrOrderUpdateFailed
	}
	if !ok {
		return ErrOrderStatusInvalid
	}
	logger.Infow("order_delivered", "order_id", orderID)
	return nil
}

// ConfirmOrder 用户确认收货（delivered -> completed）
func (s *OrderService) ConfirmOrder(orderID uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusDelivered {
		return nil, ErrOrderNotDelivered
	}
	now := time.Now()
	ok, err := s.orderRepo.UpdateStatusFrom(orderID, constants.OrderStatusDelivered, constants.OrderStatusCompleted, map[string]interface{}{
		"completed_at": now,
	})
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	if !ok {
		return nil, ErrOrderNotDelivered
	}
	logger.Infow("order_completed", "order_id", orderID, "user_id", userID)
	return s.orderRepo.GetByID(orderID)
}

// CancelOrder 用户取消待支付订单
func (s *OrderService) CancelOrder(orderID uint, userID uint) error {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return ErrOrderFetchFailed
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return ErrOrderStatusInvalid
	}
	return s.cancelPendingOrder(order)
}

// CancelExpiredOrder 超时取消待支付订单，由队列任务触发
func (s *OrderService) CancelExpiredOrder(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return ErrOrderFetchFailed
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return ErrOrderStatusInvalid
	}
	if order.ExpiresAt != nil && time.Now().Before(*order.ExpiresAt) {
		return ErrOrderStatusInvalid
	}
	if err := s.cancelPendingOrder(order); err != nil {
		return err
	}
	logger.Infow("order_timeout_cancelled", "order_id", orderID, "order_no", order.OrderNo)
	return nil
}

// cancelPendingOrder 取消待支付订单并退回优惠券。
// 待支付阶段未扣款未锁库存，无需回补。
func (s *OrderService) cancelPendingOrder(order *models.Order) error {
	now := time.Now()
	return models.DB.Transaction(func(tx *gorm.DB) error {
		ok, err := s.orderRepo.WithTx(tx).UpdateStatusFrom(order.ID, constants.OrderStatusPending, constants.OrderStatusCancelled, map[string]interface{}{
			"cancelled_at": now,
		})
		if err != nil {
			return ErrOrderUpdateFailed
		}
		if !ok {
			return ErrOrderStatusInvalid
		}
		if order.UserCouponID != nil {
			if err := s.userCouponRepo.WithTx(tx).MarkUnused(*order.UserCouponID); err != nil {
				return ErrOrderUpdateFailed
			}
		}
		return nil
	})
}

// ensureOrderCancelledIfExpired 读取路径上的兜底：
// 队列任务未触发时也保证过期订单呈现为已取消。
func (s *OrderService) ensureOrderCancelledIfExpired(order *models.Order) (*models.Order, error) {
	if order.Status != constants.OrderStatusPending || order.ExpiresAt == nil || time.Now().Before(*order.ExpiresAt) {
		return order, nil
	}
	if err := s.cancelPendingOrder(order); err != nil {
		return nil, err
	}
	refreshed, err := s.orderRepo.GetByID(order.ID)
	if err != nil || refreshed == nil {
		return nil, ErrOrderFetchFailed
	}
	return refreshed, nil
}

// GetOrder 订单详情（含订单项）
func (s *OrderService) GetOrder(orderID uint, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	order, err = s.ensureOrderCancelledIfExpired(order)
	if err != nil {
		return nil, err
	}
	items, err := s.orderItemRepo.ListByOrder(order.ID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	order.Items = items
	return order, nil
}

// ListOrders 用户订单列表
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(filter)
}

// OpenOrderItem 开盒抽奖。
// opened=false 的条件更新保证同一订单项只能开一次。
func (s *OrderService) OpenOrderItem(itemID uint, userID uint) (*models.OrderItem, error) {
	item, err := s.orderItemRepo.GetByID(itemID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if item == nil {
		return nil, ErrOrderItemNotFound
	}
	order, err := s.orderRepo.GetByID(item.OrderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderItemNotFound
	}
	if order.Status != constants.OrderStatusCompleted {
		return nil, ErrOrderNotCompleted
	}
	if item.Opened {
		return nil, ErrOrderItemAlreadyOpened
	}

	prize, err := s.prizeDrawer.Draw(item.BlindBoxID)
	if err != nil {
		return nil, err
	}
	openedAt := time.Now()
	ok, err := s.orderItemRepo.OpenWithPrize(item.ID, prize, openedAt)
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	if !ok {
		return nil, ErrOrderItemAlreadyOpened
	}

	logger.Infow("order_item_opened",
		"order_item_id", item.ID,
		"order_id", order.ID,
		"prize_item_id", prize.ID,
		"prize_rarity", prize.Rarity,
	)
	opened, err := s.orderItemRepo.GetByID(item.ID)
	if err != nil || opened == nil {
		return nil, ErrOrderFetchFailed
	}
	return opened, nil
}

// DrawBlindBox 一步购买：余额扣款后直接生成发货中的订单
func (s *OrderService) DrawBlindBox(userID uint, blindBoxID uint, quantity int, addressID *uint) (*models.Order, error) {
	if quantity <= 0 {
		quantity = 1
	}
	box, err := s.blindBoxRepo.GetByID(blindBoxID)
	if err != nil {
		return nil, ErrOrderCreateFailed
	}
	if box == nil {
		return nil, ErrBlindBoxNotFound
	}
	if box.Status != constants.BlindBoxStatusOnShelf {
		return nil, ErrBlindBoxOffShelf
	}
	if box.Stock < quantity {
		return nil, ErrBlindBoxOutOfStock
	}

	now := time.Now()
	total := box.Price.Decimal.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	order := &models.Order{
		OrderNo:        generateOrderNo(),
		UserID:         userID,
		AddressID:      addressID,
		Status:         constants.OrderStatusDelivering,
		PayMethod:      constants.PayMethodBalance,
		Currency:       constants.SiteCurrencyDefault,
		OriginalAmount: models.NewMoneyFromDecimal(total),
		DiscountAmount: models.NewMoneyFromDecimal(decimal.Zero),
		TotalAmount:    models.NewMoneyFromDecimal(total),
		PaidAt:         &now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	items := make([]models.OrderItem, 0, quantity)
	for i := 0; i < quantity; i++ {
		items = append(items, models.OrderItem{
			BlindBoxID: box.ID,
			BoxName:    box.Name,
			UnitPrice:  box.Price,
			Opened:     false,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		reference := fmt.Sprintf("order_pay:%s", order.OrderNo)
		if _, err := s.walletService.Debit(tx, userID, total, constants.WalletTxnTypeOrderPay, reference, fmt.Sprintf("盲盒直购 %s", order.OrderNo)); err != nil {
			return err
		}
		ok, err := s.blindBoxRepo.WithTx(tx).ReserveStock(box.ID, quantity)
		if err != nil {
			return ErrOrderCreateFailed
		}
		if !ok {
			return ErrBlindBoxOutOfStock
		}
		if err := s.orderRepo.WithTx(tx).Create(order, items); err != nil {
			return ErrOrderCreateFailed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.scheduleAutoDeliver(order.ID)
	logger.Infow("blind_box_drawn",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"blind_box_id", box.ID,
		"quantity", quantity,
	)
	return s.orderRepo.GetByID(order.ID)
}

// generateOrderNo 生成订单号：BB + 时间戳 + 6 位随机数字
func generateOrderNo() string {
	return fmt.Sprintf("BB%s%s", time.Now().Format("20060102150405"), randNumeric(6))
}

func randNumeric(length int) string {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			digits[i] = '0'
			continue
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits)
}
