package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/config"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/logger"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/payment/epay"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"

	"go.uber.org/zap"
)

// PaymentService 支付服务
type PaymentService struct {
	orderRepo    repository.OrderRepository
	paymentRepo  repository.PaymentRepository
	orderService *OrderService
	epayConfig   *config.EpayConfig
}

// NewPaymentService 创建支付服务
func NewPaymentService(orderRepo repository.OrderRepository, paymentRepo repository.PaymentRepository, orderService *OrderService, epayConfig *config.EpayConfig) *PaymentService {
	return &PaymentService{
		orderRepo:    orderRepo,
		paymentRepo:  paymentRepo,
		orderService: orderService,
		epayConfig:   epayConfig,
	}
}

// CreateGatewayPaymentInput 创建网关支付输入
type CreateGatewayPaymentInput struct {
	OrderID     uint
	UserID      uint
	ChannelType string
	ClientIP    string
	Context     context.Context
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// CreateGatewayPayment 发起网关支付，返回带跳转链接的支付记录。
// 订单状态不变，支付结果由异步回调对账落定。
func (s *PaymentService) CreateGatewayPayment(input CreateGatewayPaymentInput) (*models.Payment, error) {
	if s.epayConfig == nil || !s.epayConfig.Enabled {
		return nil, ErrPaymentGatewayDisabled
	}
	order, err := s.orderRepo.GetByIDAndUser(input.OrderID, input.UserID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	order, err = s.orderService.ensureOrderCancelledIfExpired(order)
	if err != nil {
		return nil, err
	}
	if order.Status == constants.OrderStatusCancelled {
		return nil, ErrOrderCancelled
	}
	if order.Status != constants.OrderStatusPending {
		return nil, ErrOrderStatusInvalid
	}

	log := paymentLogger(
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"channel_type", input.ChannelType,
	)

	tradeNo := generateTradeNo(order.OrderNo)
	now := time.Now()
	payment := &models.Payment{
		OrderID:   order.ID,
		Method:    constants.PayMethodGateway,
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
		Status:    constants.PaymentStatusInitiated,
		TradeNo:   tradeNo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		log.Errorw("payment_create_failed", "error", err)
		return nil, ErrPaymentUpdateFailed
	}
	if err := s.orderRepo.UpdateStatus(order.ID, order.Status, map[string]interface{}{
		"trade_no": tradeNo,
	}); err != nil {
		log.Errorw("payment_order_trade_no_update_failed", "error", err)
		return nil, ErrPaymentUpdateFailed
	}

	ctx := input.Context
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := epay.CreatePayment(ctx, s.epayClientConfig(), epay.CreateInput{
		OutTradeNo:  tradeNo,
		Amount:      order.TotalAmount.Decimal.StringFixed(2),
		Subject:     fmt.Sprintf("盲盒订单 %s", order.OrderNo),
		ChannelType: input.ChannelType,
		ClientIP:    input.ClientIP,
	})
	if err != nil {
		log.Errorw("payment_gateway_request_failed", "trade_no", tradeNo, "error", err)
		payment.Status = constants.PaymentStatusFailed
		payment.UpdatedAt = time.Now()
		if updateErr := s.paymentRepo.Update(payment); updateErr != nil {
			log.Errorw("payment_fail_status_update_failed", "error", updateErr)
		}
		return nil, ErrPaymentGatewayFailed
	}

	payment.Status = constants.PaymentStatusPending
	payment.ProviderRef = result.TradeNo
	payment.PayURL = result.PayURL
	if payment.PayURL == "" {
		payment.PayURL = result.QRCode
	}
	payment.UpdatedAt = time.Now()
	if err := s.paymentRepo.Update(payment); err != nil {
		log.Errorw("payment_update_failed", "error", err)
		return nil, ErrPaymentUpdateFailed
	}

	log.Infow("payment_gateway_created",
		"payment_id", payment.ID,
		"trade_no", tradeNo,
		"provider_ref", payment.ProviderRef,
	)
	return payment, nil
}

// GetPayment 支付记录详情（校验归属）
func (s *PaymentService) GetPayment(paymentID uint, userID uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(paymentID)
	if err != nil {
		return nil, ErrPaymentUpdateFailed
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	order, err := s.orderRepo.GetByID(payment.OrderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil || order.UserID != userID {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// ListOrderPayments 订单下的支付记录
func (s *PaymentService) ListOrderPayments(orderID uint, userID uint) ([]models.Payment, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.paymentRepo.ListByOrderID(orderID)
}

func (s *PaymentService) epayClientConfig() *epay.Config {
	return &epay.Config{
		GatewayURL:  s.epayConfig.Endpoint,
		MerchantID:  s.epayConfig.MerchantID,
		MerchantKey: s.epayConfig.Key,
		NotifyURL:   s.epayConfig.NotifyURL,
		ReturnURL:   s.epayConfig.ReturnURL,
	}
}

// generateTradeNo 生成网关交易号：订单号 + 4 位随机数字，支持同单多次发起
func generateTradeNo(orderNo string) string {
	return fmt.Sprintf("%s%s", strings.TrimSpace(orderNo), randNumeric(4))
}
