package service

import (
	"net/url"
	"strings"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/payment/epay"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// HandleEpayCallback 处理易支付异步通知，返回应答给网关的文本。
// 可解析但永远无法对账的通知（缺引用、引用未知、金额不符）同样应答成功，
// 否则网关会对一笔永远落不了账的交易无限重试；失败应答只留给报文不可解析
// 与存储暂时性错误。同一笔交易的重复通知只应答不重放，支付落定与订单迁移
// 在同一事务内。
func (s *PaymentService) HandleEpayCallback(form url.Values) (string, error) {
	outTradeNo := strings.TrimSpace(form.Get("out_trade_no"))
	tradeStatus := strings.TrimSpace(form.Get("trade_status"))
	providerRef := strings.TrimSpace(form.Get("trade_no"))

	log := paymentLogger(
		"out_trade_no", outTradeNo,
		"trade_status", tradeStatus,
		"provider_ref", providerRef,
		"callback_amount", strings.TrimSpace(form.Get("money")),
	)
	log.Infow("payment_callback_received")

	if outTradeNo == "" {
		log.Warnw("payment_callback_missing_reference")
		return constants.EpayCallbackSuccess, ErrCallbackMissingReference
	}

	// 非成功状态只应答，不改动任何本地状态
	if !epay.IsSuccessTradeStatus(tradeStatus) {
		log.Infow("payment_callback_ignored_status")
		return constants.EpayCallbackSuccess, nil
	}

	// 验签失败记录告警后继续对账，金额与引用仍需匹配本地记录
	if err := epay.VerifyCallback(s.epayClientConfig(), form); err != nil {
		log.Warnw("payment_callback_signature_invalid", "error", err)
	}

	payment, err := s.paymentRepo.GetByTradeNo(outTradeNo)
	if err != nil {
		log.Errorw("payment_callback_payment_fetch_failed", "error", err)
		return constants.EpayCallbackFail, ErrPaymentUpdateFailed
	}
	if payment == nil {
		log.Warnw("payment_callback_payment_not_found")
		return constants.EpayCallbackSuccess, ErrOrderNotFound
	}

	if money := strings.TrimSpace(form.Get("money")); money != "" {
		amount, parseErr := decimal.NewFromString(money)
		if parseErr != nil {
			log.Warnw("payment_callback_amount_unparseable", "error", parseErr)
			return constants.EpayCallbackFail, ErrCallbackPayloadInvalid
		}
		if amount.Cmp(payment.Amount.Decimal) != 0 {
			log.Warnw("payment_callback_amount_mismatch",
				"stored_amount", payment.Amount.Decimal.StringFixed(2),
				"callback_amount", money,
			)
			return constants.EpayCallbackSuccess, ErrPaymentInvalid
		}
	}

	order, err := s.orderRepo.GetByID(payment.OrderID)
	if err != nil {
		log.Errorw("payment_callback_order_fetch_failed", "order_id", payment.OrderID, "error", err)
		return constants.EpayCallbackFail, ErrOrderFetchFailed
	}
	if order == nil {
		log.Warnw("payment_callback_order_not_found", "order_id", payment.OrderID)
		return constants.EpayCallbackSuccess, ErrOrderNotFound
	}

	now := time.Now()

	// 幂等处理：支付已成功或订单已离开待支付，仅补写回调元信息
	if payment.Status == constants.PaymentStatusSuccess || order.Status != constants.OrderStatusPending {
		log.Infow("payment_callback_idempotent_replay",
			"payment_status", payment.Status,
			"order_status", order.Status,
		)
		if err := s.updateCallbackMeta(payment, form, providerRef, now); err != nil {
			log.Errorw("payment_callback_meta_update_failed", "error", err)
		}
		return constants.EpayCallbackSuccess, nil
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.applyPaymentSuccess(tx, payment, form, providerRef, now); err != nil {
			return err
		}
		return s.orderService.markOrderPaid(tx, order, constants.PayMethodGateway, payment.TradeNo, now)
	})
	if err != nil {
		log.Errorw("payment_callback_apply_failed", "order_id", order.ID, "error", err)
		return constants.EpayCallbackFail, err
	}

	s.orderService.scheduleAutoDeliver(order.ID)
	log.Infow("payment_callback_processed",
		"payment_id", payment.ID,
		"order_id", order.ID,
		"order_no", order.OrderNo,
	)
	return constants.EpayCallbackSuccess, nil
}

// applyPaymentSuccess 事务内落定支付成功状态
func (s *PaymentService) applyPaymentSuccess(tx *gorm.DB, payment *models.Payment, form url.Values, providerRef string, now time.Time) error {
	payment.Status = constants.PaymentStatusSuccess
	if providerRef != "" {
		payment.ProviderRef = providerRef
	}
	payment.ProviderPayload = formToPayload(form)
	payment.PaidAt = &now
	payment.CallbackAt = &now
	payment.UpdatedAt = now
	if err := s.paymentRepo.WithTx(tx).Update(payment); err != nil {
		return ErrPaymentUpdateFailed
	}
	return nil
}

// updateCallbackMeta 重复通知仅更新回调元信息，不触碰状态
func (s *PaymentService) updateCallbackMeta(payment *models.Payment, form url.Values, providerRef string, now time.Time) error {
	if providerRef != "" {
		payment.ProviderRef = providerRef
	}
	payment.ProviderPayload = formToPayload(form)
	payment.CallbackAt = &now
	payment.UpdatedAt = now
	return s.paymentRepo.Update(payment)
}

func formToPayload(form url.Values) models.JSON {
	payload := make(models.JSON, len(form))
	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		payload[key] = values[0]
	}
	return payload
}
