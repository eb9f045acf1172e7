package public

import (
	"errors"
	"strconv"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/http/response"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// CreatePaymentRequest 发起网关支付请求
type CreatePaymentRequest struct {
	OrderID     uint   `json:"order_id" binding:"required"`
	ChannelType string `json:"channel_type" binding:"required"`
}

// CreatePayment 发起网关支付，返回跳转链接
func (h *Handler) CreatePayment(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	payment, err := h.PaymentService.CreateGatewayPayment(service.CreateGatewayPaymentInput{
		OrderID:     req.OrderID,
		UserID:      userID,
		ChannelType: req.ChannelType,
		ClientIP:    c.ClientIP(),
		Context:     c.Request.Context(),
	})
	if err != nil {
		respondPaymentCreateError(c, err)
		return
	}

	requestLog(c).Infow("gateway_payment_created",
		"payment_id", payment.ID,
		"order_id", req.OrderID,
		"user_id", userID,
		"channel", req.ChannelType,
	)
	response.Success(c, payment)
}

// GetPayment 支付单详情
func (h *Handler) GetPayment(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	paymentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || paymentID == 0 {
		respondError(c, response.CodeBadRequest, "支付单 ID 非法", nil)
		return
	}

	payment, err := h.PaymentService.GetPayment(uint(paymentID), userID)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			respondError(c, response.CodeNotFound, "支付单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "支付单获取失败", err)
		return
	}

	response.Success(c, payment)
}

// ListOrderPayments 订单下的支付记录
func (h *Handler) ListOrderPayments(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "订单 ID 非法", nil)
		return
	}

	payments, err := h.PaymentService.ListOrderPayments(uint(orderID), userID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "支付记录获取失败", err)
		return
	}

	response.Success(c, payments)
}
