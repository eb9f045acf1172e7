package public

import (
	"errors"
	"strconv"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/http/response"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	AddressID     *uint                    `json:"address_id"`
	Items         []CreateOrderItemPayload `json:"items" binding:"required"`
	UserCouponID  uint                     `json:"user_coupon_id"`
	PayMethod     string                   `json:"pay_method" binding:"required"`
	DeclaredTotal decimal.Decimal          `json:"declared_total"`
}

// CreateOrderItemPayload 订单项请求
type CreateOrderItemPayload struct {
	BlindBoxID uint `json:"blind_box_id" binding:"required"`
	Quantity   int  `json:"quantity" binding:"required"`
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	items := make([]service.CreateOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.CreateOrderItem{
			BlindBoxID: item.BlindBoxID,
			Quantity:   item.Quantity,
		})
	}

	order, err := h.OrderService.CreateOrder(service.CreateOrderInput{
		UserID:        userID,
		AddressID:     req.AddressID,
		Items:         items,
		UserCouponID:  req.UserCouponID,
		PayMethod:     req.PayMethod,
		DeclaredTotal: req.DeclaredTotal,
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}

	requestLog(c).Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", userID,
		"pay_method", order.PayMethod,
	)
	response.Success(c, order)
}

// ListOrders 我的订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   c.Query("status"),
		OrderNo:  c.Query("order_no"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "订单列表获取失败", err)
		return
	}

	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.OrderService.GetOrder(orderID, userID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "订单详情获取失败", err)
		return
	}

	response.Success(c, order)
}

// PayOrder 余额支付订单
func (h *Handler) PayOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.OrderService.PayOrder(orderID, userID)
	if err != nil {
		respondOrderActionError(c, err)
		return
	}

	requestLog(c).Infow("order_paid",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"user_id", userID,
	)
	response.Success(c, order)
}

// CancelOrder 取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	if err := h.OrderService.CancelOrder(orderID, userID); err != nil {
		respondOrderActionError(c, err)
		return
	}

	response.Success(c, gin.H{"cancelled": true})
}

// ConfirmOrder 确认收货
func (h *Handler) ConfirmOrder(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.OrderService.ConfirmOrder(orderID, userID)
	if err != nil {
		respondOrderActionError(c, err)
		return
	}

	response.Success(c, order)
}

// OpenOrderItem 开盒，按配置概率抽取奖品
func (h *Handler) OpenOrderItem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	itemID, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil || itemID == 0 {
		respondError(c, response.CodeBadRequest, "订单项 ID 非法", nil)
		return
	}

	item, err := h.OrderService.OpenOrderItem(uint(itemID), userID)
	if err != nil {
		respondOpenItemError(c, err)
		return
	}

	requestLog(c).Infow("order_item_opened",
		"item_id", item.ID,
		"order_id", item.OrderID,
		"user_id", userID,
		"prize_rarity", item.PrizeRarity,
	)
	response.Success(c, item)
}

// DrawBlindBoxRequest 一键抽盒请求
type DrawBlindBoxRequest struct {
	BlindBoxID uint  `json:"blind_box_id" binding:"required"`
	Quantity   int   `json:"quantity"`
	AddressID  *uint `json:"address_id"`
}

// DrawBlindBox 一键抽盒：余额下单、支付并立即开出全部盲盒
func (h *Handler) DrawBlindBox(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req DrawBlindBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	start := time.Now()
	order, err := h.OrderService.DrawBlindBox(userID, req.BlindBoxID, req.Quantity, req.AddressID)
	if err != nil {
		respondWithMappedError(c, err, concatMappedHandlerErrors(orderCommonErrorRules, openItemErrorRules), response.CodeInternal, "抽盒失败")
		return
	}

	requestLog(c).Infow("blind_box_drawn",
		"order_id", order.ID,
		"user_id", userID,
		"blind_box_id", req.BlindBoxID,
		"quantity", req.Quantity,
		"cost_ms", time.Since(start).Milliseconds(),
	)
	response.Success(c, order)
}

func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "订单 ID 非法", nil)
		return 0, false
	}
	return uint(id), true
}
