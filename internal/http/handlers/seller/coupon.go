package seller

import (
	"errors"
	"strconv"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/http/response"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateCouponRequest 创建优惠券模板请求
type CreateCouponRequest struct {
	Name      string          `json:"name" binding:"required"`
	Type      string          `json:"type" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Threshold decimal.Decimal `json:"threshold"`
	Rate      decimal.Decimal `json:"rate"`
	StartsAt  *time.Time      `json:"starts_at"`
	EndsAt    *time.Time      `json:"ends_at"`
	IsActive  *bool           `json:"is_active"`
}

// CreateCoupon 创建优惠券模板
func (h *Handler) CreateCoupon(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}

	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	now := time.Now()
	coupon := &models.Coupon{
		Name:      req.Name,
		Type:      req.Type,
		Amount:    models.NewMoneyFromDecimal(req.Amount),
		Threshold: models.NewMoneyFromDecimal(req.Threshold),
		Rate:      models.NewMoneyFromDecimal(req.Rate),
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.IsActive != nil {
		coupon.IsActive = *req.IsActive
	}

	if err := h.CouponService.CreateCoupon(coupon); err != nil {
		if errors.Is(err, service.ErrCouponInvalid) {
			respondError(c, response.CodeBadRequest, "优惠券类型或折扣配置非法", nil)
			return
		}
		respondError(c, response.CodeInternal, "优惠券创建失败", err)
		return
	}

	requestLog(c).Infow("coupon_created", "coupon_id", coupon.ID, "seller_id", sellerID, "type", coupon.Type)
	response.Success(c, coupon)
}

// ListCoupons 启用中的优惠券模板列表
func (h *Handler) ListCoupons(c *gin.Context) {
	if _, ok := getSellerID(c); !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	coupons, total, err := h.CouponService.ListActiveCoupons(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "优惠券列表获取失败", err)
		return
	}

	response.SuccessWithPage(c, coupons, response.NewPagination(page, pageSize, total))
}
