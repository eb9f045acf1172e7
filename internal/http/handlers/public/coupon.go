package public

import (
	"strconv"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/http/response"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// GetCoupons 可领取的优惠券列表
func (h *Handler) GetCoupons(c *gin.Context) {
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

// ClaimCoupon 领取优惠券
func (h *Handler) ClaimCoupon(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	couponID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || couponID == 0 {
		respondError(c, response.CodeBadRequest, "优惠券 ID 非法", nil)
		return
	}

	userCoupon, err := h.CouponService.ClaimCoupon(uint(couponID), userID)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrCouponNotFound, code: response.CodeNotFound, msg: "优惠券不存在或未启用"},
			{target: service.ErrCouponOutOfWindow, code: response.CodeBadRequest, msg: "优惠券不在有效期内"},
		}, response.CodeInternal, "优惠券领取失败")
		return
	}

	response.Success(c, userCoupon)
}

// GetMyCoupons 我的优惠券列表
func (h *Handler) GetMyCoupons(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	coupons, total, err := h.CouponService.ListUserCoupons(repository.UserCouponListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "优惠券列表获取失败", err)
		return
	}

	response.SuccessWithPage(c, coupons, response.NewPagination(page, pageSize, total))
}
