package public

import (
	"errors"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/http/response"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var orderCommonErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "订单不存在"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, msg: "订单状态异常"},
	{target: service.ErrOrderCancelled, code: response.CodeBadRequest, msg: "订单已取消"},
	{target: service.ErrBlindBoxNotFound, code: response.CodeBadRequest, msg: "盲盒不存在"},
	{target: service.ErrBlindBoxOffShelf, code: response.CodeBadRequest, msg: "盲盒未上架"},
	{target: service.ErrBlindBoxOutOfStock, code: response.CodeBadRequest, msg: "盲盒库存不足"},
	{target: service.ErrInsufficientBalance, code: response.CodeBadRequest, msg: "余额不足"},
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrOrderItemsEmpty, code: response.CodeBadRequest, msg: "订单商品不能为空"},
	{target: service.ErrOrderAmountMismatch, code: response.CodeBadRequest, msg: "订单金额校验失败"},
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, msg: "支付方式非法"},
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, msg: "优惠券不存在"},
	{target: service.ErrCouponAlreadyUsed, code: response.CodeBadRequest, msg: "优惠券已使用"},
	{target: service.ErrCouponOutOfWindow, code: response.CodeBadRequest, msg: "优惠券不在有效期内"},
	{target: service.ErrCouponInvalid, code: response.CodeBadRequest, msg: "优惠券配置异常"},
}

var openItemErrorRules = []mappedHandlerError{
	{target: service.ErrOrderItemNotFound, code: response.CodeNotFound, msg: "订单项不存在"},
	{target: service.ErrOrderNotCompleted, code: response.CodeBadRequest, msg: "订单尚未确认收货"},
	{target: service.ErrOrderItemAlreadyOpened, code: response.CodeBadRequest, msg: "该盲盒已开启"},
	{target: service.ErrPrizePoolEmpty, code: response.CodeBadRequest, msg: "奖池配置异常"},
	{target: service.ErrPrizeProbabilityInvalid, code: response.CodeBadRequest, msg: "奖池配置异常"},
}

var paymentCreateErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentGatewayDisabled, code: response.CodeBadRequest, msg: "支付网关未启用"},
	{target: service.ErrPaymentGatewayFailed, code: response.CodeBadRequest, msg: "支付网关请求失败"},
	{target: service.ErrPaymentInvalid, code: response.CodeBadRequest, msg: "支付参数非法"},
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "订单不存在"},
	{target: service.ErrOrderCancelled, code: response.CodeBadRequest, msg: "订单已取消"},
	{target: service.ErrOrderStatusInvalid, code: response.CodeBadRequest, msg: "订单状态异常"},
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderCommonErrorRules, orderCreateErrorRules), response.CodeInternal, "订单创建失败")
}

func respondOrderActionError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderCommonErrorRules, []mappedHandlerError{
		{target: service.ErrOrderNotDelivered, code: response.CodeBadRequest, msg: "订单未送达"},
		{target: service.ErrOrderNotCompleted, code: response.CodeBadRequest, msg: "订单尚未确认收货"},
	}), response.CodeInternal, "订单操作失败")
}

func respondOpenItemError(c *gin.Context, err error) {
	respondWithMappedError(c, err, openItemErrorRules, response.CodeInternal, "开盒失败")
}

func respondPaymentCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, paymentCreateErrorRules, response.CodeInternal, "支付发起失败")
}
