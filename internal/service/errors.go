package service

import "errors"

// 订单相关错误
var (
	ErrOrderNotFound          = errors.New("订单不存在")
	ErrOrderFetchFailed       = errors.New("订单查询失败")
	ErrOrderCreateFailed      = errors.New("订单创建失败")
	ErrOrderUpdateFailed      = errors.New("订单更新失败")
	ErrOrderStatusInvalid     = errors.New("订单状态异常")
	ErrOrderCancelled         = errors.New("订单已取消")
	ErrOrderNotDelivered      = errors.New("订单未送达")
	ErrOrderItemsEmpty        = errors.New("订单商品不能为空")
	ErrOrderAmountMismatch    = errors.New("订单金额校验失败")
	ErrOrderItemNotFound      = errors.New("订单项不存在")
	ErrOrderItemAlreadyOpened = errors.New("盲盒已开启")
	ErrOrderNotCompleted      = errors.New("订单未完成")
)

// 盲盒相关错误
var (
	ErrBlindBoxNotFound        = errors.New("盲盒不存在")
	ErrBlindBoxOffShelf        = errors.New("盲盒未上架")
	ErrBlindBoxOutOfStock      = errors.New("盲盒库存不足")
	ErrPrizeItemNotFound       = errors.New("奖品不存在")
	ErrPrizeProbabilityInvalid = errors.New("奖品概率配置异常")
	ErrPrizePoolEmpty          = errors.New("奖池为空")
)

// 钱包相关错误
var (
	ErrInsufficientBalance = errors.New("余额不足")
	ErrWalletAmountInvalid = errors.New("金额非法")
	ErrWalletUpdateFailed  = errors.New("钱包更新失败")
	ErrWalletTxnDuplicated = errors.New("钱包流水重复")
)

// 优惠券相关错误
var (
	ErrCouponNotFound    = errors.New("优惠券不存在")
	ErrCouponAlreadyUsed = errors.New("优惠券已使用")
	ErrCouponOutOfWindow = errors.New("优惠券不在有效期内")
	ErrCouponInvalid     = errors.New("优惠券配置异常")
)

// 支付相关错误
var (
	ErrPaymentNotFound          = errors.New("支付记录不存在")
	ErrPaymentInvalid           = errors.New("支付参数非法")
	ErrPaymentUpdateFailed      = errors.New("支付记录更新失败")
	ErrPaymentGatewayFailed     = errors.New("支付网关请求失败")
	ErrPaymentGatewayDisabled   = errors.New("支付网关未启用")
	ErrCallbackMissingReference = errors.New("回调缺少交易号")
	ErrCallbackPayloadInvalid   = errors.New("回调数据解析失败")
)

// 用户相关错误
var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUserDisabled       = errors.New("账号已禁用")
	ErrEmailTaken         = errors.New("邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrInvalidEmail       = errors.New("邮箱格式不正确")
	ErrPasswordTooWeak    = errors.New("密码强度不足")
	ErrPermissionDenied   = errors.New("没有操作权限")
)

// 地址与帖子相关错误
var (
	ErrAddressNotFound = errors.New("收货地址不存在")
	ErrPostNotFound    = errors.New("帖子不存在")
)

// 队列相关错误
var (
	ErrQueueUnavailable = errors.New("队列服务不可用")
)
