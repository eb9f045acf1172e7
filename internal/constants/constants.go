package constants

// 订单状态常量
const (
	OrderStatusPending    = "pending"
	OrderStatusDelivering = "delivering"
	OrderStatusDelivered  = "delivered"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// 支付方式常量
const (
	PayMethodBalance = "balance"
	PayMethodGateway = "gateway"
)

// 支付状态常量
const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusPending   = "pending"
	PaymentStatusSuccess   = "success"
	PaymentStatusFailed    = "failed"
)

// 钱包交易类型常量
const (
	WalletTxnTypeRecharge    = "recharge"
	WalletTxnTypeOrderPay    = "order_pay"
	WalletTxnTypeOrderRefund = "order_refund"
)

// 钱包交易方向常量
const (
	WalletTxnDirectionIn  = "in"
	WalletTxnDirectionOut = "out"
)

// 优惠券类型常量
const (
	CouponTypeFixed   = "fixed"
	CouponTypePercent = "percent"
)

// 用户优惠券状态常量
const (
	UserCouponStatusUnused  = "unused"
	UserCouponStatusUsed    = "used"
	UserCouponStatusExpired = "expired"
)

// 盲盒状态常量
const (
	BlindBoxStatusOnShelf  = "on_shelf"
	BlindBoxStatusOffShelf = "off_shelf"
)

// 奖品稀有度常量
const (
	PrizeRarityNormal    = "normal"
	PrizeRarityRare      = "rare"
	PrizeRarityEpic      = "epic"
	PrizeRarityLegendary = "legendary"
)

// 用户角色常量
const (
	UserRoleCustomer = "customer"
	UserRoleSeller   = "seller"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 易支付回调常量
const (
	EpayTradeStatusSuccess = "TRADE_SUCCESS"
	EpayCallbackSuccess    = "success"
	EpayCallbackFail       = "fail"
	EpayPayTypeQRCode      = "qrcode"
)

// 文章类型常量
const (
	PostTypeShow   = "show"
	PostTypeNotice = "notice"
)

// 队列常量
const (
	QueueDefault           = "default"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
	TaskOrderAutoDeliver   = "order:auto_deliver"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "bbm"
)

// 订单时间参数默认值（秒）
const (
	DefaultOrderTimeoutSeconds     = 600
	DefaultOrderAutoDeliverSeconds = 30
)

// 概率校验容差
const (
	ProbabilitySumTolerance = 0.001
)

// 币种常量
const (
	SiteCurrencyDefault = "CNY"
)
