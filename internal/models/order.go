package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                         // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                         // 订单编号
	UserID         uint           `gorm:"index;not null" json:"user_id"`                                // 用户ID
	AddressID      *uint          `gorm:"index" json:"address_id,omitempty"`                            // 收货地址ID
	Status         string         `gorm:"index;not null" json:"status"`                                 // 订单状态
	PayMethod      string         `gorm:"not null;default:''" json:"pay_method"`                        // 支付方式（balance/gateway）
	Currency       string         `gorm:"not null" json:"currency"`                                     // 币种
	OriginalAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"original_amount"` // 商品小计
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 实付金额
	UserCouponID   *uint          `gorm:"index" json:"user_coupon_id,omitempty"`                        // 用户优惠券ID
	TradeNo        string         `gorm:"index" json:"trade_no,omitempty"`                              // 网关交易号
	ExpiresAt      *time.Time     `gorm:"index" json:"expires_at"`                                      // 支付截止时间
	PaidAt         *time.Time     `gorm:"index" json:"paid_at"`                                         // 支付时间
	DeliveredAt    *time.Time     `gorm:"index" json:"delivered_at"`                                    // 送达时间
	CompletedAt    *time.Time     `gorm:"index" json:"completed_at"`                                    // 完成时间
	CancelledAt    *time.Time     `gorm:"index" json:"cancelled_at"`                                    // 取消时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                               // 软删除时间

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
