package models

import (
	"time"

	"gorm.io/gorm"
)

// UserCoupon 用户持券表
type UserCoupon struct {
	ID        uint           `gorm:"primarykey" json:"id"`                            // 主键
	UserID    uint           `gorm:"index;not null" json:"user_id"`                   // 用户ID
	CouponID  uint           `gorm:"index;not null" json:"coupon_id"`                 // 优惠券ID
	Status    string         `gorm:"index;not null;default:'unused'" json:"status"`   // 状态（unused/used/expired）
	OrderID   *uint          `gorm:"index" json:"order_id,omitempty"`                 // 核销订单ID
	UsedAt    *time.Time     `gorm:"index" json:"used_at"`                            // 核销时间
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                         // 领取时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                         // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                  // 软删除时间

	Coupon *Coupon `gorm:"foreignKey:CouponID" json:"coupon,omitempty"` // 券模板
}

// TableName 指定表名
func (UserCoupon) TableName() string {
	return "user_coupons"
}
