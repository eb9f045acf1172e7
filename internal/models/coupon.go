package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券模板表
type Coupon struct {
	ID        uint           `gorm:"primarykey" json:"id"`                                    // 主键
	Name      string         `gorm:"not null" json:"name"`                                    // 名称
	Type      string         `gorm:"not null" json:"type"`                                    // 类型（fixed/percent）
	Amount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`     // 满减金额（fixed）
	Threshold Money          `gorm:"type:decimal(20,2);not null;default:0" json:"threshold"`  // 满减门槛（fixed）
	Rate      Money          `gorm:"type:decimal(6,2);not null;default:0" json:"rate"`        // 折扣率（percent，0~1）
	StartsAt  *time.Time     `gorm:"index" json:"starts_at"`                                  // 生效时间
	EndsAt    *time.Time     `gorm:"index" json:"ends_at"`                                    // 失效时间
	IsActive  bool           `gorm:"not null;default:true" json:"is_active"`                  // 是否启用
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
