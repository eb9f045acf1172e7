package models

import (
	"time"

	"gorm.io/gorm"
)

// Address 收货地址表
type Address struct {
	ID        uint           `gorm:"primarykey" json:"id"`                        // 主键
	UserID    uint           `gorm:"index;not null" json:"user_id"`               // 用户ID
	Recipient string         `gorm:"not null" json:"recipient"`                   // 收件人
	Phone     string         `gorm:"type:varchar(32);not null" json:"phone"`      // 联系电话
	Province  string         `gorm:"not null" json:"province"`                    // 省
	City      string         `gorm:"not null" json:"city"`                        // 市
	District  string         `gorm:"default:''" json:"district"`                  // 区
	Detail    string         `gorm:"not null" json:"detail"`                      // 详细地址
	IsDefault bool           `gorm:"not null;default:false" json:"is_default"`    // 是否默认地址
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`                     // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (Address) TableName() string {
	return "addresses"
}
