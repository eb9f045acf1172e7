package models

import (
	"time"

	"gorm.io/gorm"
)

// Post 玩家秀/公告表
type Post struct {
	ID          uint           `gorm:"primarykey" json:"id"`              // 主键
	UserID      uint           `gorm:"index;not null" json:"user_id"`     // 作者ID
	Type        string         `gorm:"not null;index" json:"type"`        // 类型（show/notice）
	Title       string         `gorm:"not null" json:"title"`             // 标题
	Content     string         `gorm:"type:text" json:"content"`          // 内容
	Images      StringArray    `gorm:"type:json" json:"images"`           // 图片列表
	OrderItemID *uint          `gorm:"index" json:"order_item_id"`        // 晒单关联的订单项ID
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`           // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`           // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间
}

// TableName 指定表名
func (Post) TableName() string {
	return "posts"
}
