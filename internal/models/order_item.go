package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderItem 订单项表（每行对应一个盲盒单件）
type OrderItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                                    // 主键
	OrderID     uint           `gorm:"index;not null" json:"order_id"`                          // 订单ID
	BlindBoxID  uint           `gorm:"index;not null" json:"blind_box_id"`                      // 盲盒ID
	BoxName     string         `gorm:"not null" json:"box_name"`                                // 盲盒名称快照
	UnitPrice   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"` // 单价快照
	Opened      bool           `gorm:"not null;default:false;index" json:"opened"`              // 是否已开盒
	PrizeItemID *uint          `gorm:"index" json:"prize_item_id,omitempty"`                    // 抽中奖品ID
	PrizeName   string         `gorm:"default:''" json:"prize_name,omitempty"`                  // 奖品名称快照
	PrizeRarity string         `gorm:"default:''" json:"prize_rarity,omitempty"`                // 奖品稀有度快照
	OpenedAt    *time.Time     `gorm:"index" json:"opened_at"`                                  // 开盒时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                                 // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                          // 软删除时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
