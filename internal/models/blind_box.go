package models

import (
	"time"

	"gorm.io/gorm"
)

// BlindBox 盲盒商品表
type BlindBox struct {
	ID          uint           `gorm:"primarykey" json:"id"`                               // 主键
	SellerID    uint           `gorm:"index;not null" json:"seller_id"`                    // 卖家ID
	Name        string         `gorm:"not null" json:"name"`                               // 盲盒名称
	Description string         `gorm:"type:text" json:"description"`                       // 描述
	CoverImage  string         `gorm:"type:varchar(500)" json:"cover_image"`               // 封面图
	Price       Money          `gorm:"type:decimal(20,2);not null" json:"price"`           // 单价
	Stock       int            `gorm:"not null;default:0" json:"stock"`                    // 库存
	Status      string         `gorm:"index;not null;default:'off_shelf'" json:"status"`   // 状态（on_shelf/off_shelf）
	ListedAt    *time.Time     `gorm:"index" json:"listed_at"`                             // 上架时间
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                            // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间

	PrizeItems []PrizeItem `gorm:"foreignKey:BlindBoxID" json:"prize_items,omitempty"` // 奖品列表
}

// TableName 指定表名
func (BlindBox) TableName() string {
	return "blind_boxes"
}
