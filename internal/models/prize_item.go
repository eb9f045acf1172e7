package models

import (
	"time"

	"gorm.io/gorm"
)

// PrizeItem 盲盒奖品表
type PrizeItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`                              // 主键
	BlindBoxID  uint           `gorm:"index;not null" json:"blind_box_id"`                // 盲盒ID
	Name        string         `gorm:"not null" json:"name"`                              // 奖品名称
	Image       string         `gorm:"type:varchar(500)" json:"image"`                    // 奖品图片
	Rarity      string         `gorm:"index;not null" json:"rarity"`                      // 稀有度（normal/rare/epic/legendary）
	Probability float64        `gorm:"type:decimal(9,6);not null" json:"probability"`     // 抽中概率（0~1）
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt   time.Time      `gorm:"index" json:"updated_at"`                           // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
}

// TableName 指定表名
func (PrizeItem) TableName() string {
	return "prize_items"
}
