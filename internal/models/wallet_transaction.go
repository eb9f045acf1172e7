package models

import (
	"time"
)

// WalletTransaction 钱包流水表
type WalletTransaction struct {
	ID            uint      `gorm:"primarykey" json:"id"`                                         // 主键
	UserID        uint      `gorm:"index;not null" json:"user_id"`                                // 用户ID
	Type          string    `gorm:"index;not null" json:"type"`                                   // 类型（recharge/order_pay/order_refund）
	Direction     string    `gorm:"not null" json:"direction"`                                    // 方向（in/out）
	Amount        Money     `gorm:"type:decimal(20,2);not null" json:"amount"`                    // 变动金额（正数）
	BalanceBefore Money     `gorm:"type:decimal(20,2);not null" json:"balance_before"`            // 变动前余额
	BalanceAfter  Money     `gorm:"type:decimal(20,2);not null" json:"balance_after"`             // 变动后余额
	Reference     string    `gorm:"uniqueIndex;not null" json:"reference"`                        // 业务引用（幂等键）
	Remark        string    `gorm:"default:''" json:"remark"`                                     // 备注
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
}

// TableName 指定表名
func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}
