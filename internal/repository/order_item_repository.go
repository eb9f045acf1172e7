package repository

import (
	"errors"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"

	"gorm.io/gorm"
)

// OrderItemRepository 订单项数据访问接口
type OrderItemRepository interface {
	GetByID(id uint) (*models.OrderItem, error)
	ListByOrder(orderID uint) ([]models.OrderItem, error)
	OpenWithPrize(id uint, prize *models.PrizeItem, openedAt time.Time) (bool, error)
	WithTx(tx *gorm.DB) *GormOrderItemRepository
}

// GormOrderItemRepository GORM 实现
type GormOrderItemRepository struct {
	db *gorm.DB
}

// NewOrderItemRepository 创建订单项仓库
func NewOrderItemRepository(db *gorm.DB) *GormOrderItemRepository {
	return &GormOrderItemRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderItemRepository) WithTx(tx *gorm.DB) *GormOrderItemRepository {
	if tx == nil {
		return r
	}
	return &GormOrderItemRepository{db: tx}
}

// GetByID 根据 ID 获取订单项
func (r *GormOrderItemRepository) GetByID(id uint) (*models.OrderItem, error) {
	var item models.OrderItem
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByOrder 获取订单项列表
func (r *GormOrderItemRepository) ListByOrder(orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// OpenWithPrize 写入开盒结果，已开过的订单项返回 false
func (r *GormOrderItemRepository) OpenWithPrize(id uint, prize *models.PrizeItem, openedAt time.Time) (bool, error) {
	result := r.db.Model(&models.OrderItem{}).
		Where("id = ? AND opened = ?", id, false).
		Updates(map[string]interface{}{
			"opened":        true,
			"prize_item_id": prize.ID,
			"prize_name":    prize.Name,
			"prize_rarity":  prize.Rarity,
			"opened_at":     openedAt,
			"updated_at":    openedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
