package repository

import (
	"errors"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"

	"gorm.io/gorm"
)

// PrizeItemRepository 奖品数据访问接口
type PrizeItemRepository interface {
	Create(item *models.PrizeItem) error
	Update(item *models.PrizeItem) error
	Delete(id uint) error
	GetByID(id uint) (*models.PrizeItem, error)
	ListByBlindBox(blindBoxID uint) ([]models.PrizeItem, error)
	WithTx(tx *gorm.DB) *GormPrizeItemRepository
}

// GormPrizeItemRepository GORM 实现
type GormPrizeItemRepository struct {
	db *gorm.DB
}

// NewPrizeItemRepository 创建奖品仓库
func NewPrizeItemRepository(db *gorm.DB) *GormPrizeItemRepository {
	return &GormPrizeItemRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPrizeItemRepository) WithTx(tx *gorm.DB) *GormPrizeItemRepository {
	if tx == nil {
		return r
	}
	return &GormPrizeItemRepository{db: tx}
}

// Create 创建奖品
func (r *GormPrizeItemRepository) Create(item *models.PrizeItem) error {
	return r.db.Create(item).Error
}

// Update 更新奖品
func (r *GormPrizeItemRepository) Update(item *models.PrizeItem) error {
	return r.db.Save(item).Error
}

// Delete 删除奖品
func (r *GormPrizeItemRepository) Delete(id uint) error {
	return r.db.Delete(&models.PrizeItem{}, id).Error
}

// GetByID 根据 ID 获取奖品
func (r *GormPrizeItemRepository) GetByID(id uint) (*models.PrizeItem, error) {
	var item models.PrizeItem
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByBlindBox 获取盲盒奖品列表
func (r *GormPrizeItemRepository) ListByBlindBox(blindBoxID uint) ([]models.PrizeItem, error) {
	var items []models.PrizeItem
	if err := r.db.Where("blind_box_id = ?", blindBoxID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
