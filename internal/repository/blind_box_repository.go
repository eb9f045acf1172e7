package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"

	"gorm.io/gorm"
)

// BlindBoxRepository 盲盒数据访问接口
type BlindBoxRepository interface {
	Create(box *models.BlindBox) error
	UpdateColumns(id uint, fields map[string]interface{}) error
	Delete(id uint) error
	GetByID(id uint) (*models.BlindBox, error)
	GetByIDWithPrizes(id uint) (*models.BlindBox, error)
	List(filter BlindBoxListFilter) ([]models.BlindBox, int64, error)
	ReserveStock(id uint, quantity int) (bool, error)
	ReleaseStock(id uint, quantity int) error
	WithTx(tx *gorm.DB) *GormBlindBoxRepository
}

// GormBlindBoxRepository GORM 实现
type GormBlindBoxRepository struct {
	db *gorm.DB
}

// NewBlindBoxRepository 创建盲盒仓库
func NewBlindBoxRepository(db *gorm.DB) *GormBlindBoxRepository {
	return &GormBlindBoxRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBlindBoxRepository) WithTx(tx *gorm.DB) *GormBlindBoxRepository {
	if tx == nil {
		return r
	}
	return &GormBlindBoxRepository{db: tx}
}

// Create 创建盲盒
func (r *GormBlindBoxRepository) Create(box *models.BlindBox) error {
	return r.db.Create(box).Error
}

// UpdateColumns 只更新给定列，避免整行覆盖与并发扣减的库存互相丢失
func (r *GormBlindBoxRepository) UpdateColumns(id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.Model(&models.BlindBox{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除盲盒
func (r *GormBlindBoxRepository) Delete(id uint) error {
	return r.db.Delete(&models.BlindBox{}, id).Error
}

// GetByID 根据 ID 获取盲盒
func (r *GormBlindBoxRepository) GetByID(id uint) (*models.BlindBox, error) {
	var box models.BlindBox
	if err := r.db.First(&box, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &box, nil
}

// GetByIDWithPrizes 根据 ID 获取盲盒及奖品
func (r *GormBlindBoxRepository) GetByIDWithPrizes(id uint) (*models.BlindBox, error) {
	var box models.BlindBox
	if err := r.db.Preload("PrizeItems").First(&box, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &box, nil
}

// List 盲盒列表
func (r *GormBlindBoxRepository) List(filter BlindBoxListFilter) ([]models.BlindBox, int64, error) {
	query := r.db.Model(&models.BlindBox{})

	if filter.SellerID != 0 {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var boxes []models.BlindBox
	if err := query.Order("id desc").Find(&boxes).Error; err != nil {
		return nil, 0, err
	}
	return boxes, total, nil
}

// ReserveStock 扣减库存，库存不足时返回 false
func (r *GormBlindBoxRepository) ReserveStock(id uint, quantity int) (bool, error) {
	if quantity <= 0 {
		return true, nil
	}
	result := r.db.Model(&models.BlindBox{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReleaseStock 回补库存
func (r *GormBlindBoxRepository) ReleaseStock(id uint, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	return r.db.Model(&models.BlindBox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", quantity),
			"updated_at": time.Now(),
		}).Error
}
