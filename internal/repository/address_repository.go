package repository

import (
	"errors"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"

	"gorm.io/gorm"
)

// AddressRepository 收货地址数据访问接口
type AddressRepository interface {
	Create(address *models.Address) error
	Update(address *models.Address) error
	Delete(id uint, userID uint) error
	GetByIDAndUser(id uint, userID uint) (*models.Address, error)
	ListByUser(userID uint) ([]models.Address, error)
	ClearDefault(userID uint) error
	WithTx(tx *gorm.DB) *GormAddressRepository
}

// GormAddressRepository GORM 实现
type GormAddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建地址仓库
func NewAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// WithTx 绑定事务
func (r *GormAddressRepository) WithTx(tx *gorm.DB) *GormAddressRepository {
	if tx == nil {
		return r
	}
	return &GormAddressRepository{db: tx}
}

// Create 创建地址
func (r *GormAddressRepository) Create(address *models.Address) error {
	return r.db.Create(address).Error
}

// Update 更新地址
func (r *GormAddressRepository) Update(address *models.Address) error {
	return r.db.Save(address).Error
}

// Delete 删除地址
func (r *GormAddressRepository) Delete(id uint, userID uint) error {
	return r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{}).Error
}

// GetByIDAndUser 获取用户地址详情
func (r *GormAddressRepository) GetByIDAndUser(id uint, userID uint) (*models.Address, error) {
	var address models.Address
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

// ListByUser 获取用户地址列表
func (r *GormAddressRepository) ListByUser(userID uint) ([]models.Address, error) {
	var addresses []models.Address
	if err := r.db.Where("user_id = ?", userID).
		Order("is_default desc, id desc").
		Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}

// ClearDefault 清除用户默认地址标记
func (r *GormAddressRepository) ClearDefault(userID uint) error {
	return r.db.Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Updates(map[string]interface{}{
			"is_default": false,
			"updated_at": time.Now(),
		}).Error
}
