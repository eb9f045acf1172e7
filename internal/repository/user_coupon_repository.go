package repository

import (
	"errors"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"

	"gorm.io/gorm"
)

// UserCouponRepository 用户持券数据访问接口
type UserCouponRepository interface {
	Create(userCoupon *models.UserCoupon) error
	GetByIDAndUser(id uint, userID uint) (*models.UserCoupon, error)
	List(filter UserCouponListFilter) ([]models.UserCoupon, int64, error)
	MarkUsed(id uint, orderID uint, usedAt time.Time) (bool, error)
	MarkUnused(id uint) error
	WithTx(tx *gorm.DB) *GormUserCouponRepository
}

// GormUserCouponRepository GORM 实现
type GormUserCouponRepository struct {
	db *gorm.DB
}

// NewUserCouponRepository 创建用户持券仓库
func NewUserCouponRepository(db *gorm.DB) *GormUserCouponRepository {
	return &GormUserCouponRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserCouponRepository) WithTx(tx *gorm.DB) *GormUserCouponRepository {
	if tx == nil {
		return r
	}
	return &GormUserCouponRepository{db: tx}
}

// Create 创建持券记录
func (r *GormUserCouponRepository) Create(userCoupon *models.UserCoupon) error {
	return r.db.Create(userCoupon).Error
}

// GetByIDAndUser 获取用户持券详情
func (r *GormUserCouponRepository) GetByIDAndUser(id uint, userID uint) (*models.UserCoupon, error) {
	var userCoupon models.UserCoupon
	if err := r.db.Preload("Coupon").Where("id = ? AND user_id = ?", id, userID).First(&userCoupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &userCoupon, nil
}

// List 用户持券列表
func (r *GormUserCouponRepository) List(filter UserCouponListFilter) ([]models.UserCoupon, int64, error) {
	query := r.db.Model(&models.UserCoupon{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var userCoupons []models.UserCoupon
	if err := query.Preload("Coupon").Order("id desc").Find(&userCoupons).Error; err != nil {
		return nil, 0, err
	}
	return userCoupons, total, nil
}

// MarkUsed 核销持券，已核销或状态不符时返回 false
func (r *GormUserCouponRepository) MarkUsed(id uint, orderID uint, usedAt time.Time) (bool, error) {
	result := r.db.Model(&models.UserCoupon{}).
		Where("id = ? AND status = ?", id, constants.UserCouponStatusUnused).
		Updates(map[string]interface{}{
			"status":     constants.UserCouponStatusUsed,
			"order_id":   orderID,
			"used_at":    usedAt,
			"updated_at": usedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkUnused 回退持券状态（订单取消时）
func (r *GormUserCouponRepository) MarkUnused(id uint) error {
	return r.db.Model(&models.UserCoupon{}).
		Where("id = ? AND status = ?", id, constants.UserCouponStatusUsed).
		Updates(map[string]interface{}{
			"status":     constants.UserCouponStatusUnused,
			"order_id":   nil,
			"used_at":    nil,
			"updated_at": time.Now(),
		}).Error
}
