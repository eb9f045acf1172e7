package service

import (
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponService 优惠券服务
type CouponService struct {
	couponRepo     repository.CouponRepository
	userCouponRepo repository.UserCouponRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, userCouponRepo repository.UserCouponRepository) *CouponService {
	return &CouponService{
		couponRepo:     couponRepo,
		userCouponRepo: userCouponRepo,
	}
}

// CouponValidationResult 优惠券校验结果
type CouponValidationResult struct {
	UserCoupon *models.UserCoupon
	Discount   decimal.Decimal
}

// Validate 校验用户持券并计算优惠金额
func (s *CouponService) Validate(userCouponID uint, userID uint, subtotal decimal.Decimal) (*CouponValidationResult, error) {
	if userCouponID == 0 {
		return &CouponValidationResult{Discount: decimal.Zero}, nil
	}

	userCoupon, err := s.userCouponRepo.GetByIDAndUser(userCouponID, userID)
	if err != nil {
		return nil, err
	}
	if userCoupon == nil {
		return nil, ErrCouponNotFound
	}
	if userCoupon.Status != constants.UserCouponStatusUnused {
		return nil, ErrCouponAlreadyUsed
	}
	coupon := userCoupon.Coupon
	if coupon == nil || !coupon.IsActive {
		return nil, ErrCouponNotFound
	}

	now := time.Now()
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return nil, ErrCouponOutOfWindow
	}
	if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
		return nil, ErrCouponOutOfWindow
	}

	discount, err := calcCouponDiscount(coupon, subtotal)
	if err != nil {
		return nil, err
	}
	return &CouponValidationResult{
		UserCoupon: userCoupon,
		Discount:   discount,
	}, nil
}

// calcCouponDiscount 计算优惠金额。
// fixed：满足门槛减固定金额，否则优惠为 0；
// percent：优惠 = round(小计 × (1 - 折扣率), 2)。
func calcCouponDiscount(coupon *models.Coupon, subtotal decimal.Decimal) (decimal.Decimal, error) {
	switch coupon.Type {
	case constants.CouponTypeFixed:
		if subtotal.GreaterThanOrEqual(coupon.Threshold.Decimal) {
			discount := coupon.Amount.Decimal
			if discount.GreaterThan(subtotal) {
				discount = subtotal
			}
			return discount.Round(2), nil
		}
		return decimal.Zero, nil
	case constants.CouponTypePercent:
		rate := coupon.Rate.Decimal
		if rate.LessThanOrEqual(decimal.Zero) || rate.GreaterThan(decimal.NewFromInt(1)) {
			return decimal.Zero, ErrCouponInvalid
		}
		return subtotal.Mul(decimal.NewFromInt(1).Sub(rate)).Round(2), nil
	default:
		return decimal.Zero, ErrCouponInvalid
	}
}

// ListUserCoupons 用户持券列表
func (s *CouponService) ListUserCoupons(filter repository.UserCouponListFilter) ([]models.UserCoupon, int64, error) {
	return s.userCouponRepo.List(filter)
}

// ClaimCoupon 用户领取优惠券
func (s *CouponService) ClaimCoupon(couponID uint, userID uint) (*models.UserCoupon, error) {
	coupon, err := s.couponRepo.GetByID(couponID)
	if err != nil {
		return nil, err
	}
	if coupon == nil || !coupon.IsActive {
		return nil, ErrCouponNotFound
	}
	now := time.Now()
	if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
		return nil, ErrCouponOutOfWindow
	}
	userCoupon := &models.UserCoupon{
		UserID:    userID,
		CouponID:  coupon.ID,
		Status:    constants.UserCouponStatusUnused,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userCouponRepo.Create(userCoupon); err != nil {
		return nil, err
	}
	userCoupon.Coupon = coupon
	return userCoupon, nil
}

// ListActiveCoupons 启用中的优惠券列表
func (s *CouponService) ListActiveCoupons(page, pageSize int) ([]models.Coupon, int64, error) {
	return s.couponRepo.ListActive(page, pageSize)
}

// CreateCoupon 创建优惠券模板（卖家）
func (s *CouponService) CreateCoupon(coupon *models.Coupon) error {
	if coupon.Type != constants.CouponTypeFixed && coupon.Type != constants.CouponTypePercent {
		return ErrCouponInvalid
	}
	if coupon.Type == constants.CouponTypePercent {
		rate := coupon.Rate.Decimal
		if rate.LessThanOrEqual(decimal.Zero) || rate.GreaterThan(decimal.NewFromInt(1)) {
			return ErrCouponInvalid
		}
	}
	return s.couponRepo.Create(coupon)
}
