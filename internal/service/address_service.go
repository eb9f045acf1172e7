package service

import (
	"strings"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"

	"gorm.io/gorm"
)

// AddressService 收货地址服务
type AddressService struct {
	addressRepo repository.AddressRepository
}

// NewAddressService 创建地址服务
func NewAddressService(addressRepo repository.AddressRepository) *AddressService {
	return &AddressService{addressRepo: addressRepo}
}

// AddressInput 地址写入输入
type AddressInput struct {
	Recipient string
	Phone     string
	Province  string
	City      string
	District  string
	Detail    string
	IsDefault bool
}

// Create 新增地址，设为默认时清除同用户其他默认标记
func (s *AddressService) Create(userID uint, input AddressInput) (*models.Address, error) {
	if strings.TrimSpace(input.Recipient) == "" || strings.TrimSpace(input.Detail) == "" {
		return nil, ErrAddressNotFound
	}
	now := time.Now()
	address := &models.Address{
		UserID:    userID,
		Recipient: strings.TrimSpace(input.Recipient),
		Phone:     strings.TrimSpace(input.Phone),
		Province:  strings.TrimSpace(input.Province),
		City:      strings.TrimSpace(input.City),
		District:  strings.TrimSpace(input.District),
		Detail:    strings.TrimSpace(input.Detail),
		IsDefault: input.IsDefault,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.addressRepo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefault(userID); err != nil {
				return err
			}
		}
		return repo.Create(address)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// Update 更新地址
func (s *AddressService) Update(id uint, userID uint, input AddressInput) (*models.Address, error) {
	address, err := s.addressRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrAddressNotFound
	}

	if trimmed := strings.TrimSpace(input.Recipient); trimmed != "" {
		address.Recipient = trimmed
	}
	if trimmed := strings.TrimSpace(input.Phone); trimmed != "" {
		address.Phone = trimmed
	}
	if trimmed := strings.TrimSpace(input.Province); trimmed != "" {
		address.Province = trimmed
	}
	if trimmed := strings.TrimSpace(input.City); trimmed != "" {
		address.City = trimmed
	}
	if trimmed := strings.TrimSpace(input.District); trimmed != "" {
		address.District = trimmed
	}
	if trimmed := strings.TrimSpace(input.Detail); trimmed != "" {
		address.Detail = trimmed
	}
	address.IsDefault = input.IsDefault
	address.UpdatedAt = time.Now()

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.addressRepo.WithTx(tx)
		if input.IsDefault {
			if err := repo.ClearDefault(userID); err != nil {
				return err
			}
		}
		return repo.Update(address)
	})
	if err != nil {
		return nil, err
	}
	return address, nil
}

// Delete 删除地址
func (s *AddressService) Delete(id uint, userID uint) error {
	address, err := s.addressRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return err
	}
	if address == nil {
		return ErrAddressNotFound
	}
	return s.addressRepo.Delete(id, userID)
}

// Get 地址详情
func (s *AddressService) Get(id uint, userID uint) (*models.Address, error) {
	address, err := s.addressRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return nil, err
	}
	if address == nil {
		return nil, ErrAddressNotFound
	}
	return address, nil
}

// List 用户地址列表
func (s *AddressService) List(userID uint) ([]models.Address, error) {
	return s.addressRepo.ListByUser(userID)
}
