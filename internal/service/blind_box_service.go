package service

import (
	"strings"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"

	"github.com/shopspring/decimal"
)

// BlindBoxService 盲盒商品服务
type BlindBoxService struct {
	blindBoxRepo  repository.BlindBoxRepository
	prizeItemRepo repository.PrizeItemRepository
}

// NewBlindBoxService 创建盲盒服务
func NewBlindBoxService(blindBoxRepo repository.BlindBoxRepository, prizeItemRepo repository.PrizeItemRepository) *BlindBoxService {
	return &BlindBoxService{
		blindBoxRepo:  blindBoxRepo,
		prizeItemRepo: prizeItemRepo,
	}
}

// CreateBlindBoxInput 创建盲盒输入
type CreateBlindBoxInput struct {
	SellerID    uint
	Name        string
	Description string
	CoverImage  string
	Price       decimal.Decimal
	Stock       int
}

// UpdateBlindBoxInput 更新盲盒输入
type UpdateBlindBoxInput struct {
	Name        string
	Description string
	CoverImage  string
	Price       *decimal.Decimal
	Stock       *int
	Status      string
}

// PrizeItemInput 奖品写入输入
type PrizeItemInput struct {
	Name        string
	Image       string
	Rarity      string
	Probability float64
}

// CreateBlindBox 创建盲盒
func (s *BlindBoxService) CreateBlindBox(input CreateBlindBoxInput) (*models.BlindBox, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.Price.LessThanOrEqual(decimal.Zero) || input.Stock < 0 {
		return nil, ErrBlindBoxNotFound
	}
	now := time.Now()
	box := &models.BlindBox{
		SellerID:    input.SellerID,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CoverImage:  strings.TrimSpace(input.CoverImage),
		Price:       models.NewMoneyFromDecimal(input.Price),
		Stock:       input.Stock,
		Status:      constants.BlindBoxStatusOffShelf,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.blindBoxRepo.Create(box); err != nil {
		return nil, err
	}
	return box, nil
}

// UpdateBlindBox 更新盲盒
func (s *BlindBoxService) UpdateBlindBox(id uint, sellerID uint, input UpdateBlindBoxInput) (*models.BlindBox, error) {
	box, err := s.blindBoxRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, ErrBlindBoxNotFound
	}
	if box.SellerID != sellerID {
		return nil, ErrPermissionDenied
	}

	// 只写显式变更的列，库存列尤其不能被整行覆盖回旧值
	fields := map[string]interface{}{}
	if name := strings.TrimSpace(input.Name); name != "" {
		box.Name = name
		fields["name"] = name
	}
	if desc := strings.TrimSpace(input.Description); desc != "" {
		box.Description = desc
		fields["description"] = desc
	}
	if cover := strings.TrimSpace(input.CoverImage); cover != "" {
		box.CoverImage = cover
		fields["cover_image"] = cover
	}
	if input.Price != nil {
		if input.Price.LessThanOrEqual(decimal.Zero) {
			return nil, ErrWalletAmountInvalid
		}
		box.Price = models.NewMoneyFromDecimal(*input.Price)
		fields["price"] = box.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, ErrBlindBoxOutOfStock
		}
		box.Stock = *input.Stock
		fields["stock"] = *input.Stock
	}
	if status := strings.TrimSpace(input.Status); status != "" {
		if status != constants.BlindBoxStatusOnShelf && status != constants.BlindBoxStatusOffShelf {
			return nil, ErrBlindBoxNotFound
		}
		// 上架前必须有合法的奖池配置
		if status == constants.BlindBoxStatusOnShelf && box.Status != constants.BlindBoxStatusOnShelf {
			items, err := s.prizeItemRepo.ListByBlindBox(box.ID)
			if err != nil {
				return nil, err
			}
			if err := ValidateProbabilities(items); err != nil {
				return nil, err
			}
			now := time.Now()
			box.ListedAt = &now
			fields["listed_at"] = box.ListedAt
		}
		box.Status = status
		fields["status"] = status
	}
	box.UpdatedAt = time.Now()
	fields["updated_at"] = box.UpdatedAt
	if err := s.blindBoxRepo.UpdateColumns(box.ID, fields); err != nil {
		return nil, err
	}
	return box, nil
}

// DeleteBlindBox 删除盲盒
func (s *BlindBoxService) DeleteBlindBox(id uint, sellerID uint) error {
	box, err := s.blindBoxRepo.GetByID(id)
	if err != nil {
		return err
	}
	if box == nil {
		return ErrBlindBoxNotFound
	}
	if box.SellerID != sellerID {
		return ErrPermissionDenied
	}
	return s.blindBoxRepo.Delete(id)
}

// GetBlindBox 盲盒详情（含奖品）
func (s *BlindBoxService) GetBlindBox(id uint) (*models.BlindBox, error) {
	box, err := s.blindBoxRepo.GetByIDWithPrizes(id)
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, ErrBlindBoxNotFound
	}
	return box, nil
}

// ListBlindBoxes 盲盒列表
func (s *BlindBoxService) ListBlindBoxes(filter repository.BlindBoxListFilter) ([]models.BlindBox, int64, error) {
	return s.blindBoxRepo.List(filter)
}

// AddPrizeItem 新增奖品，写入前校验新奖池的概率之和
func (s *BlindBoxService) AddPrizeItem(blindBoxID uint, sellerID uint, input PrizeItemInput) (*models.PrizeItem, error) {
	box, err := s.blindBoxRepo.GetByID(blindBoxID)
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, ErrBlindBoxNotFound
	}
	if box.SellerID != sellerID {
		return nil, ErrPermissionDenied
	}

	existing, err := s.prizeItemRepo.ListByBlindBox(blindBoxID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	item := models.PrizeItem{
		BlindBoxID:  blindBoxID,
		Name:        strings.TrimSpace(input.Name),
		Image:       strings.TrimSpace(input.Image),
		Rarity:      normalizeRarity(input.Rarity),
		Probability: input.Probability,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := ValidateProbabilities(append(existing, item)); err != nil {
		return nil, err
	}
	if err := s.prizeItemRepo.Create(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdatePrizeItem 更新奖品，写入前校验新奖池的概率之和
func (s *BlindBoxService) UpdatePrizeItem(itemID uint, sellerID uint, input PrizeItemInput) (*models.PrizeItem, error) {
	item, err := s.prizeItemRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrPrizeItemNotFound
	}
	box, err := s.blindBoxRepo.GetByID(item.BlindBoxID)
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, ErrBlindBoxNotFound
	}
	if box.SellerID != sellerID {
		return nil, ErrPermissionDenied
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		item.Name = name
	}
	if image := strings.TrimSpace(input.Image); image != "" {
		item.Image = image
	}
	if rarity := strings.TrimSpace(input.Rarity); rarity != "" {
		item.Rarity = normalizeRarity(rarity)
	}
	item.Probability = input.Probability
	item.UpdatedAt = time.Now()

	existing, err := s.prizeItemRepo.ListByBlindBox(item.BlindBoxID)
	if err != nil {
		return nil, err
	}
	for i := range existing {
		if existing[i].ID == item.ID {
			existing[i].Probability = item.Probability
		}
	}
	if err := ValidateProbabilities(existing); err != nil {
		return nil, err
	}
	if err := s.prizeItemRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// DeletePrizeItem 删除奖品
func (s *BlindBoxService) DeletePrizeItem(itemID uint, sellerID uint) error {
	item, err := s.prizeItemRepo.GetByID(itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrPrizeItemNotFound
	}
	box, err := s.blindBoxRepo.GetByID(item.BlindBoxID)
	if err != nil {
		return err
	}
	if box == nil {
		return ErrBlindBoxNotFound
	}
	if box.SellerID != sellerID {
		return ErrPermissionDenied
	}
	return s.prizeItemRepo.Delete(itemID)
}

func normalizeRarity(rarity string) string {
	switch strings.ToLower(strings.TrimSpace(rarity)) {
	case constants.PrizeRarityRare:
		return constants.PrizeRarityRare
	case constants.PrizeRarityEpic:
		return constants.PrizeRarityEpic
	case constants.PrizeRarityLegendary:
		return constants.PrizeRarityLegendary
	default:
		return constants.PrizeRarityNormal
	}
}
