package service

import (
	"crypto/rand"
	"math"
	"math/big"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"
)

// RandSource 抽奖随机源，返回 [0,1) 区间的浮点数
type RandSource interface {
	Float64() float64
}

// PrizeDrawer 抽奖接口
type PrizeDrawer interface {
	Draw(blindBoxID uint) (*models.PrizeItem, error)
}

// cryptoRandSource 默认随机源，基于 crypto/rand
type cryptoRandSource struct{}

func (cryptoRandSource) Float64() float64 {
	const precision = int64(1) << 53
	n, err := rand.Int(rand.Reader, big.NewInt(precision))
	if err != nil {
		return 0
	}
	return float64(n.Int64()) / float64(precision)
}

// PrizeService 奖品抽取服务
type PrizeService struct {
	prizeItemRepo repository.PrizeItemRepository
	randSource    RandSource
}

// NewPrizeService 创建奖品服务
func NewPrizeService(prizeItemRepo repository.PrizeItemRepository, randSource RandSource) *PrizeService {
	if randSource == nil {
		randSource = cryptoRandSource{}
	}
	return &PrizeService{
		prizeItemRepo: prizeItemRepo,
		randSource:    randSource,
	}
}

// ValidateProbabilities 校验奖品概率之和是否为 1（允许浮点容差）
func ValidateProbabilities(items []models.PrizeItem) error {
	if len(items) == 0 {
		return ErrPrizePoolEmpty
	}
	sum := 0.0
	for _, item := range items {
		if item.Probability < 0 || item.Probability > 1 {
			return ErrPrizeProbabilityInvalid
		}
		sum += item.Probability
	}
	if math.Abs(sum-1) > constants.ProbabilitySumTolerance {
		return ErrPrizeProbabilityInvalid
	}
	return nil
}

// Draw 按概率抽取一个奖品
func (s *PrizeService) Draw(blindBoxID uint) (*models.PrizeItem, error) {
	items, err := s.prizeItemRepo.ListByBlindBox(blindBoxID)
	if err != nil {
		return nil, err
	}
	if err := ValidateProbabilities(items); err != nil {
		return nil, err
	}

	r := s.randSource.Float64()
	cumulative := 0.0
	for i := range items {
		cumulative += items[i].Probability
		if cumulative >= r {
			return &items[i], nil
		}
	}
	// 浮点累加误差兜底：命中最后一项
	return &items[len(items)-1], nil
}
