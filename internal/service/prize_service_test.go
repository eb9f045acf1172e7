package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type fixedRandSource struct {
	value float64
}

func (s fixedRandSource) Float64() float64 {
	return s.value
}

func setupPrizeServiceTest(t *testing.T) (*PrizeService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:prize_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.BlindBox{}, &models.PrizeItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	prizeRepo := repository.NewPrizeItemRepository(db)
	return NewPrizeService(prizeRepo, nil), db
}

func seedPrizeItems(t *testing.T, db *gorm.DB, blindBoxID uint, probabilities []float64) []models.PrizeItem {
	t.Helper()
	items := make([]models.PrizeItem, 0, len(probabilities))
	for i, p := range probabilities {
		item := models.PrizeItem{
			BlindBoxID:  blindBoxID,
			Name:        fmt.Sprintf("奖品%d", i+1),
			Rarity:      constants.PrizeRarityNormal,
			Probability: p,
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("create prize item failed: %v", err)
		}
		items = append(items, item)
	}
	return items
}

func TestValidateProbabilitiesWithinTolerance(t *testing.T) {
	items := []models.PrizeItem{
		{Probability: 0.5},
		{Probability: 0.3},
		{Probability: 0.2004},
	}
	if err := ValidateProbabilities(items); err != nil {
		t.Fatalf("expected sum within tolerance to pass, got %v", err)
	}
}

func TestValidateProbabilitiesRejectsBadSum(t *testing.T) {
	items := []models.PrizeItem{
		{Probability: 0.5},
		{Probability: 0.3},
	}
	if err := ValidateProbabilities(items); !errors.Is(err, ErrPrizeProbabilityInvalid) {
		t.Fatalf("expected ErrPrizeProbabilityInvalid, got %v", err)
	}
}

func TestValidateProbabilitiesRejectsEmptyPool(t *testing.T) {
	if err := ValidateProbabilities(nil); !errors.Is(err, ErrPrizePoolEmpty) {
		t.Fatalf("expected ErrPrizePoolEmpty, got %v", err)
	}
}

func TestValidateProbabilitiesRejectsNegative(t *testing.T) {
	items := []models.PrizeItem{
		{Probability: -0.2},
		{Probability: 1.2},
	}
	if err := ValidateProbabilities(items); !errors.Is(err, ErrPrizeProbabilityInvalid) {
		t.Fatalf("expected ErrPrizeProbabilityInvalid, got %v", err)
	}
}

func TestDrawSelectsByCumulativeProbability(t *testing.T) {
	svc, db := setupPrizeServiceTest(t)
	items := seedPrizeItems(t, db, 1, []float64{0.5, 0.3, 0.2})

	cases := []struct {
		r      float64
		wantID uint
	}{
		{r: 0.0, wantID: items[0].ID},
		{r: 0.49, wantID: items[0].ID},
		{r: 0.5, wantID: items[0].ID},
		{r: 0.51, wantID: items[1].ID},
		{r: 0.79, wantID: items[1].ID},
		{r: 0.81, wantID: items[2].ID},
		{r: 0.999, wantID: items[2].ID},
	}
	for _, tc := range cases {
		svc.randSource = fixedRandSource{value: tc.r}
		prize, err := svc.Draw(1)
		if err != nil {
			t.Fatalf("draw r=%v failed: %v", tc.r, err)
		}
		if prize.ID != tc.wantID {
			t.Fatalf("draw r=%v want prize %d got %d", tc.r, tc.wantID, prize.ID)
		}
	}
}

func TestDrawFallsBackToLastItem(t *testing.T) {
	svc, db := setupPrizeServiceTest(t)
	// 概率和落在容差下沿，随机值超出累计和时兜底最后一项
	items := seedPrizeItems(t, db, 1, []float64{0.5, 0.4995})

	svc.randSource = fixedRandSource{value: 0.99999}
	prize, err := svc.Draw(1)
	if err != nil {
		t.Fatalf("draw failed: %v", err)
	}
	if prize.ID != items[len(items)-1].ID {
		t.Fatalf("expected last item fallback, got prize %d", prize.ID)
	}
}

func TestDrawRejectsInvalidPool(t *testing.T) {
	svc, db := setupPrizeServiceTest(t)
	seedPrizeItems(t, db, 1, []float64{0.5, 0.3})

	svc.randSource = fixedRandSource{value: 0.1}
	if _, err := svc.Draw(1); !errors.Is(err, ErrPrizeProbabilityInvalid) {
		t.Fatalf("expected ErrPrizeProbabilityInvalid, got %v", err)
	}
}
