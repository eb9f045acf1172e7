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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupBlindBoxServiceTest(t *testing.T) (*gorm.DB, *BlindBoxService) {
	t.Helper()
	dsn := fmt.Sprintf("file:blind_box_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.BlindBox{}, &models.PrizeItem{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	svc := NewBlindBoxService(repository.NewBlindBoxRepository(db), repository.NewPrizeItemRepository(db))
	return db, svc
}

func TestCreateBlindBoxDefaultsOffShelf(t *testing.T) {
	_, svc := setupBlindBoxServiceTest(t)

	box, err := svc.CreateBlindBox(CreateBlindBoxInput{
		SellerID: 1,
		Name:     "  测试盲盒  ",
		Price:    decimal.NewFromFloat(59.9),
		Stock:    100,
	})
	if err != nil {
		t.Fatalf("create blind box failed: %v", err)
	}
	if box.Name != "测试盲盒" {
		t.Fatalf("expected trimmed name, got %q", box.Name)
	}
	if box.Status != constants.BlindBoxStatusOffShelf {
		t.Fatalf("new box should be off shelf, got %s", box.Status)
	}
}

func TestCreateBlindBoxRejectsInvalidInput(t *testing.T) {
	_, svc := setupBlindBoxServiceTest(t)

	if _, err := svc.CreateBlindBox(CreateBlindBoxInput{SellerID: 1, Name: "", Price: decimal.NewFromInt(10)}); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := svc.CreateBlindBox(CreateBlindBoxInput{SellerID: 1, Name: "盒", Price: decimal.Zero}); err == nil {
		t.Fatal("expected error for non-positive price")
	}
	if _, err := svc.CreateBlindBox(CreateBlindBoxInput{SellerID: 1, Name: "盒", Price: decimal.NewFromInt(10), Stock: -1}); err == nil {
		t.Fatal("expected error for negative stock")
	}
}

func TestUpdateBlindBoxOnShelfRequiresValidPrizePool(t *testing.T) {
	db, svc := setupBlindBoxServiceTest(t)

	box, err := svc.CreateBlindBox(CreateBlindBoxInput{
		SellerID: 1,
		Name:     "上架校验",
		Price:    decimal.NewFromInt(30),
		Stock:    10,
	})
	if err != nil {
		t.Fatalf("create blind box failed: %v", err)
	}

	// 空奖池不允许上架
	if _, err := svc.UpdateBlindBox(box.ID, 1, UpdateBlindBoxInput{Status: constants.BlindBoxStatusOnShelf}); err == nil {
		t.Fatal("expected error when listing box without prizes")
	}

	seedPrizeItems(t, db, box.ID, []float64{0.7, 0.3})
	listed, err := svc.UpdateBlindBox(box.ID, 1, UpdateBlindBoxInput{Status: constants.BlindBoxStatusOnShelf})
	if err != nil {
		t.Fatalf("list box failed: %v", err)
	}
	if listed.Status != constants.BlindBoxStatusOnShelf || listed.ListedAt == nil {
		t.Fatalf("expected listed box with listed_at, got %+v", listed)
	}
}

func TestUpdateBlindBoxRejectsOtherSeller(t *testing.T) {
	_, svc := setupBlindBoxServiceTest(t)

	box, err := svc.CreateBlindBox(CreateBlindBoxInput{
		SellerID: 1,
		Name:     "越权校验",
		Price:    decimal.NewFromInt(30),
		Stock:    10,
	})
	if err != nil {
		t.Fatalf("create blind box failed: %v", err)
	}

	if _, err := svc.UpdateBlindBox(box.ID, 2, UpdateBlindBoxInput{Name: "改名"}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if err := svc.DeleteBlindBox(box.ID, 2); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied on delete, got %v", err)
	}
}

// staleBoxSnapshotRepo 固定返回旧快照，模拟卖家编辑与支付扣减之间的读写窗口
type staleBoxSnapshotRepo struct {
	*repository.GormBlindBoxRepository
	snapshot models.BlindBox
}

func (r *staleBoxSnapshotRepo) GetByID(id uint) (*models.BlindBox, error) {
	box := r.snapshot
	return &box, nil
}

func TestUpdateBlindBoxDoesNotResurrectStaleStock(t *testing.T) {
	db, svc := setupBlindBoxServiceTest(t)

	box, err := svc.CreateBlindBox(CreateBlindBoxInput{
		SellerID: 1,
		Name:     "库存窗口",
		Price:    decimal.NewFromInt(30),
		Stock:    5,
	})
	if err != nil {
		t.Fatalf("create blind box failed: %v", err)
	}

	boxRepo := repository.NewBlindBoxRepository(db)
	staleSvc := NewBlindBoxService(&staleBoxSnapshotRepo{
		GormBlindBoxRepository: boxRepo,
		snapshot:               *box,
	}, repository.NewPrizeItemRepository(db))

	// 卖家读到快照之后，一笔支付扣走了 2 件库存
	ok, err := boxRepo.ReserveStock(box.ID, 2)
	if err != nil || !ok {
		t.Fatalf("reserve failed: ok=%v err=%v", ok, err)
	}

	if _, err := staleSvc.UpdateBlindBox(box.ID, 1, UpdateBlindBoxInput{Name: "改名"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	var reloaded models.BlindBox
	if err := db.First(&reloaded, box.ID).Error; err != nil {
		t.Fatalf("reload box failed: %v", err)
	}
	if reloaded.Name != "改名" {
		t.Fatalf("expected renamed box, got %s", reloaded.Name)
	}
	if reloaded.Stock != 3 {
		t.Fatalf("name-only edit must not touch stock, want 3 got %d", reloaded.Stock)
	}
}

func TestAddPrizeItemValidatesProbabilitySum(t *testing.T) {
	_, svc := setupBlindBoxServiceTest(t)

	box, err := svc.CreateBlindBox(CreateBlindBoxInput{
		SellerID: 1,
		Name:     "奖池校验",
		Price:    decimal.NewFromInt(30),
		Stock:    10,
	})
	if err != nil {
		t.Fatalf("create blind box failed: %v", err)
	}

	if _, err := svc.AddPrizeItem(box.ID, 1, PrizeItemInput{Name: "普通款", Probability: 0.6}); err != nil {
		t.Fatalf("first prize add failed: %v", err)
	}
	if _, err := svc.AddPrizeItem(box.ID, 1, PrizeItemInput{Name: "稀有款", Probability: 0.4}); err != nil {
		t.Fatalf("second prize add failed: %v", err)
	}
	if _, err := svc.AddPrizeItem(box.ID, 1, PrizeItemInput{Name: "溢出款", Probability: 0.1}); !errors.Is(err, ErrPrizeProbabilityInvalid) {
		t.Fatalf("expected ErrPrizeProbabilityInvalid, got %v", err)
	}
}

func TestListBlindBoxesFilters(t *testing.T) {
	db, svc := setupBlindBoxServiceTest(t)

	now := time.Now()
	boxes := []models.BlindBox{
		{SellerID: 1, Name: "星空盲盒", Price: models.NewMoneyFromDecimal(decimal.NewFromInt(59)), Stock: 10, Status: constants.BlindBoxStatusOnShelf, ListedAt: &now},
		{SellerID: 1, Name: "深海盲盒", Price: models.NewMoneyFromDecimal(decimal.NewFromInt(29)), Stock: 10, Status: constants.BlindBoxStatusOffShelf},
		{SellerID: 2, Name: "森林盲盒", Price: models.NewMoneyFromDecimal(decimal.NewFromInt(39)), Stock: 10, Status: constants.BlindBoxStatusOnShelf, ListedAt: &now},
	}
	if err := db.Create(&boxes).Error; err != nil {
		t.Fatalf("seed boxes failed: %v", err)
	}

	onShelf, total, err := svc.ListBlindBoxes(repository.BlindBoxListFilter{Page: 1, PageSize: 10, Status: constants.BlindBoxStatusOnShelf})
	if err != nil {
		t.Fatalf("list on-shelf failed: %v", err)
	}
	if total != 2 || len(onShelf) != 2 {
		t.Fatalf("expected 2 on-shelf boxes, got total=%d len=%d", total, len(onShelf))
	}

	_, total, err = svc.ListBlindBoxes(repository.BlindBoxListFilter{Page: 1, PageSize: 10, SellerID: 1})
	if err != nil {
		t.Fatalf("list by seller failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 boxes for seller 1, got %d", total)
	}

	_, total, err = svc.ListBlindBoxes(repository.BlindBoxListFilter{Page: 1, PageSize: 10, Search: "星空"})
	if err != nil {
		t.Fatalf("list by search failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 box matching search, got %d", total)
	}
}
