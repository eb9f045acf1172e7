package repository

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupBlindBoxRepoTest(t *testing.T) (*gorm.DB, *GormBlindBoxRepository) {
	t.Helper()
	dsn := fmt.Sprintf("file:blind_box_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.BlindBox{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db, NewBlindBoxRepository(db)
}

func seedRepoBox(t *testing.T, db *gorm.DB, stock int) *models.BlindBox {
	t.Helper()
	box := &models.BlindBox{
		SellerID: 1,
		Name:     "库存校验盲盒",
		Price:    models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		Stock:    stock,
		Status:   constants.BlindBoxStatusOnShelf,
	}
	if err := db.Create(box).Error; err != nil {
		t.Fatalf("seed box failed: %v", err)
	}
	return box
}

func TestReserveStockGuardsAgainstOversell(t *testing.T) {
	db, repo := setupBlindBoxRepoTest(t)
	box := seedRepoBox(t, db, 1)

	ok, err := repo.ReserveStock(box.ID, 1)
	if err != nil {
		t.Fatalf("first reserve failed: %v", err)
	}
	if !ok {
		t.Fatal("first reserve should succeed")
	}

	// 库存已为 0，带守卫的扣减不应生效
	ok, err = repo.ReserveStock(box.ID, 1)
	if err != nil {
		t.Fatalf("second reserve failed: %v", err)
	}
	if ok {
		t.Fatal("second reserve should be rejected")
	}

	var reloaded models.BlindBox
	if err := db.First(&reloaded, box.ID).Error; err != nil {
		t.Fatalf("reload box failed: %v", err)
	}
	if reloaded.Stock != 0 {
		t.Fatalf("stock want 0 got %d", reloaded.Stock)
	}
}

func TestReserveStockRejectsPartialQuantity(t *testing.T) {
	db, repo := setupBlindBoxRepoTest(t)
	box := seedRepoBox(t, db, 3)

	ok, err := repo.ReserveStock(box.ID, 5)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if ok {
		t.Fatal("reserve beyond stock should be rejected")
	}

	var reloaded models.BlindBox
	if err := db.First(&reloaded, box.ID).Error; err != nil {
		t.Fatalf("reload box failed: %v", err)
	}
	if reloaded.Stock != 3 {
		t.Fatalf("stock should be untouched, want 3 got %d", reloaded.Stock)
	}
}

func TestReleaseStockRestoresReservedQuantity(t *testing.T) {
	db, repo := setupBlindBoxRepoTest(t)
	box := seedRepoBox(t, db, 2)

	ok, err := repo.ReserveStock(box.ID, 2)
	if err != nil || !ok {
		t.Fatalf("reserve failed: ok=%v err=%v", ok, err)
	}
	if err := repo.ReleaseStock(box.ID, 2); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	ok, err = repo.ReserveStock(box.ID, 1)
	if err != nil {
		t.Fatalf("reserve after release failed: %v", err)
	}
	if !ok {
		t.Fatal("reserve after release should succeed")
	}

	var reloaded models.BlindBox
	if err := db.First(&reloaded, box.ID).Error; err != nil {
		t.Fatalf("reload box failed: %v", err)
	}
	if reloaded.Stock != 1 {
		t.Fatalf("stock want 1 got %d", reloaded.Stock)
	}
}

func TestReserveStockConcurrentNeverOversells(t *testing.T) {
	db, repo := setupBlindBoxRepoTest(t)
	box := seedRepoBox(t, db, 1)

	// 单连接池让并发写在驱动层排队，守卫条件仍须保证只成功一次
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	const workers = 8
	var wg sync.WaitGroup
	var succeeded int32
	errCh := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ReserveStock(box.ID, 1)
			if err != nil {
				errCh <- err
				return
			}
			if ok {
				atomic.AddInt32(&succeeded, 1)
			}
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("concurrent reserve failed: %v", err)
	}

	if succeeded != 1 {
		t.Fatalf("exactly one reserve should succeed, got %d", succeeded)
	}
	var reloaded models.BlindBox
	if err := db.First(&reloaded, box.ID).Error; err != nil {
		t.Fatalf("reload box failed: %v", err)
	}
	if reloaded.Stock != 0 {
		t.Fatalf("stock want 0 got %d", reloaded.Stock)
	}
}

func TestReserveStockIgnoresNonPositiveQuantity(t *testing.T) {
	db, repo := setupBlindBoxRepoTest(t)
	box := seedRepoBox(t, db, 5)

	ok, err := repo.ReserveStock(box.ID, 0)
	if err != nil || !ok {
		t.Fatalf("zero-quantity reserve should no-op: ok=%v err=%v", ok, err)
	}
	if err := repo.ReleaseStock(box.ID, -1); err != nil {
		t.Fatalf("negative-quantity release should no-op: %v", err)
	}

	var reloaded models.BlindBox
	if err := db.First(&reloaded, box.ID).Error; err != nil {
		t.Fatalf("reload box failed: %v", err)
	}
	if reloaded.Stock != 5 {
		t.Fatalf("stock want 5 got %d", reloaded.Stock)
	}
}
