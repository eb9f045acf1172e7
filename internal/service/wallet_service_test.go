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

func setupWalletServiceTest(t *testing.T) (*WalletService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:wallet_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.WalletTransaction{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	userRepo := repository.NewUserRepository(db)
	txnRepo := repository.NewWalletTransactionRepository(db)
	return NewWalletService(userRepo, txnRepo), db
}

func createWalletTestUser(t *testing.T, db *gorm.DB, balance string) *models.User {
	t.Helper()
	amount, err := decimal.NewFromString(balance)
	if err != nil {
		t.Fatalf("parse balance failed: %v", err)
	}
	user := &models.User{
		Email:        fmt.Sprintf("wallet_%d@example.com", time.Now().UnixNano()),
		PasswordHash: "hash",
		Nickname:     "钱包用户",
		Role:         constants.UserRoleCustomer,
		Status:       constants.UserStatusActive,
		Balance:      models.NewMoneyFromDecimal(amount),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func TestDebitReducesBalanceAndWritesTxn(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "100.00")

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Debit(tx, user.ID, decimal.NewFromFloat(39.90), constants.WalletTxnTypeOrderPay, "order_pay:T1", "订单支付")
		return err
	})
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.Balance.Decimal.StringFixed(2) != "60.10" {
		t.Fatalf("expected balance 60.10, got %s", reloaded.Balance.Decimal.StringFixed(2))
	}

	var txn models.WalletTransaction
	if err := db.Where("reference = ?", "order_pay:T1").First(&txn).Error; err != nil {
		t.Fatalf("load txn failed: %v", err)
	}
	if txn.Direction != constants.WalletTxnDirectionOut {
		t.Fatalf("expected out direction, got %s", txn.Direction)
	}
	if txn.BalanceBefore.Decimal.StringFixed(2) != "100.00" || txn.BalanceAfter.Decimal.StringFixed(2) != "60.10" {
		t.Fatalf("unexpected before/after: %s -> %s", txn.BalanceBefore.Decimal.StringFixed(2), txn.BalanceAfter.Decimal.StringFixed(2))
	}
}

func TestDebitInsufficientBalance(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "10.00")

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Debit(tx, user.ID, decimal.NewFromFloat(10.01), constants.WalletTxnTypeOrderPay, "order_pay:T2", "订单支付")
		return err
	})
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.Balance.Decimal.StringFixed(2) != "10.00" {
		t.Fatalf("expected balance unchanged, got %s", reloaded.Balance.Decimal.StringFixed(2))
	}
}

func TestDebitIdempotentReplay(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "50.00")

	for i := 0; i < 2; i++ {
		err := models.DB.Transaction(func(tx *gorm.DB) error {
			_, err := svc.Debit(tx, user.ID, decimal.NewFromFloat(20.00), constants.WalletTxnTypeOrderPay, "order_pay:T3", "订单支付")
			return err
		})
		if err != nil {
			t.Fatalf("debit round %d failed: %v", i+1, err)
		}
	}

	var reloaded models.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("reload user failed: %v", err)
	}
	if reloaded.Balance.Decimal.StringFixed(2) != "30.00" {
		t.Fatalf("expected single debit, balance %s", reloaded.Balance.Decimal.StringFixed(2))
	}

	var count int64
	if err := db.Model(&models.WalletTransaction{}).Where("reference = ?", "order_pay:T3").Count(&count).Error; err != nil {
		t.Fatalf("count txns failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 txn, got %d", count)
	}
}

func TestRechargeIncreasesBalance(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "0.00")

	txn, err := svc.Recharge(user.ID, decimal.NewFromFloat(88.00))
	if err != nil {
		t.Fatalf("recharge failed: %v", err)
	}
	if txn.Direction != constants.WalletTxnDirectionIn || txn.Type != constants.WalletTxnTypeRecharge {
		t.Fatalf("unexpected txn %s/%s", txn.Type, txn.Direction)
	}

	balance, err := svc.GetBalance(user.ID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if balance.Decimal.StringFixed(2) != "88.00" {
		t.Fatalf("expected 88.00, got %s", balance.Decimal.StringFixed(2))
	}
}

func TestRechargeRejectsNonPositiveAmount(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	user := createWalletTestUser(t, db, "0.00")

	if _, err := svc.Recharge(user.ID, decimal.Zero); !errors.Is(err, ErrWalletAmountInvalid) {
		t.Fatalf("expected ErrWalletAmountInvalid, got %v", err)
	}
}
