package service

import (
	"fmt"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/logger"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletService 钱包服务
type WalletService struct {
	userRepo      repository.UserRepository
	walletTxnRepo repository.WalletTransactionRepository
}

// NewWalletService 创建钱包服务
func NewWalletService(userRepo repository.UserRepository, walletTxnRepo repository.WalletTransactionRepository) *WalletService {
	return &WalletService{
		userRepo:      userRepo,
		walletTxnRepo: walletTxnRepo,
	}
}

// Debit 事务内扣减余额并记录流水。
// reference 作为幂等键：同一引用的流水已存在时直接返回，不重复扣款。
func (s *WalletService) Debit(tx *gorm.DB, userID uint, amount decimal.Decimal, txnType, reference, remark string) (*models.WalletTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletAmountInvalid
	}
	userRepo := s.userRepo.WithTx(tx)
	txnRepo := s.walletTxnRepo.WithTx(tx)

	existing, err := txnRepo.GetByReference(reference)
	if err != nil {
		return nil, ErrWalletUpdateFailed
	}
	if existing != nil {
		logger.Debugw("wallet_debit_idempotent_replay", "user_id", userID, "reference", reference)
		return existing, nil
	}

	user, err := userRepo.GetByIDForUpdate(userID)
	if err != nil {
		return nil, ErrWalletUpdateFailed
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Balance.Decimal.LessThan(amount) {
		return nil, ErrInsufficientBalance
	}

	money := models.NewMoneyFromDecimal(amount)
	ok, err := userRepo.DebitBalance(userID, money)
	if err != nil {
		return nil, ErrWalletUpdateFailed
	}
	if !ok {
		return nil, ErrInsufficientBalance
	}

	balanceAfter := user.Balance.Decimal.Sub(amount)
	txn := &models.WalletTransaction{
		UserID:        userID,
		Type:          txnType,
		Direction:     constants.WalletTxnDirectionOut,
		Amount:        money,
		BalanceBefore: user.Balance,
		BalanceAfter:  models.NewMoneyFromDecimal(balanceAfter),
		Reference:     reference,
		Remark:        remark,
		CreatedAt:     time.Now(),
	}
	if err := txnRepo.Create(txn); err != nil {
		return nil, ErrWalletUpdateFailed
	}
	return txn, nil
}

// Credit 事务内增加余额并记录流水
func (s *WalletService) Credit(tx *gorm.DB, userID uint, amount decimal.Decimal, txnType, reference, remark string) (*models.WalletTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletAmountInvalid
	}
	userRepo := s.userRepo.WithTx(tx)
	txnRepo := s.walletTxnRepo.WithTx(tx)

	existing, err := txnRepo.GetByReference(reference)
	if err != nil {
		return nil, ErrWalletUpdateFailed
	}
	if existing != nil {
		logger.Debugw("wallet_credit_idempotent_replay", "user_id", userID, "reference", reference)
		return existing, nil
	}

	user, err := userRepo.GetByIDForUpdate(userID)
	if err != nil {
		return nil, ErrWalletUpdateFailed
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	money := models.NewMoneyFromDecimal(amount)
	if err := userRepo.CreditBalance(userID, money); err != nil {
		return nil, ErrWalletUpdateFailed
	}

	balanceAfter := user.Balance.Decimal.Add(amount)
	txn := &models.WalletTransaction{
		UserID:        userID,
		Type:          txnType,
		Direction:     constants.WalletTxnDirectionIn,
		Amount:        money,
		BalanceBefore: user.Balance,
		BalanceAfter:  models.NewMoneyFromDecimal(balanceAfter),
		Reference:     reference,
		Remark:        remark,
		CreatedAt:     time.Now(),
	}
	if err := txnRepo.Create(txn); err != nil {
		return nil, ErrWalletUpdateFailed
	}
	return txn, nil
}

// Recharge 余额充值
func (s *WalletService) Recharge(userID uint, amount decimal.Decimal) (*models.WalletTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletAmountInvalid
	}
	reference := fmt.Sprintf("recharge:%d:%d", userID, time.Now().UnixNano())
	var txn *models.WalletTransaction
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		created, err := s.Credit(tx, userID, amount, constants.WalletTxnTypeRecharge, reference, "余额充值")
		if err != nil {
			return err
		}
		txn = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// GetBalance 查询余额
func (s *WalletService) GetBalance(userID uint) (models.Money, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return models.Money{}, ErrWalletUpdateFailed
	}
	if user == nil {
		return models.Money{}, ErrUserNotFound
	}
	return user.Balance, nil
}

// ListTransactions 钱包流水列表
func (s *WalletService) ListTransactions(filter repository.WalletTxnListFilter) ([]models.WalletTransaction, int64, error) {
	return s.walletTxnRepo.List(filter)
}
