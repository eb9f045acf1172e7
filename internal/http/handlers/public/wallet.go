package public

import (
	"strconv"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/http/response"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetMyWallet 查询钱包余额
func (h *Handler) GetMyWallet(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	balance, err := h.WalletService.GetBalance(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "钱包余额获取失败", err)
		return
	}

	response.Success(c, gin.H{
		"balance":  balance,
		"currency": constants.SiteCurrencyDefault,
	})
}

// RechargeWalletRequest 充值请求
type RechargeWalletRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// RechargeWallet 余额充值
func (h *Handler) RechargeWallet(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req RechargeWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	txn, err := h.WalletService.Recharge(userID, req.Amount)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrWalletAmountInvalid, code: response.CodeBadRequest, msg: "充值金额非法"},
			{target: service.ErrUserNotFound, code: response.CodeNotFound, msg: "用户不存在"},
		}, response.CodeInternal, "充值失败")
		return
	}

	requestLog(c).Infow("wallet_recharged",
		"user_id", userID,
		"txn_id", txn.ID,
		"amount", req.Amount.String(),
	)
	response.Success(c, txn)
}

// GetMyWalletTransactions 钱包流水列表
func (h *Handler) GetMyWalletTransactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	txns, total, err := h.WalletService.ListTransactions(repository.WalletTxnListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Type:     c.Query("type"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "钱包流水获取失败", err)
		return
	}

	response.SuccessWithPage(c, txns, response.NewPagination(page, pageSize, total))
}
