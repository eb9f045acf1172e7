package seller

import (
	"errors"
	"strconv"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/http/response"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateBlindBoxRequest 创建盲盒请求
type CreateBlindBoxRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	CoverImage  string          `json:"cover_image"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock"`
}

// CreateBlindBox 创建盲盒，新盒默认下架待配置奖池
func (h *Handler) CreateBlindBox(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}

	var req CreateBlindBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	box, err := h.BlindBoxService.CreateBlindBox(service.CreateBlindBoxInput{
		SellerID:    sellerID,
		Name:        req.Name,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		if errors.Is(err, service.ErrBlindBoxNotFound) {
			respondError(c, response.CodeBadRequest, "盲盒参数非法", nil)
			return
		}
		respondError(c, response.CodeInternal, "盲盒创建失败", err)
		return
	}

	requestLog(c).Infow("blind_box_created", "box_id", box.ID, "seller_id", sellerID)
	response.Success(c, box)
}

// UpdateBlindBoxRequest 更新盲盒请求
type UpdateBlindBoxRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	CoverImage  string           `json:"cover_image"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Status      string           `json:"status"`
}

// UpdateBlindBox 更新盲盒，上架前校验奖池概率配置
func (h *Handler) UpdateBlindBox(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	boxID, ok := parseBlindBoxID(c)
	if !ok {
		return
	}

	var req UpdateBlindBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	box, err := h.BlindBoxService.UpdateBlindBox(boxID, sellerID, service.UpdateBlindBoxInput{
		Name:        req.Name,
		Description: req.Description,
		CoverImage:  req.CoverImage,
		Price:       req.Price,
		Stock:       req.Stock,
		Status:      req.Status,
	})
	if err != nil {
		respondBlindBoxWriteError(c, err, "盲盒更新失败")
		return
	}

	response.Success(c, box)
}

// DeleteBlindBox 删除盲盒
func (h *Handler) DeleteBlindBox(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	boxID, ok := parseBlindBoxID(c)
	if !ok {
		return
	}

	if err := h.BlindBoxService.DeleteBlindBox(boxID, sellerID); err != nil {
		respondBlindBoxWriteError(c, err, "盲盒删除失败")
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// ListMyBlindBoxes 卖家名下盲盒列表（含下架）
func (h *Handler) ListMyBlindBoxes(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	boxes, total, err := h.BlindBoxService.ListBlindBoxes(repository.BlindBoxListFilter{
		Page:     page,
		PageSize: pageSize,
		SellerID: sellerID,
		Status:   c.Query("status"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "盲盒列表获取失败", err)
		return
	}

	response.SuccessWithPage(c, boxes, response.NewPagination(page, pageSize, total))
}

// PrizeItemRequest 奖品写入请求
type PrizeItemRequest struct {
	Name        string  `json:"name" binding:"required"`
	Image       string  `json:"image"`
	Rarity      string  `json:"rarity"`
	Probability float64 `json:"probability" binding:"required"`
}

// AddPrizeItem 向盲盒奖池新增奖品
func (h *Handler) AddPrizeItem(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	boxID, ok := parseBlindBoxID(c)
	if !ok {
		return
	}

	var req PrizeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	item, err := h.BlindBoxService.AddPrizeItem(boxID, sellerID, service.PrizeItemInput{
		Name:        req.Name,
		Image:       req.Image,
		Rarity:      req.Rarity,
		Probability: req.Probability,
	})
	if err != nil {
		respondPrizeWriteError(c, err, "奖品新增失败")
		return
	}

	response.Success(c, item)
}

// UpdatePrizeItem 更新奖池中的奖品
func (h *Handler) UpdatePrizeItem(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	itemID, ok := parsePrizeItemID(c)
	if !ok {
		return
	}

	var req PrizeItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	item, err := h.BlindBoxService.UpdatePrizeItem(itemID, sellerID, service.PrizeItemInput{
		Name:        req.Name,
		Image:       req.Image,
		Rarity:      req.Rarity,
		Probability: req.Probability,
	})
	if err != nil {
		respondPrizeWriteError(c, err, "奖品更新失败")
		return
	}

	response.Success(c, item)
}

// DeletePrizeItem 删除奖池中的奖品
func (h *Handler) DeletePrizeItem(c *gin.Context) {
	sellerID, ok := getSellerID(c)
	if !ok {
		return
	}
	itemID, ok := parsePrizeItemID(c)
	if !ok {
		return
	}

	if err := h.BlindBoxService.DeletePrizeItem(itemID, sellerID); err != nil {
		respondPrizeWriteError(c, err, "奖品删除失败")
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

func respondBlindBoxWriteError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrBlindBoxNotFound):
		respondError(c, response.CodeNotFound, "盲盒不存在或参数非法", nil)
	case errors.Is(err, service.ErrPermissionDenied):
		respondError(c, response.CodeForbidden, "无权操作该盲盒", nil)
	case errors.Is(err, service.ErrPrizePoolEmpty):
		respondError(c, response.CodeBadRequest, "上架前需配置奖池", nil)
	case errors.Is(err, service.ErrPrizeProbabilityInvalid):
		respondError(c, response.CodeBadRequest, "奖池概率之和必须为 1", nil)
	case errors.Is(err, service.ErrWalletAmountInvalid):
		respondError(c, response.CodeBadRequest, "盲盒价格非法", nil)
	case errors.Is(err, service.ErrBlindBoxOutOfStock):
		respondError(c, response.CodeBadRequest, "盲盒库存非法", nil)
	default:
		respondError(c, response.CodeInternal, fallbackMsg, err)
	}
}

func respondPrizeWriteError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrBlindBoxNotFound):
		respondError(c, response.CodeNotFound, "盲盒不存在", nil)
	case errors.Is(err, service.ErrPrizeItemNotFound):
		respondError(c, response.CodeNotFound, "奖品不存在", nil)
	case errors.Is(err, service.ErrPermissionDenied):
		respondError(c, response.CodeForbidden, "无权操作该盲盒", nil)
	case errors.Is(err, service.ErrPrizeProbabilityInvalid):
		respondError(c, response.CodeBadRequest, "奖池概率之和必须为 1", nil)
	default:
		respondError(c, response.CodeInternal, fallbackMsg, err)
	}
}

func parseBlindBoxID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "盲盒 ID 非法", nil)
		return 0, false
	}
	return uint(id), true
}

func parsePrizeItemID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("item_id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "奖品 ID 非法", nil)
		return 0, false
	}
	return uint(id), true
}
