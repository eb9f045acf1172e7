package public

import (
	"errors"
	"strconv"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/http/response"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// AddressRequest 地址写入请求
type AddressRequest struct {
	Recipient string `json:"recipient" binding:"required"`
	Phone     string `json:"phone"`
	Province  string `json:"province"`
	City      string `json:"city"`
	District  string `json:"district"`
	Detail    string `json:"detail" binding:"required"`
	IsDefault bool   `json:"is_default"`
}

func (r AddressRequest) toInput() service.AddressInput {
	return service.AddressInput{
		Recipient: r.Recipient,
		Phone:     r.Phone,
		Province:  r.Province,
		City:      r.City,
		District:  r.District,
		Detail:    r.Detail,
		IsDefault: r.IsDefault,
	}
}

// CreateAddress 新增收货地址
func (h *Handler) CreateAddress(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	address, err := h.AddressService.Create(userID, req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrAddressNotFound) {
			respondError(c, response.CodeBadRequest, "地址信息不完整", nil)
			return
		}
		respondError(c, response.CodeInternal, "地址创建失败", err)
		return
	}

	response.Success(c, address)
}

// UpdateAddress 更新收货地址
func (h *Handler) UpdateAddress(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseAddressID(c)
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	address, err := h.AddressService.Update(addressID, userID, req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrAddressNotFound) {
			respondError(c, response.CodeNotFound, "地址不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "地址更新失败", err)
		return
	}

	response.Success(c, address)
}

// DeleteAddress 删除收货地址
func (h *Handler) DeleteAddress(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseAddressID(c)
	if !ok {
		return
	}

	if err := h.AddressService.Delete(addressID, userID); err != nil {
		if errors.Is(err, service.ErrAddressNotFound) {
			respondError(c, response.CodeNotFound, "地址不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "地址删除失败", err)
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

// GetAddress 地址详情
func (h *Handler) GetAddress(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	addressID, ok := parseAddressID(c)
	if !ok {
		return
	}

	address, err := h.AddressService.Get(addressID, userID)
	if err != nil {
		if errors.Is(err, service.ErrAddressNotFound) {
			respondError(c, response.CodeNotFound, "地址不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "地址获取失败", err)
		return
	}

	response.Success(c, address)
}

// ListAddresses 我的地址列表
func (h *Handler) ListAddresses(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	addresses, err := h.AddressService.List(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "地址列表获取失败", err)
		return
	}

	response.Success(c, addresses)
}

func parseAddressID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "地址 ID 非法", nil)
		return 0, false
	}
	return uint(id), true
}
