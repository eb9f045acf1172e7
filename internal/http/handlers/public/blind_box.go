package public

import (
	"errors"
	"strconv"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/http/response"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// GetBlindBoxes 在售盲盒列表
func (h *Handler) GetBlindBoxes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	boxes, total, err := h.BlindBoxService.ListBlindBoxes(repository.BlindBoxListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   constants.BlindBoxStatusOnShelf,
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "盲盒列表获取失败", err)
		return
	}

	response.SuccessWithPage(c, boxes, response.NewPagination(page, pageSize, total))
}

// GetBlindBox 盲盒详情，含奖池与概率
func (h *Handler) GetBlindBox(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "盲盒 ID 非法", nil)
		return
	}

	box, err := h.BlindBoxService.GetBlindBox(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrBlindBoxNotFound) {
			respondError(c, response.CodeNotFound, "盲盒不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "盲盒详情获取失败", err)
		return
	}

	response.Success(c, box)
}
