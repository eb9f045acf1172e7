package public

import (
	"errors"
	"strconv"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/http/response"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

// GetPosts 帖子列表（晒单/公告）
func (h *Handler) GetPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	posts, total, err := h.PostService.List(repository.PostListFilter{
		Page:     page,
		PageSize: pageSize,
		Type:     c.Query("type"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "帖子列表获取失败", err)
		return
	}

	response.SuccessWithPage(c, posts, response.NewPagination(page, pageSize, total))
}

// GetPost 帖子详情
func (h *Handler) GetPost(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	post, err := h.PostService.Get(postID)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, response.CodeNotFound, "帖子不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "帖子详情获取失败", err)
		return
	}

	response.Success(c, post)
}

// CreatePostRequest 发帖请求
type CreatePostRequest struct {
	Type        string   `json:"type" binding:"required"`
	Title       string   `json:"title" binding:"required"`
	Content     string   `json:"content"`
	Images      []string `json:"images"`
	OrderItemID *uint    `json:"order_item_id"`
}

// CreatePost 发布帖子，晒单帖需关联本人已开盒的订单项
func (h *Handler) CreatePost(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	post, err := h.PostService.Create(service.CreatePostInput{
		UserID:      userID,
		Type:        req.Type,
		Title:       req.Title,
		Content:     req.Content,
		Images:      req.Images,
		OrderItemID: req.OrderItemID,
	})
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrPostNotFound, code: response.CodeBadRequest, msg: "帖子类型或标题非法"},
			{target: service.ErrOrderItemNotFound, code: response.CodeBadRequest, msg: "关联的订单项不存在或未开盒"},
		}, response.CodeInternal, "帖子发布失败")
		return
	}

	response.Success(c, post)
}

// UpdatePostRequest 帖子更新请求
type UpdatePostRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

// UpdatePost 更新帖子（仅作者本人）
func (h *Handler) UpdatePost(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	var req UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数不合法", err)
		return
	}

	post, err := h.PostService.Update(postID, userID, req.Title, req.Content, req.Images)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrPostNotFound, code: response.CodeNotFound, msg: "帖子不存在"},
			{target: service.ErrPermissionDenied, code: response.CodeForbidden, msg: "无权操作该帖子"},
		}, response.CodeInternal, "帖子更新失败")
		return
	}

	response.Success(c, post)
}

// DeletePost 删除帖子（仅作者本人）
func (h *Handler) DeletePost(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	if err := h.PostService.Delete(postID, userID); err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrPostNotFound, code: response.CodeNotFound, msg: "帖子不存在"},
			{target: service.ErrPermissionDenied, code: response.CodeForbidden, msg: "无权操作该帖子"},
		}, response.CodeInternal, "帖子删除失败")
		return
	}

	response.Success(c, gin.H{"deleted": true})
}

func parsePostID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "帖子 ID 非法", nil)
		return 0, false
	}
	return uint(id), true
}
