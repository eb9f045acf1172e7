package service

import (
	"strings"
	"time"

	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/constants"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/models"
	"github.com/AdamAmon/blindboxmall-backside-sub000/internal/repository"
)

// PostService 社区帖子服务
type PostService struct {
	postRepo      repository.PostRepository
	orderRepo     repository.OrderRepository
	orderItemRepo repository.OrderItemRepository
}

// NewPostService 创建帖子服务
func NewPostService(postRepo repository.PostRepository, orderRepo repository.OrderRepository, orderItemRepo repository.OrderItemRepository) *PostService {
	return &PostService{
		postRepo:      postRepo,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
	}
}

// CreatePostInput 创建帖子输入
type CreatePostInput struct {
	UserID      uint
	Type        string
	Title       string
	Content     string
	Images      []string
	OrderItemID *uint
}

var allowedPostTypes = map[string]struct{}{
	constants.PostTypeShow:   {},
	constants.PostTypeNotice: {},
}

// List 帖子列表
func (s *PostService) List(filter repository.PostListFilter) ([]models.Post, int64, error) {
	return s.postRepo.List(filter)
}

// Get 帖子详情
func (s *PostService) Get(id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

// Create 创建帖子。
// 晒单帖关联的订单项必须属于发帖人且已开盒。
func (s *PostService) Create(input CreatePostInput) (*models.Post, error) {
	if !isAllowedPostType(input.Type) {
		return nil, ErrPostNotFound
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrPostNotFound
	}

	if input.Type == constants.PostTypeShow && input.OrderItemID != nil {
		item, err := s.orderItemRepo.GetByID(*input.OrderItemID)
		if err != nil {
			return nil, err
		}
		if item == nil || !item.Opened {
			return nil, ErrOrderItemNotFound
		}
		order, err := s.orderRepo.GetByID(item.OrderID)
		if err != nil {
			return nil, err
		}
		if order == nil || order.UserID != input.UserID {
			return nil, ErrOrderItemNotFound
		}
	}

	now := time.Now()
	post := models.Post{
		UserID:      input.UserID,
		Type:        input.Type,
		Title:       title,
		Content:     strings.TrimSpace(input.Content),
		Images:      models.StringArray(input.Images),
		OrderItemID: input.OrderItemID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.postRepo.Create(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Update 更新帖子（仅作者本人）
func (s *PostService) Update(id uint, userID uint, title, content string, images []string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	if post.UserID != userID {
		return nil, ErrPermissionDenied
	}

	if trimmed := strings.TrimSpace(title); trimmed != "" {
		post.Title = trimmed
	}
	if trimmed := strings.TrimSpace(content); trimmed != "" {
		post.Content = trimmed
	}
	if images != nil {
		post.Images = models.StringArray(images)
	}
	post.UpdatedAt = time.Now()

	if err := s.postRepo.Update(post); err != nil {
		return nil, err
	}
	return post, nil
}

// Delete 删除帖子（仅作者本人）
func (s *PostService) Delete(id uint, userID uint) error {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	if post.UserID != userID {
		return ErrPermissionDenied
	}
	return s.postRepo.Delete(id)
}

func isAllowedPostType(postType string) bool {
	_, ok := allowedPostTypes[postType]
	return ok
}
