package public

import "github.com/AdamAmon/blindboxmall-backside-sub000/internal/provider"

// Handler 用户侧接口处理器入口
// 说明：该处理器仅用于买家、游客侧 API。
type Handler struct {
	*provider.Container
}

// New 创建用户侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
