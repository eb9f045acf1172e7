package seller

import "github.com/AdamAmon/blindboxmall-backside-sub000/internal/provider"

// Handler 卖家侧接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建卖家侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
