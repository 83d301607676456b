package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"traguardo/backend/internal/config"
)

// ClientConfig 下发给静态站点和命令行客户端的配置
type ClientConfig struct {
	ContactEndpoint string `json:"contactEndpoint"`
	FallbackEmail   string `json:"fallbackEmail"`
}

// ClientConfigHandler 客户端配置处理器
type ClientConfigHandler struct {
	payload ClientConfig
}

// NewClientConfigHandler 创建客户端配置处理器，内容在启动时固定
func NewClientConfigHandler(cfg *config.Config) *ClientConfigHandler {
	return &ClientConfigHandler{
		payload: ClientConfig{
			ContactEndpoint: cfg.Contact.PublicEndpoint,
			FallbackEmail:   cfg.Contact.FallbackEmail,
		},
	}
}

// Get 返回客户端配置
func (h *ClientConfigHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.payload)
}
