package httptransport

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"traguardo/backend/internal/domain"
	"traguardo/backend/internal/middleware"
	"traguardo/backend/internal/service"
)

// ContactHandler 联系表单网关
type ContactHandler struct {
	contacts  *service.ContactService
	origins   *middleware.OriginPolicy
	bodyLimit int64
	now       func() time.Time
}

// NewContactHandler 创建联系表单处理器
func NewContactHandler(contacts *service.ContactService, origins *middleware.OriginPolicy, bodyLimit int64) *ContactHandler {
	return &ContactHandler{
		contacts:  contacts,
		origins:   origins,
		bodyLimit: bodyLimit,
		now:       time.Now,
	}
}

// Handle 处理 /api/contact 上的所有方法
//
// 顺序：方法 → 来源 → 服务端配置 → 请求体大小与解析 → 蜜罐 → 验证 → 投递。
// CORS 头由 OriginPolicy.Headers 在此之前写入。
func (h *ContactHandler) Handle(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		c.AbortWithStatus(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		MethodNotAllowed(c)
		return
	}

	if !h.origins.Allowed(c.GetHeader("Origin")) {
		Fail(c, http.StatusForbidden, MsgOriginNotAllowed)
		return
	}

	if err := h.contacts.CheckConfigured(); err != nil {
		FailWithError(c, err)
		return
	}

	if !middleware.LimitBody(c, h.bodyLimit) {
		Fail(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		if middleware.IsBodyTooLarge(err) {
			Fail(c, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
			return
		}
		FailWithError(c, errMalformedJSON)
		return
	}

	payload, err := decodePayload(body)
	if err != nil {
		FailWithError(c, err)
		return
	}

	_, err = h.contacts.Submit(c.Request.Context(), service.SubmitInput{
		Submission: domain.SubmissionFromPayload(payload),
		Meta:       domain.NewRequestMeta(sourceIP(c), c.Request.UserAgent(), h.now()),
		RequestID:  middleware.GetRequestID(c),
	})
	if err != nil {
		FailWithError(c, err)
		return
	}

	Success(c)
}

// decodePayload 解析请求体
//
// 非法 JSON 返回 errMalformedJSON；null 与标量返回 ErrInvalidPayload；
// 数组按空对象处理，随后在验证阶段报告缺少字段。
func decodePayload(body []byte) (map[string]any, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errMalformedJSON
	}

	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case []any:
		return map[string]any{}, nil
	default:
		return nil, domain.ErrInvalidPayload
	}
}

// sourceIP 优先使用 CDN 提供的真实客户端地址
func sourceIP(c *gin.Context) string {
	if ip := c.GetHeader("CF-Connecting-IP"); ip != "" {
		return ip
	}
	return c.ClientIP()
}
