package middleware

import (
	"github.com/gin-gonic/gin"
)

// OriginPolicy 联系接口的来源白名单
//
// 空列表：不下发 Access-Control-Allow-Origin，也不拒绝任何来源。
// 含 "*"：允许所有来源，包括没有 Origin 头的请求。
// 否则：只回显列表中的来源，其余拒绝。
type OriginPolicy struct {
	allowed  map[string]struct{}
	wildcard bool
}

// NewOriginPolicy 根据配置的来源列表创建策略
func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		if origin == "*" {
			p.wildcard = true
			continue
		}
		p.allowed[origin] = struct{}{}
	}
	return p
}

// Allowed 报告来源是否可以调用联系接口
//
// 没有 Origin 头的请求（服务端调用、curl）始终放行。
func (p *OriginPolicy) Allowed(origin string) bool {
	if origin == "" || p.wildcard || len(p.allowed) == 0 {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

// Headers 为每个响应写入 CORS 头，包括错误响应
func (p *OriginPolicy) Headers() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Max-Age", "86400")
		c.Header("Vary", "Origin")

		origin := c.GetHeader("Origin")
		switch {
		case p.wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "":
			if _, ok := p.allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
			}
		}

		c.Next()
	}
}
