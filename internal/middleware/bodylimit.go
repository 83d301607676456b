package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultBodyLimit 默认请求体大小限制，联系表单远小于此值
const DefaultBodyLimit = 64 * 1024

// LimitBody 限制请求体大小
//
// 声明的 Content-Length 超限时返回 false，调用方应回应 413；
// 未声明长度的请求在读取时截断，由 IsBodyTooLarge 识别。
// 由处理器在方法与来源检查之后调用。
func LimitBody(c *gin.Context, maxBytes int64) bool {
	if maxBytes <= 0 {
		maxBytes = DefaultBodyLimit
	}
	if c.Request.ContentLength > maxBytes {
		return false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return true
}

// IsBodyTooLarge 报告读取错误是否由请求体大小限制引起
func IsBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
