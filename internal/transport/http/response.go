package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 联系接口的响应结构
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Success 成功响应（200）
func Success(c *gin.Context) {
	c.JSON(http.StatusOK, Response{OK: true})
}

// Fail 错误响应
func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Response{OK: false, Error: msg})
}

// FailWithError 根据错误映射表返回错误响应
func FailWithError(c *gin.Context, err error) {
	status, msg := ResolveError(err)
	Fail(c, status, msg)
}

// NotFound 资源不存在（404）
func NotFound(c *gin.Context) {
	Fail(c, http.StatusNotFound, MsgNotFound)
}

// MethodNotAllowed 方法不允许（405）
func MethodNotAllowed(c *gin.Context) {
	Fail(c, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
}
