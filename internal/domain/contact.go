package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// 联系表单相关的错误定义
var (
	ErrInvalidPayload       = errors.New("payload is not a JSON object")
	ErrMissingFields        = errors.New("missing required fields")
	ErrNameTooLong          = errors.New("name too long")
	ErrInvalidEmail         = errors.New("invalid email")
	ErrInvalidMessageLength = errors.New("invalid message length")
	ErrNotConfigured        = errors.New("contact delivery not configured")
	ErrUpstream             = errors.New("email provider failure")
)

// 字段长度限制（按字符计数）
const (
	MaxNameLength    = 120
	MaxEmailLength   = 254
	MinMessageLength = 10
	MaxMessageLength = 5000
)

// ContactSubmission 联系表单提交，只存在于单个请求的生命周期内
type ContactSubmission struct {
	Name    string `json:"name" validate:"max=120"`
	Email   string `json:"email" validate:"max=254,contact_email"`
	Message string `json:"message" validate:"min=10,max=5000"`
	Website string `json:"website,omitempty" validate:"-"` // 蜜罐字段，人类用户不可见
}

// SubmissionFromPayload 从任意 JSON 对象构造提交
//
// 字符串原样保留，数字和 true 转为文本，其余类型视为空。
// 蜜罐字段只要是非空值即被记录，不做裁剪。
func SubmissionFromPayload(payload map[string]any) ContactSubmission {
	return ContactSubmission{
		Name:    coerceString(payload["name"]),
		Email:   coerceString(payload["email"]),
		Message: coerceString(payload["message"]),
		Website: honeypotValue(payload["website"]),
	}
}

// Sanitized 返回去除首尾空白后的副本，服务端从不信任客户端的裁剪
func (s ContactSubmission) Sanitized() ContactSubmission {
	return ContactSubmission{
		Name:    TrimSpace(s.Name),
		Email:   TrimSpace(s.Email),
		Message: TrimSpace(s.Message),
		Website: s.Website,
	}
}

// TrimSpace 去除首尾空白，空白的范围与浏览器一致：
// ASCII 空白、\v、Unicode 空格分隔符（含 NBSP）、行/段分隔符和 BOM。
func TrimSpace(value string) string {
	return strings.TrimFunc(value, IsFormSpace)
}

// IsFormSpace 报告字符是否属于表单空白
func IsFormSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// IsAutomated 报告蜜罐字段是否被填写
func (s ContactSubmission) IsAutomated() bool {
	return s.Website != ""
}

// RequestMeta 请求元数据，写入邮件正文供运营人员查看
type RequestMeta struct {
	SourceIP   string
	UserAgent  string
	ReceivedAt time.Time
}

func coerceString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == 0 {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "true"
		}
	}
	return ""
}

// honeypotValue 与 coerceString 相同，但对象和数组同样视为已填写
func honeypotValue(value any) string {
	switch value.(type) {
	case map[string]any, []any:
		return "filled"
	}
	return coerceString(value)
}
