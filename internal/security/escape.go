package security

import "strings"

// htmlReplacer 替换五个 HTML 特殊字符，& 必须与其他字符在同一遍中处理
var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// EscapeHTML 将任意文本转换为可安全插入 HTML 的文本
//
// 对所有输入（包括空字符串和多字节内容）都有定义，不保证幂等：
// 已转义的文本会被再次转义。
func EscapeHTML(value string) string {
	return htmlReplacer.Replace(value)
}

// EscapeMultiline 转义文本并把换行转换为 <br/>，用于邮件正文段落
func EscapeMultiline(value string) string {
	return strings.ReplaceAll(EscapeHTML(value), "\n", "<br/>")
}
