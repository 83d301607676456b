package domain

import (
	"fmt"
	"strings"
	"time"

	"traguardo/backend/internal/security"
)

// 邮件时间戳格式，毫秒精度的 UTC ISO 8601
const mailTimestampLayout = "2006-01-02T15:04:05.000Z"

const mailHeading = "Nouveau message de contact (site Traguardo)"

// 主题是邮件头，不能包含换行
var headerSafe = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// OutboundMail 发往上游邮件服务的邮件，由有效提交确定性地构造
type OutboundMail struct {
	From    string
	To      string
	ReplyTo string // 提交者邮箱，收件人可直接回复
	Subject string
	Text    string
	HTML    string
}

// MailSettings 构造邮件所需的进程级配置
type MailSettings struct {
	From          string
	To            string
	SubjectPrefix string
}

// NewOutboundMail 根据已验证并裁剪的提交构造邮件
//
// HTML 正文中每个插值都经过转义；纯文本正文保持原样。
func NewOutboundMail(s ContactSubmission, meta RequestMeta, settings MailSettings) OutboundMail {
	ip := orNA(meta.SourceIP)
	userAgent := orNA(meta.UserAgent)
	timestamp := meta.ReceivedAt.UTC().Format(mailTimestampLayout)

	text := strings.Join([]string{
		mailHeading,
		"",
		"Nom: " + s.Name,
		"Email: " + s.Email,
		"",
		"Message:",
		s.Message,
		"",
		"---",
		"Date UTC: " + timestamp,
		"IP: " + ip,
		"User-Agent: " + userAgent,
	}, "\n")

	html := strings.Join([]string{
		"<h2>" + mailHeading + "</h2>",
		"<p><strong>Nom:</strong> " + security.EscapeHTML(s.Name) + "</p>",
		"<p><strong>Email:</strong> " + security.EscapeHTML(s.Email) + "</p>",
		"<p><strong>Message:</strong></p>",
		"<p>" + security.EscapeMultiline(s.Message) + "</p>",
		"<hr/>",
		"<p><strong>Date UTC:</strong> " + security.EscapeHTML(timestamp) + "</p>",
		"<p><strong>IP:</strong> " + security.EscapeHTML(ip) + "</p>",
		"<p><strong>User-Agent:</strong> " + security.EscapeHTML(userAgent) + "</p>",
	}, "\n")

	return OutboundMail{
		From:    settings.From,
		To:      settings.To,
		ReplyTo: s.Email,
		Subject: fmt.Sprintf("[%s] Nouveau message - %s", settings.SubjectPrefix, headerSafe.Replace(s.Name)),
		Text:    text,
		HTML:    html,
	}
}

// NewRequestMeta 构造请求元数据，时间统一为 UTC
func NewRequestMeta(sourceIP, userAgent string, receivedAt time.Time) RequestMeta {
	return RequestMeta{
		SourceIP:   strings.TrimSpace(sourceIP),
		UserAgent:  strings.TrimSpace(userAgent),
		ReceivedAt: receivedAt.UTC(),
	}
}

func orNA(value string) string {
	if value == "" {
		return "n/a"
	}
	return value
}
