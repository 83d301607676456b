package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"traguardo/backend/internal/config"
	"traguardo/backend/internal/domain"
)

// 上游错误响应最多读取 64KB
const maxProviderBody = 64 << 10

// ResendSender 通过 Resend HTTP API 投递邮件
type ResendSender struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// NewResendSender 创建 Resend 投递器，endpoint 为空时使用官方地址
func NewResendSender(apiKey, endpoint string, client *http.Client) *ResendSender {
	if endpoint == "" {
		endpoint = config.DefaultResendEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ResendSender{apiKey: apiKey, endpoint: endpoint, client: client}
}

func (s *ResendSender) Name() string { return config.ProviderResend }

// Send 发送单封邮件，任何非 2xx 状态都视为失败
func (s *ResendSender) Send(ctx context.Context, mail domain.OutboundMail) (string, error) {
	payload, err := json.Marshal(resendRequest{
		From:    mail.From,
		To:      []string{mail.To},
		ReplyTo: mail.ReplyTo,
		Subject: mail.Subject,
		Text:    mail.Text,
		HTML:    mail.HTML,
	})
	if err != nil {
		return "", fmt.Errorf("marshal resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &ProviderError{Provider: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ProviderError{Provider: s.Name(), StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out resendResponse
	_ = json.Unmarshal(body, &out)
	return out.ID, nil
}
