package mailer

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"traguardo/backend/internal/config"
	"traguardo/backend/internal/domain"
)

// Sender 邮件投递接口，每个上游服务一个实现
type Sender interface {
	// Send 投递一封邮件，返回上游分配的消息 ID（可能为空）
	Send(ctx context.Context, mail domain.OutboundMail) (string, error)
	// Name 返回提供方名称，用于日志与指标标签
	Name() string
}

// ProviderError 上游服务返回的失败
//
// 细节只写入日志，绝不返回给调用方。
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Provider, e.Body)
	}
}

// Unwrap 同时暴露 ErrUpstream 与底层原因，便于识别超时
func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{domain.ErrUpstream}
	}
	return []error{domain.ErrUpstream, e.Err}
}

// New 根据配置选择邮件提供方
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (Sender, error) {
	var (
		sender Sender
		err    error
	)

	switch cfg.Contact.Provider {
	case config.ProviderResend:
		sender = NewResendSender(cfg.Resend.APIKey, cfg.Resend.Endpoint, &http.Client{Timeout: cfg.Contact.SendTimeout})
	case config.ProviderSMTP:
		sender = NewSMTPSender(cfg.SMTP, cfg.Contact.SendTimeout, log)
	case config.ProviderSES:
		sender, err = NewSESSender(ctx, cfg.SES)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Contact.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s sender: %w", cfg.Contact.Provider, err)
	}

	log.Info("mail provider selected",
		zap.String("provider", sender.Name()),
		zap.Duration("timeout", cfg.Contact.SendTimeout),
	)
	return sender, nil
}
