package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"traguardo/backend/internal/config"
	"traguardo/backend/internal/domain"
	"traguardo/backend/internal/logger"
	"traguardo/backend/internal/mailer"
	"traguardo/backend/internal/monitoring"
)

// Outcome 一次提交的最终结果，用作日志字段和指标标签
type Outcome string

const (
	OutcomeSent            Outcome = "sent"
	OutcomeHoneypot        Outcome = "honeypot"
	OutcomeInvalid         Outcome = "invalid"
	OutcomeNotConfigured   Outcome = "not_configured"
	OutcomeUpstreamError   Outcome = "upstream_error"
	OutcomeUpstreamTimeout Outcome = "upstream_timeout"
)

// SubmitInput 定义提交联系表单所需的输入。
type SubmitInput struct {
	Submission domain.ContactSubmission
	Meta       domain.RequestMeta
	RequestID  string
}

// SubmitResult 提交结果
type SubmitResult struct {
	Outcome   Outcome
	MessageID string
}

// ContactService 封装联系表单的投递流程。
type ContactService struct {
	cfg       *config.Config
	sender    mailer.Sender
	validator *domain.Validator
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

// NewContactService 创建联系表单服务，metrics 可以为 nil。
func NewContactService(cfg *config.Config, sender mailer.Sender, metrics *monitoring.Metrics, logger *zap.Logger) *ContactService {
	return &ContactService{
		cfg:       cfg,
		sender:    sender,
		validator: domain.NewValidator(),
		metrics:   metrics,
		logger:    logger,
	}
}

// CheckConfigured 确认投递所需的密钥和地址齐全。
//
// 缺失项只写入日志，调用方只会得到 ErrNotConfigured。
func (s *ContactService) CheckConfigured() error {
	missing := s.cfg.MissingSettings()
	if len(missing) == 0 {
		return nil
	}
	s.logger.Error("contact delivery not configured",
		zap.String("provider", s.cfg.Contact.Provider),
		zap.Strings("missing", missing),
	)
	s.record(OutcomeNotConfigured)
	return domain.ErrNotConfigured
}

// Submit 处理一次已解析的提交：蜜罐 → 裁剪与验证 → 构造邮件 → 投递。
//
// 蜜罐命中时直接返回成功，不做验证也不调用上游。
func (s *ContactService) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	if err := s.CheckConfigured(); err != nil {
		return SubmitResult{Outcome: OutcomeNotConfigured}, err
	}

	log := logger.WithRequest(s.logger, input.RequestID, input.Meta.SourceIP)

	if input.Submission.IsAutomated() {
		log.Warn("honeypot triggered, submission dropped",
			zap.String("user_agent", input.Meta.UserAgent),
		)
		s.record(OutcomeHoneypot)
		return SubmitResult{Outcome: OutcomeHoneypot}, nil
	}

	submission := input.Submission.Sanitized()
	if err := s.validator.Validate(submission); err != nil {
		log.Info("submission rejected", zap.Error(err))
		s.record(OutcomeInvalid)
		return SubmitResult{Outcome: OutcomeInvalid}, err
	}

	mail := domain.NewOutboundMail(submission, input.Meta, domain.MailSettings{
		From:          s.cfg.Contact.FromEmail,
		To:            s.cfg.Contact.ToEmail,
		SubjectPrefix: s.cfg.Contact.SubjectPrefix,
	})

	messageID, outcome, err := s.dispatch(ctx, mail)
	s.record(outcome)
	if err != nil {
		log.Error("email provider failure",
			zap.String("provider", s.sender.Name()),
			zap.String("outcome", string(outcome)),
			logger.Submitter(mail.ReplyTo),
			zap.Error(err),
		)
		return SubmitResult{Outcome: outcome}, err
	}

	log.Info("contact message sent",
		zap.String("provider", s.sender.Name()),
		zap.String("message_id", messageID),
		logger.Submitter(mail.ReplyTo),
	)
	return SubmitResult{Outcome: OutcomeSent, MessageID: messageID}, nil
}

// dispatch 调用上游，不受调用方断开影响，但受发送超时约束
func (s *ContactService) dispatch(ctx context.Context, mail domain.OutboundMail) (string, Outcome, error) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Contact.SendTimeout)
	defer cancel()

	start := time.Now()
	messageID, err := s.sender.Send(sendCtx, mail)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		s.observe("ok", elapsed)
		return messageID, OutcomeSent, nil
	case errors.Is(err, context.DeadlineExceeded):
		s.observe("timeout", elapsed)
		return "", OutcomeUpstreamTimeout, upstream(err)
	default:
		s.observe("error", elapsed)
		return "", OutcomeUpstreamError, upstream(err)
	}
}

// upstream 保证所有投递失败都能被识别为 ErrUpstream
func upstream(err error) error {
	if errors.Is(err, domain.ErrUpstream) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
}

func (s *ContactService) record(outcome Outcome) {
	if s.metrics != nil {
		s.metrics.RecordSubmission(string(outcome))
	}
}

func (s *ContactService) observe(result string, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordProviderCall(s.sender.Name(), result, elapsed)
	}
}
