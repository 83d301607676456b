package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"
	"github.com/jordan-wright/email"
	"go.uber.org/zap"

	"traguardo/backend/internal/config"
	"traguardo/backend/internal/domain"
)

// SMTPSender 通过 SMTP 中继投递邮件
//
// 开启 StartTLS 时要求服务器支持 STARTTLS；配置了用户名时使用 PLAIN 认证。
type SMTPSender struct {
	addr      string
	username  string
	password  string
	timeout   time.Duration
	tlsConfig *tls.Config // nil 表示明文连接
	log       *zap.Logger
}

// NewSMTPSender 创建 SMTP 投递器，log 可以为 nil
func NewSMTPSender(cfg config.SMTPConfig, timeout time.Duration, log *zap.Logger) *SMTPSender {
	if log == nil {
		log = zap.NewNop()
	}
	s := &SMTPSender{
		addr:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		username: cfg.Username,
		password: cfg.Password,
		timeout:  timeout,
		log:      log,
	}
	if cfg.StartTLS {
		s.tlsConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	}
	return s
}

func (s *SMTPSender) Name() string { return config.ProviderSMTP }

// Send 构造 MIME 邮件并完成一次完整的 SMTP 事务
//
// DATA 被中继接受即视为投递成功，之后 QUIT 失败只记录日志。
func (s *SMTPSender) Send(ctx context.Context, mail domain.OutboundMail) (string, error) {
	raw, err := buildMIME(mail)
	if err != nil {
		return "", fmt.Errorf("build mime message: %w", err)
	}

	dialer := &net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return "", &ProviderError{Provider: s.Name(), Err: err}
	}
	// 客户端每条命令都会重设连接截止时间，只能靠关闭连接中断
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := s.open(conn)
	if err != nil {
		return "", s.fail(ctx, fmt.Errorf("starttls: %w", err))
	}
	defer c.Close()

	if err := s.deliver(c, mail, raw); err != nil {
		return "", s.fail(ctx, err)
	}

	if err := c.Quit(); err != nil {
		s.log.Warn("smtp quit failed after message was accepted",
			zap.String("addr", s.addr),
			zap.Error(err),
		)
	}
	return "", nil
}

// open 建立 SMTP 会话，需要时先完成 STARTTLS 升级
func (s *SMTPSender) open(conn net.Conn) (*gosmtp.Client, error) {
	if s.tlsConfig == nil {
		return gosmtp.NewClient(conn), nil
	}
	return gosmtp.NewClientStartTLS(conn, s.tlsConfig)
}

func (s *SMTPSender) deliver(c *gosmtp.Client, mail domain.OutboundMail, raw []byte) error {
	if s.username != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("server does not support AUTH")
		}
		if err := c.Auth(sasl.NewPlainClient("", s.username, s.password)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.SendMail(mail.From, []string{mail.To}, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// fail 连接因 ctx 结束被关闭时附上 ctx 的错误，便于识别超时
func (s *SMTPSender) fail(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = errors.Join(ctxErr, err)
	}
	return s.wrap(err)
}

func (s *SMTPSender) wrap(err error) error {
	pe := &ProviderError{Provider: s.Name(), Err: err}
	var smtpErr *gosmtp.SMTPError
	if errors.As(err, &smtpErr) {
		pe.StatusCode = smtpErr.Code
		pe.Body = smtpErr.Message
	}
	return pe
}

// buildMIME 生成 multipart/alternative 邮件正文
func buildMIME(mail domain.OutboundMail) ([]byte, error) {
	e := email.NewEmail()
	e.From = mail.From
	e.To = []string{mail.To}
	e.ReplyTo = []string{mail.ReplyTo}
	e.Subject = mail.Subject
	e.Text = []byte(mail.Text)
	e.HTML = []byte(mail.HTML)
	return e.Bytes()
}
