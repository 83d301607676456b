package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"traguardo/backend/internal/config"
	"traguardo/backend/internal/domain"
)

// sesAPI 是 SESSender 依赖的 SDK 方法子集，测试中可替换
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender 通过 AWS SES v2 投递邮件
type SESSender struct {
	client sesAPI
}

// NewSESSender 创建 SES 投递器
//
// 配置了静态密钥时直接使用，否则回退到 SDK 默认凭证链（环境变量、实例角色等）。
func NewSESSender(ctx context.Context, cfg config.SESConfig) (*SESSender, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newSESSender(sesv2.NewFromConfig(awsCfg)), nil
}

func newSESSender(client sesAPI) *SESSender {
	return &SESSender{client: client}
}

func (s *SESSender) Name() string { return config.ProviderSES }

// Send 以 Simple 内容发送，正文同时包含纯文本和 HTML
func (s *SESSender) Send(ctx context.Context, mail domain.OutboundMail) (string, error) {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(mail.From),
		Destination:      &types.Destination{ToAddresses: []string{mail.To}},
		ReplyToAddresses: []string{mail.ReplyTo},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(mail.Subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(mail.Text), Charset: aws.String("UTF-8")},
					Html: &types.Content{Data: aws.String(mail.HTML), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return "", &ProviderError{Provider: s.Name(), Err: err}
	}
	return aws.ToString(out.MessageId), nil
}
