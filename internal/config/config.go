package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 支持的上游邮件服务
const (
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
	ProviderSES    = "ses"
)

// DefaultResendEndpoint Resend 官方发信接口
const DefaultResendEndpoint = "https://api.resend.com/emails"

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host      string // 监听地址，默认 "0.0.0.0"
	Port      int    // 监听端口，默认 8080
	BodyLimit int64  // 请求体最大字节数，默认 64KB
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源，空列表表示不下发允许头
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空只输出到标准输出
}

// ContactConfig 定义联系表单投递的业务配置
type ContactConfig struct {
	Provider       string        // 上游邮件服务: resend, smtp, ses
	FromEmail      string        // 已验证的发件地址
	ToEmail        string        // 收件地址
	SubjectPrefix  string        // 邮件主题前缀
	SendTimeout    time.Duration // 上游调用超时
	FallbackEmail  string        // 前端出错时展示的备用联系邮箱
	PublicEndpoint string        // 前端提交地址，经 /client-config 下发；留空时前端不发起网络请求
}

// ResendConfig Resend HTTP API 配置
type ResendConfig struct {
	APIKey   string
	Endpoint string
}

// SMTPConfig SMTP 中继配置
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	StartTLS bool // 要求 STARTTLS 升级，服务器不支持时投递失败
}

// SESConfig AWS SES v2 配置
type SESConfig struct {
	Region          string
	AccessKeyID     string // 留空时使用默认凭证链
	SecretAccessKey string
}

// Config 是系统核心配置的根结构体，进程启动时构建一次，之后只读
type Config struct {
	Server  ServerConfig
	CORS    CORSConfig
	Log     LogConfig
	Contact ContactConfig
	Resend  ResendConfig
	SMTP    SMTPConfig
	SES     SESConfig
}

// 环境变量绑定：保留原部署使用的变量名，同时支持 TRAGUARDO_ 前缀
var envBindings = map[string][]string{
	"server.host":             {"TRAGUARDO_SERVER_HOST"},
	"server.port":             {"TRAGUARDO_SERVER_PORT", "PORT"},
	"server.body_limit":       {"TRAGUARDO_SERVER_BODY_LIMIT"},
	"log.level":               {"TRAGUARDO_LOG_LEVEL"},
	"log.development":         {"TRAGUARDO_LOG_DEVELOPMENT"},
	"log.file":                {"TRAGUARDO_LOG_FILE"},
	"cors.allowed_origins":    {"ALLOWED_ORIGINS", "TRAGUARDO_CORS_ALLOWED_ORIGINS"},
	"contact.provider":        {"CONTACT_PROVIDER"},
	"contact.from_email":      {"CONTACT_FROM_EMAIL"},
	"contact.to_email":        {"CONTACT_TO_EMAIL"},
	"contact.subject_prefix":  {"CONTACT_SUBJECT_PREFIX"},
	"contact.send_timeout":    {"CONTACT_SEND_TIMEOUT"},
	"contact.fallback_email":  {"CONTACT_FALLBACK_EMAIL"},
	"contact.public_endpoint": {"CONTACT_PUBLIC_ENDPOINT"},
	"resend.api_key":          {"RESEND_API_KEY"},
	"resend.endpoint":         {"RESEND_API_URL"},
	"smtp.host":               {"SMTP_HOST"},
	"smtp.port":               {"SMTP_PORT"},
	"smtp.username":           {"SMTP_USERNAME"},
	"smtp.password":           {"SMTP_PASSWORD"},
	"smtp.starttls":           {"SMTP_STARTTLS"},
	"ses.region":              {"SES_REGION"},
	"ses.access_key_id":       {"SES_ACCESS_KEY_ID"},
	"ses.secret_access_key":   {"SES_SECRET_ACCESS_KEY"},
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 缺少密钥（API Key、发件/收件地址）不会导致加载失败：
// 网关仍然启动，并在请求时返回 500，见 Config.MissingSettings。
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，因为 .env 文件是可选的）
	loadEnvFile()

	v := viper.New()
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.body_limit", 64*1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("cors.allowed_origins", "")
	v.SetDefault("contact.provider", ProviderResend)
	v.SetDefault("contact.subject_prefix", "Traguardo")
	v.SetDefault("contact.send_timeout", "10s")
	v.SetDefault("contact.fallback_email", "contact@traguardo.fr")
	v.SetDefault("resend.endpoint", DefaultResendEndpoint)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.starttls", true)
	v.SetDefault("ses.region", "eu-west-3")

	sendTimeout, err := time.ParseDuration(v.GetString("contact.send_timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid contact.send_timeout: %w", err)
	}
	if sendTimeout <= 0 {
		return nil, fmt.Errorf("contact.send_timeout must be positive")
	}

	provider := strings.ToLower(strings.TrimSpace(v.GetString("contact.provider")))
	switch provider {
	case ProviderResend, ProviderSMTP, ProviderSES:
	default:
		return nil, fmt.Errorf("unknown contact.provider %q", provider)
	}

	bodyLimit := v.GetInt64("server.body_limit")
	if bodyLimit <= 0 {
		bodyLimit = 64 * 1024
	}

	subjectPrefix := strings.TrimSpace(v.GetString("contact.subject_prefix"))
	if subjectPrefix == "" {
		subjectPrefix = "Traguardo"
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:      v.GetString("server.host"),
			Port:      v.GetInt("server.port"),
			BodyLimit: bodyLimit,
		},
		CORS: CORSConfig{
			AllowedOrigins: parseList(v.GetString("cors.allowed_origins")),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
			File:        v.GetString("log.file"),
		},
		Contact: ContactConfig{
			Provider:       provider,
			FromEmail:      strings.TrimSpace(v.GetString("contact.from_email")),
			ToEmail:        strings.TrimSpace(v.GetString("contact.to_email")),
			SubjectPrefix:  subjectPrefix,
			SendTimeout:    sendTimeout,
			FallbackEmail:  strings.TrimSpace(v.GetString("contact.fallback_email")),
			PublicEndpoint: strings.TrimSpace(v.GetString("contact.public_endpoint")),
		},
		Resend: ResendConfig{
			APIKey:   strings.TrimSpace(v.GetString("resend.api_key")),
			Endpoint: v.GetString("resend.endpoint"),
		},
		SMTP: SMTPConfig{
			Host:     strings.TrimSpace(v.GetString("smtp.host")),
			Port:     v.GetInt("smtp.port"),
			Username: v.GetString("smtp.username"),
			Password: v.GetString("smtp.password"),
			StartTLS: v.GetBool("smtp.starttls"),
		},
		SES: SESConfig{
			Region:          strings.TrimSpace(v.GetString("ses.region")),
			AccessKeyID:     v.GetString("ses.access_key_id"),
			SecretAccessKey: v.GetString("ses.secret_access_key"),
		},
	}

	return cfg, nil
}

// Addr 返回 HTTP 监听地址
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MissingSettings 列出当前上游服务缺少的必需配置（环境变量名）
//
// 返回空切片表示配置完整。发件和收件地址对所有上游都是必需的，
// 绝不能退化为向空地址发送。
func (c *Config) MissingSettings() []string {
	var missing []string
	switch c.Contact.Provider {
	case ProviderResend:
		if c.Resend.APIKey == "" {
			missing = append(missing, "RESEND_API_KEY")
		}
	case ProviderSMTP:
		if c.SMTP.Host == "" {
			missing = append(missing, "SMTP_HOST")
		}
	case ProviderSES:
		if c.SES.Region == "" {
			missing = append(missing, "SES_REGION")
		}
	}
	if c.Contact.FromEmail == "" {
		missing = append(missing, "CONTACT_FROM_EMAIL")
	}
	if c.Contact.ToEmail == "" {
		missing = append(missing, "CONTACT_TO_EMAIL")
	}
	return missing
}

// Configured 报告投递所需的配置是否完整
func (c *Config) Configured() bool {
	return len(c.MissingSettings()) == 0
}

// parseList 将逗号分隔的字符串解析为字符串切片
//
// 参数:
//   - value: 逗号分隔的字符串，如 "https://a.example, https://b.example"
//
// 返回值:
//   - []string: 解析后的字符串切片，已去除空白字符和空项
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 加载顺序：
//  1. 当前目录的 .env
//  2. 父目录的 .env
//
// 已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
