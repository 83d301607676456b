package formclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"traguardo/backend/internal/domain"
)

// DefaultHoneypotDelay 蜜罐命中时模拟提交的耗时
const DefaultHoneypotDelay = 900 * time.Millisecond

// ErrSubmissionInFlight 已有提交正在进行
var ErrSubmissionInFlight = errors.New("submission already in flight")

// ErrInvalidForm 表单未通过本地校验
var ErrInvalidForm = errors.New("form is invalid")

// Form 用户填写的表单
type Form struct {
	Name    string
	Email   string
	Message string
	Website string // 蜜罐字段
}

// Config 客户端配置
type Config struct {
	Endpoint      string // 提交地址，留空时不发起网络请求
	FallbackEmail string
	HoneypotDelay time.Duration
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// Outcome 一次提交在界面上的结果
type Outcome struct {
	State   State
	Message string
	Effects []Effect
	Err     error
}

// Client 表单客户端，同一实例同时只允许一个提交
type Client struct {
	cfg Config

	mu    sync.Mutex
	state State
}

type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

type submitResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// New 创建表单客户端
func New(cfg Config) *Client {
	if cfg.FallbackEmail == "" {
		cfg.FallbackEmail = DefaultFallbackEmail
	}
	if cfg.HoneypotDelay <= 0 {
		cfg.HoneypotDelay = DefaultHoneypotDelay
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{cfg: cfg, state: StateIdle}
}

// State 返回当前状态
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit 提交表单并返回最终结果
//
// 蜜罐命中时不发起网络请求，延迟后报告成功。
// 正在提交时的重复调用立即返回 ErrSubmissionInFlight。
func (c *Client) Submit(ctx context.Context, form Form) Outcome {
	form = Form{
		Name:    domain.TrimSpace(form.Name),
		Email:   domain.TrimSpace(form.Email),
		Message: domain.TrimSpace(form.Message),
		Website: form.Website,
	}

	honeypot := form.Website != ""
	effect := c.transition(Submit{
		Honeypot:           honeypot,
		Valid:              validForm(form),
		EndpointConfigured: c.cfg.Endpoint != "",
	})

	switch effect {
	case EffectIgnore:
		return Outcome{State: StateSubmitting, Message: MsgLoading, Effects: []Effect{effect}, Err: ErrSubmissionInFlight}
	case EffectReportValidity:
		return Outcome{State: c.State(), Effects: []Effect{effect}, Err: ErrInvalidForm}
	case EffectShowInfo:
		return Outcome{State: StateInfo, Message: infoMessage(c.cfg.FallbackEmail), Effects: []Effect{effect}}
	case EffectSimulateSuccess:
		c.cfg.Logger.Debug("honeypot filled, simulating success")
		select {
		case <-time.After(c.cfg.HoneypotDelay):
		case <-ctx.Done():
		}
		next := c.transition(DelayElapsed{})
		return Outcome{State: StateSuccess, Message: MsgHoneypotSuccess, Effects: []Effect{effect, next}}
	}

	err := c.send(ctx, form)
	next := c.transition(Resolved{OK: err == nil})
	if err != nil {
		c.cfg.Logger.Warn("contact submission failed", zap.String("endpoint", c.cfg.Endpoint), zap.Error(err))
		return Outcome{State: StateError, Message: errorMessage(c.cfg.FallbackEmail), Effects: []Effect{effect, next}, Err: err}
	}
	return Outcome{State: StateSuccess, Message: MsgSuccess, Effects: []Effect{effect, next}}
}

// LoadingMessage 返回 submitting 状态下展示的文案
func LoadingMessage(honeypot bool) string {
	if honeypot {
		return MsgHoneypotLoading
	}
	return MsgLoading
}

func (c *Client) transition(ev Event) Effect {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, effect := Reduce(c.state, ev)
	c.state = next
	return effect
}

func (c *Client) send(ctx context.Context, form Form) error {
	payload, err := json.Marshal(submitRequest{Name: form.Name, Email: form.Email, Message: form.Message})
	if err != nil {
		return fmt.Errorf("marshal form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send form: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var out submitResponse
		if json.Unmarshal(body, &out) == nil && out.Error != "" {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, out.Error)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

// validForm 对应浏览器原生校验：必填字段非空，邮箱符合 type=email 的形式
func validForm(form Form) bool {
	if form.Name == "" || form.Email == "" || form.Message == "" {
		return false
	}
	return domain.ValidContactEmail(form.Email)
}
