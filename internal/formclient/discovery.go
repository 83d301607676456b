package formclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// RemoteConfig 网关 /client-config 下发的设置
type RemoteConfig struct {
	ContactEndpoint string `json:"contactEndpoint"`
	FallbackEmail   string `json:"fallbackEmail"`
}

// FetchConfig 从网关读取客户端设置，client 为 nil 时使用默认客户端
func FetchConfig(ctx context.Context, client *http.Client, url string) (RemoteConfig, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return RemoteConfig{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return RemoteConfig{}, fmt.Errorf("fetch client config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RemoteConfig{}, fmt.Errorf("fetch client config: HTTP %d", resp.StatusCode)
	}

	var out RemoteConfig
	if err := json.NewDecoder(io.LimitReader(resp.Body, 16*1024)).Decode(&out); err != nil {
		return RemoteConfig{}, fmt.Errorf("decode client config: %w", err)
	}
	return out, nil
}

// Apply 用远端设置补全本地配置：只填写本地留空的字段
func (rc RemoteConfig) Apply(cfg Config) Config {
	if cfg.Endpoint == "" {
		cfg.Endpoint = rc.ContactEndpoint
	}
	if cfg.FallbackEmail == "" {
		cfg.FallbackEmail = rc.FallbackEmail
	}
	return cfg
}
