package health

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"
)

const dnsTimeout = 2 * time.Second

// Settings 报告投递配置缺少哪些项，空切片表示完整
type Settings interface {
	MissingSettings() []string
}

// HealthChecker 健康检查器
//
// 存活检查只确认进程可以响应；就绪检查要求投递配置完整。
type HealthChecker struct {
	health   healthcheck.Handler
	settings Settings
	logger   *zap.Logger
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(settings Settings, logger *zap.Logger, extra ...Check) *HealthChecker {
	hc := &HealthChecker{
		health:   healthcheck.NewHandler(),
		settings: settings,
		logger:   logger,
	}

	hc.health.AddLivenessCheck("process", func() error { return nil })
	hc.health.AddReadinessCheck("contact-config", hc.configCheck)
	for _, c := range extra {
		hc.health.AddReadinessCheck(c.Name, c.Check)
	}

	return hc
}

// Check 额外的就绪检查，例如上游主机的 DNS 解析
type Check struct {
	Name  string
	Check healthcheck.Check
}

// DNSCheck 确认上游主机名可以解析
func DNSCheck(host string) Check {
	return Check{
		Name:  "dns-" + host,
		Check: healthcheck.DNSResolveCheck(host, dnsTimeout),
	}
}

func (hc *HealthChecker) configCheck() error {
	missing := hc.settings.MissingSettings()
	if len(missing) == 0 {
		return nil
	}
	hc.logger.Warn("readiness check failed: contact delivery not configured",
		zap.Strings("missing", missing),
	)
	return fmt.Errorf("missing settings: %s", strings.Join(missing, ", "))
}

// LiveEndpoint 存活检查
func (hc *HealthChecker) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.LiveEndpoint(w, r)
}

// ReadyEndpoint 就绪检查
func (hc *HealthChecker) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.ReadyEndpoint(w, r)
}
