package httptransport

import (
	"net/http"
	"strings"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"traguardo/backend/internal/config"
	"traguardo/backend/internal/health"
	"traguardo/backend/internal/middleware"
	"traguardo/backend/internal/monitoring"
	"traguardo/backend/internal/service"
)

// ContactPath 联系表单网关路径
const ContactPath = "/api/contact"

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	ContactService *service.ContactService
	Metrics        *monitoring.Metrics
	Health         *health.HealthChecker
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()
	// 只有精确路径命中网关，"/api/contact/" 返回 404 而不是重定向
	router.RedirectTrailingSlash = false

	router.Use(middleware.RequestID())
	router.Use(middleware.RecoveryHandler(deps.Logger, deps.Metrics))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	if deps.Metrics != nil {
		router.Use(middleware.HTTPMetrics(deps.Metrics))
	}

	origins := middleware.NewOriginPolicy(deps.Config.CORS.AllowedOrigins)
	contactHandler := NewContactHandler(deps.ContactService, origins, deps.Config.Server.BodyLimit)
	clientConfigHandler := NewClientConfigHandler(deps.Config)

	// 联系表单网关：根路径与 /api/contact 等价，所有方法进入同一个处理器
	contact := router.Group("", origins.Headers())
	{
		contact.Any(ContactPath, contactHandler.Handle)
		contact.Any("/", contactHandler.Handle)
	}

	// 客户端配置：只读、公开
	clientConfig := router.Group("/client-config", gincors.New(clientConfigCORS(deps.Config.CORS.AllowedOrigins)))
	{
		clientConfig.GET("", clientConfigHandler.Get)
		clientConfig.OPTIONS("", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}

	// 运维端点
	if deps.Health != nil {
		router.GET("/health/live", gin.WrapF(deps.Health.LiveEndpoint))
		router.GET("/health/ready", gin.WrapF(deps.Health.ReadyEndpoint))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	// 未知路径同样携带联系接口的 CORS 头。
	// Any 只注册标准方法，PROPFIND 等方法落到这里，仍交给网关回应 405。
	router.NoRoute(origins.Headers(), func(c *gin.Context) {
		if isContactPath(c.Request.URL.Path) {
			contactHandler.Handle(c)
			return
		}
		NotFound(c)
	})

	return router
}

func isContactPath(path string) bool {
	return path == ContactPath || path == "/"
}

// clientConfigCORS 构造 /client-config 的 CORS 配置
//
// 白名单为空或含 "*" 时允许所有来源；gin-contrib/cors 只接受带 http(s) 协议的来源。
func clientConfigCORS(allowed []string) gincors.Config {
	cfg := gincors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       24 * time.Hour,
	}

	for _, origin := range allowed {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
		if strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://") {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cfg
}
