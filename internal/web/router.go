package web

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"devfolio/internal/auth"
	"devfolio/internal/client"
	"devfolio/internal/config"
	"devfolio/internal/metrics"
	"devfolio/internal/preview"
	"devfolio/internal/session"
	"devfolio/internal/web/middleware"
)

// Options 组装 Web 层依赖。Exports 为 nil 时不注册异步导出路由，Redis 为 nil 时不限流且不提供 /ws。
type Options struct {
	Config   *config.Config
	Logger   *slog.Logger
	API      *client.Client
	Sessions session.Storage
	Registry *auth.Registry
	Preview  *preview.Renderer
	PDF      ResumePDF
	Exports  ExportService
	Redis    redis.UniversalClient
}

// NewBackend 创建 API 客户端与会话注册表。二者互相引用：
// Holder 通过客户端校验令牌，客户端的 401 回调再把会话迁移为未登录。
func NewBackend(cfg *config.Config, sessions session.Storage, logger *slog.Logger, opts ...client.Option) (*client.Client, *auth.Registry) {
	var api *client.Client
	registry := auth.NewRegistry(func(sid string) *auth.Holder {
		tokens := session.NewTokenStore(sessions, sid, cfg.Session.TTL)
		return auth.NewHolder(api, tokens, logger.With(slog.String("component", "auth")))
	}, cfg.Session.TTL)

	opts = append([]client.Option{
		client.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		client.WithUnauthorizedHook(middleware.InvalidateOnUnauthorized(registry)),
		client.WithObserver(metrics.ObserveBackend),
		client.WithLogger(logger),
	}, opts...)
	api = client.New(cfg.Backend.BaseURL, opts...)
	return api, registry
}

// NewRouter 构建 Gin 路由引擎。
func NewRouter(opts Options) (*gin.Engine, error) {
	templates, err := LoadTemplates(opts.Preview)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	router := gin.New()
	router.HTMLRender = templates
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(opts.Logger),
		metrics.GinMiddleware(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterRoutes(router, opts)
	return router, nil
}

// RegisterRoutes 注册页面路由。
func RegisterRoutes(router *gin.Engine, opts Options) {
	cfg := opts.Config
	v := &views{siteURL: cfg.Web.SiteURL}
	cache := newPublicCache(cfg.Web.PublicCacheTTL)

	sessionOpts := middleware.SessionOptions{
		Storage:     opts.Sessions,
		Registry:    opts.Registry,
		TTL:         cfg.Session.TTL,
		Domain:      cfg.Web.CookieDomain,
		Secure:      cfg.Web.CookieSecure,
		InitTimeout: cfg.Web.AuthInitTimeout,
	}

	var limiter redisRateCounter
	if opts.Redis != nil {
		limiter = opts.Redis
	}

	contentHandler := NewContentHandler(v, opts.API, cache, opts.Preview, cfg.Web.PageSize)
	authHandler := NewAuthHandler(v, opts.Registry, sessionOpts, limiter, cfg.Web.LoginRateLimitPerHour)
	resumeHandler := NewResumeHandler(v, opts.API, opts.Preview, opts.PDF, opts.Exports, opts.Sessions)
	dashboardHandler := NewDashboardHandler(v, opts.API, cache)
	requireAuth := middleware.RequireAuth(v.loading)
	requireAdmin := middleware.RequireAdmin(v.forbidden)

	router.NoRoute(middleware.SessionMiddleware(sessionOpts), v.notFound)

	site := router.Group("")
	site.Use(middleware.SessionMiddleware(sessionOpts))
	{
		site.GET("/", contentHandler.Home)
		site.GET("/about", contentHandler.About)
		site.GET("/blog", contentHandler.Blogs)
		site.GET("/blog/:slug", contentHandler.Blog)
		site.GET("/projects", contentHandler.Projects)
		site.GET("/projects/:slug", contentHandler.Project)

		site.GET("/login", authHandler.LoginForm)
		site.POST("/login", authHandler.Login)
		site.GET("/register", authHandler.RegisterForm)
		site.POST("/register", authHandler.Register)
		site.POST("/logout", authHandler.Logout)

		site.GET("/resumes", resumeHandler.List)

		resumeGroup := site.Group("/resumes")
		resumeGroup.Use(requireAuth)
		{
			resumeGroup.GET("/new", resumeHandler.New)
			resumeGroup.POST("", resumeHandler.Create)
			resumeGroup.GET("/:id/edit", resumeHandler.Edit)
			resumeGroup.POST("/:id", resumeHandler.Update)
			resumeGroup.GET("/:id/delete", resumeHandler.ConfirmDelete)
			resumeGroup.POST("/:id/delete", resumeHandler.Delete)
			resumeGroup.GET("/:id/preview", resumeHandler.Preview)
			resumeGroup.GET("/:id/pdf", resumeHandler.PDF)
		}

		if opts.Exports != nil {
			exportHandler := NewExportHandler(v, opts.API, opts.Exports)
			resumeGroup.POST("/:id/export", exportHandler.Request)
			site.GET("/exports/:id/link", requireAuth, exportHandler.Link)
		}
		if opts.Redis != nil {
			wsHandler := NewWsHandler(opts.Redis, opts.Logger, cfg.Web.AllowedOrigins)
			site.GET("/ws", wsHandler.HandleConnection)
		}

		dashboardGroup := site.Group("/dashboard")
		dashboardGroup.Use(requireAuth, requireAdmin)
		{
			dashboardGroup.GET("", dashboardHandler.Show)
			dashboardGroup.POST("/blogs/:id/delete", dashboardHandler.DeleteBlog)
			dashboardGroup.POST("/projects/:id/delete", dashboardHandler.DeleteProject)
		}
	}
}
