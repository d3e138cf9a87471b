package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"devfolio/internal/auth"
	"devfolio/internal/client"
	"devfolio/internal/model"
	"devfolio/internal/validation"
	"devfolio/internal/web/middleware"
)

const authRateWindow = time.Hour

// AuthHandler 处理登录、注册与退出。
type AuthHandler struct {
	*views
	registry    *auth.Registry
	sessionOpts middleware.SessionOptions
	limiter     redisRateCounter
	limit       int
}

// NewAuthHandler 构造认证处理器。limiter 为 nil 或 limit<=0 时不限流。
func NewAuthHandler(v *views, registry *auth.Registry, sessionOpts middleware.SessionOptions, limiter redisRateCounter, limit int) *AuthHandler {
	return &AuthHandler{views: v, registry: registry, sessionOpts: sessionOpts, limiter: limiter, limit: limit}
}

// AuthFormView 登录/注册表单数据，密码不会回填。
type AuthFormView struct {
	Email    string
	Username string
	Next     string
	Errors   validation.FieldErrors
	Message  string
}

// LoginForm GET /login，已登录时直接跳转。
func (h *AuthHandler) LoginForm(c *gin.Context) {
	if middleware.AuthState(c).IsAuthenticated() {
		c.Redirect(http.StatusSeeOther, safeNext(c.Query("next")))
		return
	}
	h.render(c, http.StatusOK, "login", h.meta("Sign In | "+siteName, ""), AuthFormView{Next: c.Query("next")})
}

// Login POST /login。
func (h *AuthHandler) Login(c *gin.Context) {
	creds := model.LoginCredentials{
		Email:    strings.TrimSpace(c.PostForm("email")),
		Password: c.PostForm("password"),
	}
	view := AuthFormView{Email: creds.Email, Next: c.PostForm("next")}
	if !h.allow(c) {
		view.Message = "Too many attempts. Please try again later."
		h.render(c, http.StatusTooManyRequests, "login", h.meta("Sign In | "+siteName, ""), view)
		return
	}

	err := middleware.EnsureHolder(c).Login(c.Request.Context(), creds)
	if err != nil {
		h.authFailed(c, "login", view, err)
		return
	}
	c.Redirect(http.StatusSeeOther, safeNext(view.Next))
}

// RegisterForm GET /register。
func (h *AuthHandler) RegisterForm(c *gin.Context) {
	if middleware.AuthState(c).IsAuthenticated() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	h.render(c, http.StatusOK, "register", h.meta("Create Account | "+siteName, ""), AuthFormView{})
}

// Register POST /register。
func (h *AuthHandler) Register(c *gin.Context) {
	creds := model.RegisterCredentials{
		Email:    strings.TrimSpace(c.PostForm("email")),
		Username: strings.TrimSpace(c.PostForm("username")),
		Password: c.PostForm("password"),
	}
	view := AuthFormView{Email: creds.Email, Username: creds.Username}
	if !h.allow(c) {
		view.Message = "Too many attempts. Please try again later."
		h.render(c, http.StatusTooManyRequests, "register", h.meta("Create Account | "+siteName, ""), view)
		return
	}

	if err := middleware.EnsureHolder(c).Register(c.Request.Context(), creds); err != nil {
		h.authFailed(c, "register", view, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/resumes")
}

// Logout POST /logout：清除令牌与会话，不访问后端。
func (h *AuthHandler) Logout(c *gin.Context) {
	if holder := middleware.Holder(c); holder != nil {
		if err := holder.Logout(c.Request.Context()); err != nil {
			middleware.LoggerFromContext(c).Warn("logout cleanup failed", slog.Any("error", err))
		}
	}
	h.registry.Drop(middleware.SessionID(c))
	middleware.ClearSessionCookie(c, h.sessionOpts)
	c.Redirect(http.StatusSeeOther, "/?notice=logged-out")
}

func (h *AuthHandler) authFailed(c *gin.Context, page string, view AuthFormView, err error) {
	status := http.StatusUnauthorized
	if fields := validation.AsFieldErrors(err); fields != nil {
		view.Errors = fields
		status = http.StatusUnprocessableEntity
	} else {
		switch code := client.StatusOf(err); {
		case code == http.StatusUnauthorized || code == http.StatusBadRequest || code == http.StatusConflict:
			view.Message = client.MessageOf(err)
			if view.Message == "" {
				view.Message = "Invalid email or password."
			}
			status = code
		case c.Request.Context().Err() != nil && errors.Is(err, context.Canceled):
			c.AbortWithStatus(statusClientClosed)
			return
		default:
			middleware.LoggerFromContext(c).Error(page+" failed", slog.Any("error", err))
			view.Message = "Something went wrong. Please try again."
			status = http.StatusBadGateway
		}
	}

	title := "Sign In | " + siteName
	if page == "register" {
		title = "Create Account | " + siteName
	}
	h.render(c, status, page, h.meta(title, ""), view)
}

// allow 按客户端 IP 计数登录/注册尝试，Redis 不可用时放行。
func (h *AuthHandler) allow(c *gin.Context) bool {
	if h.limiter == nil || h.limit <= 0 {
		return true
	}
	count, err := incrWithTTL(c.Request.Context(), h.limiter, loginRateKey(c.ClientIP()), authRateWindow)
	if err != nil {
		middleware.LoggerFromContext(c).Warn("auth rate limit unavailable", slog.Any("error", err))
		return true
	}
	return count <= int64(h.limit)
}
