package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"devfolio/internal/auth"
	"devfolio/internal/client"
	"devfolio/internal/metrics"
	"devfolio/internal/session"
)

const (
	sessionIDKey   = "sessionID"
	holderKey      = "authHolder"
	registryKey    = "authRegistry"
	authTimeoutKey = "authInitTimeout"
)

// SessionOptions 会话 cookie 与认证初始化参数。
type SessionOptions struct {
	Storage     session.Storage
	Registry    *auth.Registry
	TTL         time.Duration
	Domain      string
	Secure      bool
	InitTimeout time.Duration
}

// SessionMiddleware 读取或签发会话 cookie，把会话令牌存储挂到请求 context，
// 并取得该会话的认证状态持有者。新签发的会话没有令牌可恢复，
// 不创建 Holder，直到登录或注册时由 EnsureHolder 创建。
func SessionMiddleware(opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		fresh := false
		sid, err := c.Cookie(session.CookieName)
		if err != nil || !session.ValidID(sid) {
			fresh = true
			sid, err = session.NewID()
			if err != nil {
				LoggerFromContext(c).Error("generate session id failed", slog.Any("error", err))
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			SetSessionCookie(c, opts, sid)
		}

		tokens := session.NewTokenStore(opts.Storage, sid, opts.TTL)
		ctx := client.WithTokenStore(c.Request.Context(), tokens)
		c.Request = c.Request.WithContext(ctx)

		c.Set(sessionIDKey, sid)
		c.Set(registryKey, opts.Registry)
		c.Set(authTimeoutKey, opts.InitTimeout)
		if !fresh {
			c.Set(holderKey, opts.Registry.Get(ctx, sid))
			metrics.SetActiveSessions(opts.Registry.Len())
		}

		c.Next()
	}
}

// SetSessionCookie 写入会话 cookie。
func SetSessionCookie(c *gin.Context, opts SessionOptions, sid string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, sid, int(opts.TTL.Seconds()), "/", opts.Domain, opts.Secure, true)
}

// ClearSessionCookie expires the session cookie in the browser.
func ClearSessionCookie(c *gin.Context, opts SessionOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, "", -1, "/", opts.Domain, opts.Secure, true)
}

// SessionID 返回当前请求的会话 ID。
func SessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// Holder 返回当前会话的认证状态持有者，未经过 SessionMiddleware 时为 nil。
func Holder(c *gin.Context) *auth.Holder {
	if v, ok := c.Get(holderKey); ok {
		if h, ok := v.(*auth.Holder); ok {
			return h
		}
	}
	return nil
}

// EnsureHolder returns the session's holder, creating it on first use.
// Returns nil outside SessionMiddleware.
func EnsureHolder(c *gin.Context) *auth.Holder {
	if h := Holder(c); h != nil {
		return h
	}
	v, ok := c.Get(registryKey)
	if !ok {
		return nil
	}
	registry, ok := v.(*auth.Registry)
	if !ok {
		return nil
	}
	h := registry.Get(c.Request.Context(), SessionID(c))
	c.Set(holderKey, h)
	metrics.SetActiveSessions(registry.Len())
	return h
}

// AuthState 等待认证初始化（最多 InitTimeout），返回当前快照，超时后可能仍为 loading。
func AuthState(c *gin.Context) auth.State {
	h := Holder(c)
	if h == nil {
		return auth.State{Status: auth.StatusUnauthenticated}
	}
	timeout := c.GetDuration(authTimeoutKey)
	if timeout <= 0 {
		return h.State()
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()
	return h.Wait(ctx)
}

// InvalidateOnUnauthorized 返回 API 客户端的全局 401 回调：令牌已清除，
// 这里把对应会话的认证状态迁移为未登录。
func InvalidateOnUnauthorized(registry *auth.Registry) client.UnauthorizedFunc {
	return func(ctx context.Context) {
		store, ok := client.TokenStoreFromContext(ctx)
		if !ok {
			return
		}
		if s, ok := store.(interface{ SessionID() string }); ok {
			registry.Invalidate(s.SessionID(), client.ErrUnauthorized)
		}
	}
}
