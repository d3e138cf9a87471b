package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"devfolio/internal/auth"
)

const stateKey = "authState"

// LoginPath 未登录时跳转的入口。
const LoginPath = "/login"

// LoginRedirect 构造带回跳地址的登录链接。
func LoginRedirect(next string) string {
	if next == "" || strings.HasPrefix(next, LoginPath) {
		return LoginPath
	}
	return LoginPath + "?next=" + url.QueryEscape(next)
}

// RequireAuth 要求会话已登录。认证仍在初始化时交给 onLoading 渲染等待页，
// 未登录时跳转登录页（GET 请求带上回跳地址）。
func RequireAuth(onLoading gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := AuthState(c)
		switch {
		case state.IsLoading():
			onLoading(c)
			c.Abort()
			return
		case !state.IsAuthenticated():
			next := ""
			if c.Request.Method == http.MethodGet {
				next = c.Request.URL.RequestURI()
			}
			c.Redirect(http.StatusSeeOther, LoginRedirect(next))
			c.Abort()
			return
		}
		c.Set(stateKey, state)
		c.Next()
	}
}

// RequireAdmin 在 RequireAuth 之后使用，仅允许 ADMIN 角色。
func RequireAdmin(onForbidden gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentState(c).User.IsAdmin() {
			onForbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentState 返回 RequireAuth 确认过的认证状态。
func CurrentState(c *gin.Context) auth.State {
	if v, ok := c.Get(stateKey); ok {
		if s, ok := v.(auth.State); ok {
			return s
		}
	}
	return auth.State{Status: auth.StatusUnauthenticated}
}
