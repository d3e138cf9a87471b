package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"devfolio/internal/client"
	"devfolio/internal/web/middleware"
)

// statusClientClosed 浏览器已放弃请求，不再写响应。
const statusClientClosed = 499

// notices 重定向后通过 ?notice= 显示的提示，只接受已知代码。
var notices = map[string]string{
	"saved":          "Resume saved.",
	"deleted":        "Resume deleted.",
	"export-queued":  "Your PDF export has started. The download link will appear when it is ready.",
	"logged-out":     "You have been signed out.",
	"content-delete": "Content deleted.",
}

// views 负责把页面数据交给模板渲染，以及统一的错误响应。
type views struct {
	siteURL string
}

func (v *views) meta(title, description string) Meta {
	return newMeta(v.siteURL, title, description)
}

func (v *views) render(c *gin.Context, status int, name string, meta Meta, data any) {
	if meta.URL == "" || meta.URL == strings.TrimRight(v.siteURL, "/") {
		meta = meta.WithPath(v.siteURL, c.Request.URL.Path)
	}
	c.HTML(status, name, &Page{
		Meta:  meta,
		Auth:  middleware.AuthState(c),
		Path:  c.Request.URL.Path,
		Flash: notices[c.Query("notice")],
		Data:  data,
	})
}

func (v *views) renderError(c *gin.Context, status int, heading, message string) {
	v.render(c, status, "error", v.meta(heading+" | "+siteName, ""), ErrorView{
		Status:  status,
		Heading: heading,
		Message: message,
	})
}

// loading 认证初始化尚未完成时的等待页，浏览器会自动刷新。
func (v *views) loading(c *gin.Context) {
	meta := v.meta("Loading | "+siteName, "")
	meta.Refresh = 2
	v.render(c, http.StatusServiceUnavailable, "loading", meta, nil)
}

func (v *views) forbidden(c *gin.Context) {
	v.renderError(c, http.StatusForbidden, "Access denied", "You do not have permission to view this page.")
}

func (v *views) notFound(c *gin.Context) {
	v.renderError(c, http.StatusNotFound, "Page not found", "The page you are looking for does not exist.")
}

// fail 把后端错误映射为页面响应：401 跳转登录，请求已取消时丢弃结果。
func (v *views) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, context.Canceled) && c.Request.Context().Err() != nil:
		c.AbortWithStatus(statusClientClosed)
	case errors.Is(err, client.ErrUnauthorized):
		next := ""
		if c.Request.Method == http.MethodGet {
			next = c.Request.URL.RequestURI()
		}
		c.Redirect(http.StatusSeeOther, middleware.LoginRedirect(next))
		c.Abort()
	case errors.Is(err, client.ErrNotFound):
		v.notFound(c)
	case errors.Is(err, client.ErrForbidden):
		v.forbidden(c)
	default:
		middleware.LoggerFromContext(c).Error("backend request failed", slog.Any("error", err))
		_ = c.Error(err)
		v.renderError(c, http.StatusBadGateway, "Something went wrong", "We could not reach the server. Please try again.")
	}
}

// wantsJSON 页面脚本通过 Accept 头请求 JSON 响应。
func wantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

// safeNext 只允许站内相对路径作为登录后的回跳地址。
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
