package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"devfolio/internal/client"
	"devfolio/internal/model"
)

const dashboardListLimit = 10

// DashboardHandler 管理后台：统计与内容列表，仅 ADMIN 可访问。
type DashboardHandler struct {
	*views
	api   *client.Client
	cache *publicCache
}

// NewDashboardHandler 构造后台处理器。
func NewDashboardHandler(v *views, api *client.Client, cache *publicCache) *DashboardHandler {
	return &DashboardHandler{views: v, api: api, cache: cache}
}

// DashboardView 后台首页数据。
type DashboardView struct {
	Stats    *model.DashboardStats
	Blogs    []model.Blog
	Projects []model.Project
}

// Show GET /dashboard。三个请求并发发出，任一失败即整体失败。
func (h *DashboardHandler) Show(c *gin.Context) {
	var view DashboardView
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		stats, err := h.api.DashboardStats(ctx)
		view.Stats = stats
		return err
	})
	g.Go(func() error {
		blogs, err := h.api.ListAdminBlogs(ctx, model.ListFilters{Limit: dashboardListLimit})
		if err == nil {
			view.Blogs = blogs.Data
		}
		return err
	})
	g.Go(func() error {
		projects, err := h.api.ListAdminProjects(ctx, model.ListFilters{Limit: dashboardListLimit})
		if err == nil {
			view.Projects = projects.Data
		}
		return err
	})
	if err := g.Wait(); err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "dashboard", h.meta("Dashboard | "+siteName, ""), view)
}

// DeleteBlog POST /dashboard/blogs/:id/delete。
func (h *DashboardHandler) DeleteBlog(c *gin.Context) {
	h.delete(c, h.api.DeleteBlog)
}

// DeleteProject POST /dashboard/projects/:id/delete。
func (h *DashboardHandler) DeleteProject(c *gin.Context) {
	h.delete(c, h.api.DeleteProject)
}

func (h *DashboardHandler) delete(c *gin.Context, del func(ctx context.Context, id string) error) {
	if c.PostForm("confirm") != "yes" {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	if err := del(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	h.cache.Flush()
	c.Redirect(http.StatusSeeOther, "/dashboard?notice=content-delete")
}
