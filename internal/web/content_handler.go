package web

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"devfolio/internal/client"
	"devfolio/internal/model"
	"devfolio/internal/preview"
	"devfolio/internal/web/middleware"
)

const homeListLimit = 3

// ContentHandler 渲染公开页面：首页、关于、博客与项目。
type ContentHandler struct {
	*views
	api      *client.Client
	cache    *publicCache
	rich     *preview.Renderer
	pageSize int
}

// NewContentHandler 构造公开内容处理器。
func NewContentHandler(v *views, api *client.Client, cache *publicCache, rich *preview.Renderer, pageSize int) *ContentHandler {
	return &ContentHandler{views: v, api: api, cache: cache, rich: rich, pageSize: pageSize}
}

// HomeView 首页数据。
type HomeView struct {
	Projects []model.Project
	Blogs    []model.Blog
}

// ListView 博客/项目列表页数据。
type ListView[T any] struct {
	Items  []T
	Total  int
	Search string
	Pager  *Pager
}

// BlogView 博客详情页数据。
type BlogView struct {
	Blog    *model.Blog
	Content template.HTML
}

// ProjectView 项目详情页数据。
type ProjectView struct {
	Project *model.Project
	Content template.HTML
}

// Home 首页：精选项目与最新文章。后端不可用时仍渲染静态内容。
func (h *ContentHandler) Home(c *gin.Context) {
	ctx := publicContext(c)
	log := middleware.LoggerFromContext(c)
	featured := true

	var view HomeView
	projects, err := cached(h.cache, "home:projects", func() (*model.ListResponse[model.Project], error) {
		return h.api.ListProjects(ctx, model.ListFilters{Limit: homeListLimit, Featured: &featured})
	})
	if err != nil {
		log.Warn("load featured projects failed", slog.Any("error", err))
	} else {
		view.Projects = projects.Data
	}
	blogs, err := cached(h.cache, "home:blogs", func() (*model.ListResponse[model.Blog], error) {
		return h.api.ListBlogs(ctx, model.ListFilters{Limit: homeListLimit})
	})
	if err != nil {
		log.Warn("load latest blogs failed", slog.Any("error", err))
	} else {
		view.Blogs = blogs.Data
	}
	if ctx.Err() != nil {
		c.AbortWithStatus(statusClientClosed)
		return
	}

	h.render(c, http.StatusOK, "home", h.meta(siteName+" | Home",
		"Welcome to my personal portfolio website. Explore my projects, read my blog, and learn more about my experience."), view)
}

// About 关于页面。
func (h *ContentHandler) About(c *gin.Context) {
	h.render(c, http.StatusOK, "about", h.meta("About Me | "+siteName,
		"Learn about my background, skills, and experience as a developer."), nil)
}

// Blogs 博客列表，支持 ?page= 与 ?search=。
func (h *ContentHandler) Blogs(c *gin.Context) {
	filters := h.filters(c)
	resp, err := cached(h.cache, listKey("blogs", filters), func() (*model.ListResponse[model.Blog], error) {
		return h.api.ListBlogs(publicContext(c), filters)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "blog_list", h.meta("Blog | "+siteName,
		"Read my thoughts on web development, technology, and more."), listView(c, resp, filters))
}

// Blog 博客详情。
func (h *ContentHandler) Blog(c *gin.Context) {
	slug := c.Param("slug")
	blog, err := cached(h.cache, "blog:"+slug, func() (*model.Blog, error) {
		return h.api.GetBlogBySlug(publicContext(c), slug)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	meta := h.seoMeta(blog.SEO, blog.Title, blog.Excerpt)
	meta.Type = "article"
	h.render(c, http.StatusOK, "blog_detail", meta, BlogView{Blog: blog, Content: h.rich.RichText(blog.Content)})
}

// Projects 项目列表。
func (h *ContentHandler) Projects(c *gin.Context) {
	filters := h.filters(c)
	resp, err := cached(h.cache, listKey("projects", filters), func() (*model.ListResponse[model.Project], error) {
		return h.api.ListProjects(publicContext(c), filters)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "project_list", h.meta("Projects | "+siteName,
		"Explore my latest projects and see what I've been working on."), listView(c, resp, filters))
}

// Project 项目详情。
func (h *ContentHandler) Project(c *gin.Context) {
	slug := c.Param("slug")
	project, err := cached(h.cache, "project:"+slug, func() (*model.Project, error) {
		return h.api.GetProjectBySlug(publicContext(c), slug)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	meta := h.seoMeta(project.SEO, project.Title, project.Description).WithImage(h.siteURL, project.ImageURL)
	h.render(c, http.StatusOK, "project_detail", meta, ProjectView{Project: project, Content: h.rich.RichText(project.Content)})
}

// publicContext 剥离访客令牌：公开内容的缓存在会话间共享，
// 加载时不能带上任何人的 Authorization，也不能因 401 使访客登出。
func publicContext(c *gin.Context) context.Context {
	return client.WithTokenStore(c.Request.Context(), client.NoToken{})
}

func (h *ContentHandler) filters(c *gin.Context) model.ListFilters {
	return model.ListFilters{
		Page:   parsePage(c.Query("page")),
		Limit:  h.pageSize,
		Search: strings.TrimSpace(c.Query("search")),
	}
}

func (h *ContentHandler) seoMeta(seo model.SEO, title, description string) Meta {
	if seo.MetaTitle != "" {
		title = seo.MetaTitle
	}
	if seo.MetaDesc != "" {
		description = seo.MetaDesc
	}
	return h.meta(title+" | "+siteName, description).WithImage(h.siteURL, seo.MetaImage)
}

func listKey(kind string, f model.ListFilters) string {
	return fmt.Sprintf("%s:%d:%d:%s", kind, f.Page, f.Limit, f.Search)
}

func listView[T any](c *gin.Context, resp *model.ListResponse[T], f model.ListFilters) ListView[T] {
	return ListView[T]{
		Items:  resp.Data,
		Total:  resp.Pagination.Total,
		Search: f.Search,
		Pager:  NewPager(c.Request.URL.Path, c.Request.URL.Query(), f.Page, resp.Pagination.TotalPages),
	}
}
