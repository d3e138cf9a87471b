package web

import (
	"strings"

	"devfolio/internal/auth"
)

const (
	siteName           = "Portfolio Website"
	defaultDescription = "A personal portfolio website with blog, projects, and resume builder"
	defaultKeywords    = "portfolio, blog, projects, resume, developer"
	defaultImage       = "/static/og-image.jpg"
)

// Meta 页面的 <head> 元信息。
type Meta struct {
	Title       string
	Description string
	Keywords    string
	URL         string
	Image       string
	Type        string
	SiteName    string
	// Refresh 大于 0 时页面按秒自动刷新，用于认证初始化未完成的等待页。
	Refresh int
}

func newMeta(siteURL, title, description string) Meta {
	if title == "" {
		title = siteName
	}
	if description == "" {
		description = defaultDescription
	}
	return Meta{
		Title:       title,
		Description: description,
		Keywords:    defaultKeywords,
		Image:       absoluteURL(siteURL, defaultImage),
		URL:         strings.TrimRight(siteURL, "/"),
		Type:        "website",
		SiteName:    siteName,
	}
}

// WithPath sets the canonical URL for the page.
func (m Meta) WithPath(siteURL, p string) Meta {
	m.URL = absoluteURL(siteURL, p)
	return m
}

// WithImage 使用内容自带的分享图。
func (m Meta) WithImage(siteURL, image string) Meta {
	if image != "" {
		m.Image = absoluteURL(siteURL, image)
	}
	return m
}

func absoluteURL(siteURL, p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return strings.TrimRight(siteURL, "/") + p
}

// Page 是所有页面模板的根数据。
type Page struct {
	Meta  Meta
	Auth  auth.State
	Path  string
	Flash string
	Error string
	Data  any
}

// ErrorView 错误页数据。
type ErrorView struct {
	Status  int
	Heading string
	Message string
}
