package model

import "time"

// Author 是博客与项目上的作者回引用。
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

// SEO 可选的页面元信息。
type SEO struct {
	MetaTitle string `json:"metaTitle,omitempty"`
	MetaDesc  string `json:"metaDesc,omitempty"`
	MetaImage string `json:"metaImage,omitempty"`
}

// Blog 博客文章。
type Blog struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Featured  bool      `json:"featured"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Author    Author    `json:"author"`
	SEO
}

// BlogFormData 创建/更新博客的请求体。
type BlogFormData struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Content   string `json:"content"`
	Excerpt   string `json:"excerpt,omitempty"`
	Featured  bool   `json:"featured"`
	Published bool   `json:"published"`
	SEO
}

// Project 项目展示。
type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	ProjectURL  string    `json:"projectUrl,omitempty"`
	LiveURL     string    `json:"liveUrl,omitempty"`
	Featured    bool      `json:"featured"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Author      Author    `json:"author"`
	SEO
}

// ProjectFormData 创建/更新项目的请求体。
type ProjectFormData struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Content     string `json:"content"`
	ImageURL    string `json:"imageUrl,omitempty"`
	ProjectURL  string `json:"projectUrl,omitempty"`
	LiveURL     string `json:"liveUrl,omitempty"`
	Featured    bool   `json:"featured"`
	Published   bool   `json:"published"`
	SEO
}

// DashboardStats 管理后台统计数据。
type DashboardStats struct {
	TotalBlogs        int `json:"totalBlogs"`
	PublishedBlogs    int `json:"publishedBlogs"`
	TotalProjects     int `json:"totalProjects"`
	PublishedProjects int `json:"publishedProjects"`
	TotalResumes      int `json:"totalResumes"`
	TotalUsers        int `json:"totalUsers"`
}
