package client

import (
	"context"
	"net/http"

	"devfolio/internal/model"
)

// ListBlogs 公开的博客列表。
func (c *Client) ListBlogs(ctx context.Context, filters model.ListFilters) (*model.ListResponse[model.Blog], error) {
	var resp model.ListResponse[model.Blog]
	if err := c.do(ctx, http.MethodGet, "/blogs", "/blogs", filters.Query(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAdminBlogs 返回包含草稿在内的全部博客，仅管理员可用。
func (c *Client) ListAdminBlogs(ctx context.Context, filters model.ListFilters) (*model.ListResponse[model.Blog], error) {
	var resp model.ListResponse[model.Blog]
	if err := c.do(ctx, http.MethodGet, "/blogs/admin/all", "/blogs/admin/all", filters.Query(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetBlog(ctx context.Context, id string) (*model.Blog, error) {
	var env dataEnvelope[model.Blog]
	if err := c.do(ctx, http.MethodGet, "/blogs/:id", "/blogs/"+escape(id), nil, nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// GetBlogBySlug GET /blogs/slug/:slug.
func (c *Client) GetBlogBySlug(ctx context.Context, slug string) (*model.Blog, error) {
	var env dataEnvelope[model.Blog]
	if err := c.do(ctx, http.MethodGet, "/blogs/slug/:slug", "/blogs/slug/"+escape(slug), nil, nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) CreateBlog(ctx context.Context, blog model.BlogFormData) (*model.Blog, error) {
	var env dataEnvelope[model.Blog]
	if err := c.do(ctx, http.MethodPost, "/blogs", "/blogs", nil, blog, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) UpdateBlog(ctx context.Context, id string, blog model.BlogFormData) (*model.Blog, error) {
	var env dataEnvelope[model.Blog]
	if err := c.do(ctx, http.MethodPut, "/blogs/:id", "/blogs/"+escape(id), nil, blog, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) DeleteBlog(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/blogs/:id", "/blogs/"+escape(id), nil, nil, nil)
}
