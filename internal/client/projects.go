package client

import (
	"context"
	"net/http"

	"devfolio/internal/model"
)

// ListProjects 公开的项目列表，filters.Featured 可筛选精选项目。
func (c *Client) ListProjects(ctx context.Context, filters model.ListFilters) (*model.ListResponse[model.Project], error) {
	var resp model.ListResponse[model.Project]
	if err := c.do(ctx, http.MethodGet, "/projects", "/projects", filters.Query(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAdminProjects 管理员视角的项目列表。
func (c *Client) ListAdminProjects(ctx context.Context, filters model.ListFilters) (*model.ListResponse[model.Project], error) {
	var resp model.ListResponse[model.Project]
	if err := c.do(ctx, http.MethodGet, "/projects/admin/all", "/projects/admin/all", filters.Query(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var env dataEnvelope[model.Project]
	if err := c.do(ctx, http.MethodGet, "/projects/:id", "/projects/"+escape(id), nil, nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// GetProjectBySlug GET /projects/slug/:slug.
func (c *Client) GetProjectBySlug(ctx context.Context, slug string) (*model.Project, error) {
	var env dataEnvelope[model.Project]
	if err := c.do(ctx, http.MethodGet, "/projects/slug/:slug", "/projects/slug/"+escape(slug), nil, nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) CreateProject(ctx context.Context, project model.ProjectFormData) (*model.Project, error) {
	var env dataEnvelope[model.Project]
	if err := c.do(ctx, http.MethodPost, "/projects", "/projects", nil, project, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) UpdateProject(ctx context.Context, id string, project model.ProjectFormData) (*model.Project, error) {
	var env dataEnvelope[model.Project]
	if err := c.do(ctx, http.MethodPut, "/projects/:id", "/projects/"+escape(id), nil, project, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/:id", "/projects/"+escape(id), nil, nil, nil)
}
