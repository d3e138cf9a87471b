package client

import (
	"context"
	"net/http"

	"devfolio/internal/model"
)

// ListResumes 返回当前用户的全部简历。
func (c *Client) ListResumes(ctx context.Context) ([]model.Resume, error) {
	var env dataEnvelope[[]model.Resume]
	if err := c.do(ctx, http.MethodGet, "/resumes", "/resumes", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetResume GET /resumes/:id.
func (c *Client) GetResume(ctx context.Context, id string) (*model.Resume, error) {
	var env dataEnvelope[model.Resume]
	if err := c.do(ctx, http.MethodGet, "/resumes/:id", "/resumes/"+escape(id), nil, nil, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// CreateResume POST /resumes.
func (c *Client) CreateResume(ctx context.Context, title string, data model.ResumeData) (*model.Resume, error) {
	var env dataEnvelope[model.Resume]
	body := model.ResumeInput{Title: title, Data: data}
	if err := c.do(ctx, http.MethodPost, "/resumes", "/resumes", nil, body, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// UpdateResume PUT /resumes/:id.
func (c *Client) UpdateResume(ctx context.Context, id, title string, data model.ResumeData) (*model.Resume, error) {
	var env dataEnvelope[model.Resume]
	body := model.ResumeInput{Title: title, Data: data}
	if err := c.do(ctx, http.MethodPut, "/resumes/:id", "/resumes/"+escape(id), nil, body, &env); err != nil {
		return nil, err
	}
	return &env.Data, nil
}

// DeleteResume DELETE /resumes/:id.
func (c *Client) DeleteResume(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/resumes/:id", "/resumes/"+escape(id), nil, nil, nil)
}
