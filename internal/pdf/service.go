package pdf

import (
	"context"
	"fmt"

	"devfolio/internal/model"
	"devfolio/internal/preview"
)

// Service 组合预览渲染与导出，同步下载与异步任务共用。
type Service struct {
	renderer *preview.Renderer
	exporter Exporter
}

// NewService wires a renderer and an exporter.
func NewService(renderer *preview.Renderer, exporter Exporter) *Service {
	return &Service{renderer: renderer, exporter: exporter}
}

// ResumePDF 渲染简历并导出 PDF。
func (s *Service) ResumePDF(ctx context.Context, title string, data model.ResumeData) ([]byte, error) {
	html, err := s.renderer.RenderString(title, data)
	if err != nil {
		return nil, err
	}
	out, err := s.exporter.Export(ctx, html)
	if err != nil {
		return nil, fmt.Errorf("export resume pdf: %w", err)
	}
	return out, nil
}
