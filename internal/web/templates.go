package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"

	"devfolio/internal/preview"
	"devfolio/internal/validation"
)

//go:embed templates
var templateFS embed.FS

const layoutName = "layout"

// Templates 为每个页面保存一份 layout + partials + page 的模板集合，实现 gin 的 render.HTMLRender。
type Templates struct {
	pages map[string]*template.Template
}

// LoadTemplates 解析内嵌模板。页面名取 templates/pages 下的文件名（不含扩展名）。
func LoadTemplates(previewRenderer *preview.Renderer) (*Templates, error) {
	funcs := template.FuncMap{
		"date":     formatDay,
		"add":      func(a, b int) int { return a + b },
		"fieldErr": fieldError,
		"hasErr":   func(errs validation.FieldErrors, field string) bool { return errs[field] != "" },
		"attr":     func(s string) template.HTMLAttr { return template.HTMLAttr(s) },
	}
	for name, fn := range previewRenderer.Funcs() {
		funcs[name] = fn
	}

	base, err := template.New(layoutName).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	t := &Templates{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		page, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", file, err)
		}
		if _, err := page.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		t.pages[strings.TrimSuffix(path.Base(file), ".html")] = page
	}
	return t, nil
}

// Has reports whether a page template exists.
func (t *Templates) Has(name string) bool {
	_, ok := t.pages[name]
	return ok
}

// Instance 实现 render.HTMLRender。
func (t *Templates) Instance(name string, data any) render.Render {
	page, ok := t.pages[name]
	if !ok {
		page = t.pages["error"]
		data = missingTemplate(name, data)
	}
	return render.HTML{Template: page, Name: layoutName, Data: data}
}

func missingTemplate(name string, data any) any {
	p, ok := data.(*Page)
	if !ok {
		p = &Page{}
	}
	p.Meta = newMeta("", "Error", "")
	p.Data = ErrorView{Status: 500, Heading: "Something went wrong", Message: "missing page template " + name}
	return p
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 2006")
}

func fieldError(errs validation.FieldErrors, field string) string {
	if errs == nil {
		return ""
	}
	return errs[field]
}
