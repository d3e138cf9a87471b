package preview

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"devfolio/internal/model"
)

// Renderer 把 ResumeData 渲染为只读 HTML，不做任何校验。
type Renderer struct {
	tmpl   *template.Template
	policy *bluemonday.Policy
}

// NewRenderer 解析内置模板。富文本使用 bluemonday UGC 策略清洗。
func NewRenderer() *Renderer {
	r := &Renderer{policy: bluemonday.UGCPolicy()}
	r.tmpl = template.Must(template.New("document").Funcs(r.Funcs()).Parse(documentTemplate))
	template.Must(r.tmpl.Parse(stylesTemplate))
	template.Must(r.tmpl.Parse(resumeTemplate))
	return r
}

// Funcs exposes the helpers so page templates can embed the resume fragment.
func (r *Renderer) Funcs() template.FuncMap {
	return template.FuncMap{
		"richText":   r.RichText,
		"formatDate": FormatDate,
		"dateRange":  DateRange,
	}
}

// RichText sanitizes editor HTML for inline display.
func (r *Renderer) RichText(html string) template.HTML {
	return template.HTML(r.policy.Sanitize(html))
}

type document struct {
	Title string
	Data  model.ResumeData
}

// Render 输出完整的独立 HTML 文档，供浏览器预览和 PDF 导出使用。
func (r *Renderer) Render(w io.Writer, title string, data model.ResumeData) error {
	if title == "" {
		title = "Resume"
	}
	if err := r.tmpl.ExecuteTemplate(w, "document", document{Title: title, Data: data}); err != nil {
		return fmt.Errorf("render resume document: %w", err)
	}
	return nil
}

// RenderString is Render into a string.
func (r *Renderer) RenderString(title string, data model.ResumeData) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, title, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Fragment 只渲染 #resume 区域，用于嵌入编辑页。
func (r *Renderer) Fragment(data model.ResumeData) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "resume", data); err != nil {
		return "", fmt.Errorf("render resume fragment: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Styles returns the CSS the fragment depends on.
func (r *Renderer) Styles() (template.CSS, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "styles", nil); err != nil {
		return "", fmt.Errorf("render resume styles: %w", err)
	}
	return template.CSS(buf.String()), nil
}

var dateLayouts = []string{"2006-01", "2006-01-02", time.RFC3339, "2006-01-02T15:04:05.000Z07:00"}

// FormatDate 将 2023-01 / 2023-01-15 等格式化为 "Jan 2023"，无法解析时原样返回。
func FormatDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("Jan 2006")
		}
	}
	return value
}

// DateRange renders "start - end", with Present for current entries.
func DateRange(start, end string, current bool) string {
	to := "Present"
	if !current {
		to = FormatDate(end)
	}
	return FormatDate(start) + " - " + to
}
