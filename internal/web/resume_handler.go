package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"devfolio/internal/client"
	"devfolio/internal/database"
	"devfolio/internal/model"
	"devfolio/internal/pdf"
	"devfolio/internal/preview"
	"devfolio/internal/resume"
	"devfolio/internal/session"
	"devfolio/internal/validation"
	"devfolio/internal/web/middleware"
)

// ResumePDF 将简历渲染为 PDF，由 *pdf.Service 实现。
type ResumePDF interface {
	ResumePDF(ctx context.Context, title string, data model.ResumeData) ([]byte, error)
}

// ResumeHandler 处理简历列表、编辑器、预览与同步导出。
type ResumeHandler struct {
	*views
	api            *client.Client
	preview        *preview.Renderer
	pdf            ResumePDF
	exports        ExportService
	exportsEnabled bool
	sessions       session.Storage
}

const (
	// recentExportsLimit 简历页展示的最近导出条数。
	recentExportsLimit = 5
	// saveLockTTL bounds how long a crashed save can block the session.
	saveLockTTL = 2 * time.Minute
)

// NewResumeHandler 构造简历处理器。exportService 为 nil 时不提供异步导出。
func NewResumeHandler(v *views, api *client.Client, previewRenderer *preview.Renderer, pdfService ResumePDF, exportService ExportService, sessions session.Storage) *ResumeHandler {
	return &ResumeHandler{
		views:          v,
		api:            api,
		preview:        previewRenderer,
		pdf:            pdfService,
		exports:        exportService,
		exportsEnabled: exportService != nil,
		sessions:       sessions,
	}
}

// ResumeListState 简历页的展示状态。
type ResumeListState string

const (
	ResumeStateNotAuthenticated ResumeListState = "not-authenticated"
	ResumeStateLoading          ResumeListState = "loading"
	ResumeStateEmpty            ResumeListState = "empty"
	ResumeStateList             ResumeListState = "list"
)

// ResumeListView 简历列表页数据。
type ResumeListView struct {
	State          ResumeListState
	Resumes        []model.Resume
	ExportsEnabled bool
	RecentExports  []database.Export
}

// EditorView 编辑器页数据：左侧表单，右侧同一份草稿的预览。
type EditorView struct {
	ResumeID    string
	IsNew       bool
	Form        *resume.Form
	Errors      validation.FieldErrors
	Message     string
	SkillLevels []model.SkillLevel
	Preview     template.HTML
	Styles      template.CSS
}

// DeleteView 删除确认页数据。
type DeleteView struct {
	Resume *model.Resume
}

// List GET /resumes。未登录、认证初始化中、空列表与列表四种状态。
func (h *ResumeHandler) List(c *gin.Context) {
	meta := h.meta("Resume Builder | "+siteName, "Create professional resumes in minutes")
	state := middleware.AuthState(c)
	view := ResumeListView{ExportsEnabled: h.exportsEnabled}

	switch {
	case state.IsLoading():
		view.State = ResumeStateLoading
		meta.Refresh = 2
		h.render(c, http.StatusOK, "resumes", meta, view)
		return
	case !state.IsAuthenticated():
		view.State = ResumeStateNotAuthenticated
		h.render(c, http.StatusOK, "resumes", meta, view)
		return
	}

	resumes, err := h.api.ListResumes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	view.Resumes = resumes
	view.State = ResumeStateList
	if len(resumes) == 0 {
		view.State = ResumeStateEmpty
	}
	if h.exportsEnabled {
		recent, err := h.exports.List(c.Request.Context(), state.User.ID, "", recentExportsLimit)
		if err != nil {
			middleware.LoggerFromContext(c).Warn("load recent exports failed", slog.Any("error", err))
		}
		view.RecentExports = recent
	}
	h.render(c, http.StatusOK, "resumes", meta, view)
}

// New GET /resumes/new：空白草稿。
func (h *ResumeHandler) New(c *gin.Context) {
	h.editor(c, http.StatusOK, "", resume.NewForm(resume.DefaultTitle, nil), "")
}

// Edit GET /resumes/:id/edit。
func (h *ResumeHandler) Edit(c *gin.Context) {
	r, err := h.api.GetResume(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	title := r.Title
	if title == "" {
		title = resume.DefaultTitle
	}
	h.editor(c, http.StatusOK, r.ID, resume.NewForm(title, &r.Data), "")
}

// Create POST /resumes。
func (h *ResumeHandler) Create(c *gin.Context) {
	h.submit(c, "", func(ctx context.Context, title string, data model.ResumeData) error {
		_, err := h.api.CreateResume(ctx, title, data)
		return err
	})
}

// Update POST /resumes/:id。
func (h *ResumeHandler) Update(c *gin.Context) {
	id := c.Param("id")
	h.submit(c, id, func(ctx context.Context, title string, data model.ResumeData) error {
		_, err := h.api.UpdateResume(ctx, id, title, data)
		return err
	})
}

// submit 解析表单：add/remove 按钮只修改草稿并重新渲染，save 校验后调用 save。
func (h *ResumeHandler) submit(c *gin.Context, id string, save resume.SaveFunc) {
	if err := c.Request.ParseForm(); err != nil {
		h.renderError(c, http.StatusBadRequest, "Invalid form", "The submitted form could not be read.")
		return
	}
	form, err := resume.DecodeForm(c.Request.PostForm)
	if err != nil {
		h.renderError(c, http.StatusBadRequest, "Invalid form", "The submitted form could not be read.")
		return
	}
	action, err := resume.ParseAction(c.PostForm("action"))
	if err != nil {
		h.renderError(c, http.StatusBadRequest, "Invalid form", "Unknown editor action.")
		return
	}

	if action.Kind != resume.ActionSave {
		if err := form.ApplyAction(action); err != nil {
			h.editor(c, http.StatusUnprocessableEntity, id, form, "That entry no longer exists.")
			return
		}
		h.editor(c, http.StatusOK, id, form, "")
		return
	}

	err = form.Submit(c.Request.Context(), h.exclusive(c, id, save))
	switch {
	case err == nil:
		c.Redirect(http.StatusSeeOther, "/resumes?notice=saved")
	case validation.AsFieldErrors(err) != nil:
		h.editor(c, http.StatusUnprocessableEntity, id, form, "Please fix the highlighted fields.")
	case errors.Is(err, resume.ErrSubmitting):
		h.editor(c, http.StatusConflict, id, form, "A save is already in progress.")
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, context.Canceled):
		h.fail(c, err)
	default:
		middleware.LoggerFromContext(c).Error("save resume failed", slog.String("resume_id", id), slog.Any("error", err))
		h.editor(c, http.StatusBadGateway, id, form, "Could not save your resume. Please try again.")
	}
}

// exclusive 保证同一会话对同一份简历同时只有一次保存，跨请求与实例生效。
func (h *ResumeHandler) exclusive(c *gin.Context, id string, save resume.SaveFunc) resume.SaveFunc {
	name := "save:new"
	if id != "" {
		name = "save:" + id
	}
	return func(ctx context.Context, title string, data model.ResumeData) error {
		release, err := session.Acquire(ctx, h.sessions, middleware.SessionID(c), name, saveLockTTL)
		if errors.Is(err, session.ErrBusy) {
			return resume.ErrSubmitting
		}
		if err != nil {
			return fmt.Errorf("acquire save lock: %w", err)
		}
		defer release()
		return save(ctx, title, data)
	}
}

// ConfirmDelete GET /resumes/:id/delete：删除前的确认页。
func (h *ResumeHandler) ConfirmDelete(c *gin.Context) {
	r, err := h.api.GetResume(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "resume_delete", h.meta("Delete Resume | "+siteName, ""), DeleteView{Resume: r})
}

// Delete POST /resumes/:id/delete，必须带 confirm=yes。
func (h *ResumeHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if c.PostForm("confirm") != "yes" {
		c.Redirect(http.StatusSeeOther, "/resumes/"+id+"/delete")
		return
	}
	if err := h.api.DeleteResume(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/resumes?notice=deleted")
}

// Preview GET /resumes/:id/preview：独立的只读 HTML 文档。
func (h *ResumeHandler) Preview(c *gin.Context) {
	r, err := h.api.GetResume(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	html, err := h.preview.RenderString(r.Title, r.Data)
	if err != nil {
		middleware.LoggerFromContext(c).Error("render preview failed", slog.Any("error", err))
		h.renderError(c, http.StatusInternalServerError, "Something went wrong", "The preview could not be rendered.")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// PDF GET /resumes/:id/pdf：同步渲染并以 resume.pdf 下载。
func (h *ResumeHandler) PDF(c *gin.Context) {
	ctx := c.Request.Context()
	r, err := h.api.GetResume(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := h.pdf.ResumePDF(ctx, r.Title, r.Data)
	if err != nil {
		if ctx.Err() != nil {
			c.AbortWithStatus(statusClientClosed)
			return
		}
		middleware.LoggerFromContext(c).Error("export pdf failed", slog.String("resume_id", r.ID), slog.Any("error", err))
		h.renderError(c, http.StatusInternalServerError, "Export failed", "The PDF could not be generated. Please try again.")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+pdf.FileName+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

func (h *ResumeHandler) editor(c *gin.Context, status int, id string, form *resume.Form, message string) {
	view := EditorView{
		ResumeID:    id,
		IsNew:       id == "",
		Form:        form,
		Errors:      form.Errors(),
		Message:     message,
		SkillLevels: model.SkillLevels,
	}
	if fragment, err := h.preview.Fragment(form.Data); err == nil {
		view.Preview = fragment
	} else {
		middleware.LoggerFromContext(c).Warn("render editor preview failed", slog.Any("error", err))
	}
	if styles, err := h.preview.Styles(); err == nil {
		view.Styles = styles
	}

	title := "Create New Resume | " + siteName
	if !view.IsNew {
		title = "Edit Resume | " + siteName
	}
	h.render(c, status, "resume_editor", h.meta(title, ""), view)
}
