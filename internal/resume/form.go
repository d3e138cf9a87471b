package resume

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"devfolio/internal/model"
	"devfolio/internal/validation"
)

// DefaultTitle 未填写标题时保存使用的名称。
const DefaultTitle = "My Resume"

var (
	// ErrSubmitting 已有一次保存在进行中。
	ErrSubmitting = errors.New("resume: save already in progress")
	// ErrIndexOutOfRange 删除或修改的条目位置不存在。
	ErrIndexOutOfRange = errors.New("resume: entry index out of range")
)

// SaveFunc 由调用方提供，决定是创建还是更新。
type SaveFunc func(ctx context.Context, title string, data model.ResumeData) error

// Form 持有一份可编辑的简历草稿及标题。
type Form struct {
	Title string
	Data  model.ResumeData

	mu         sync.Mutex
	submitting bool
	errors     validation.FieldErrors
	newID      func() string
}

// NewForm 基于已有数据创建表单，initial 为 nil 时使用空草稿。
func NewForm(title string, initial *model.ResumeData) *Form {
	f := &Form{Title: title, newID: uuid.NewString}
	if initial != nil {
		f.Data = cloneData(*initial)
	}
	if f.Data.Experience == nil {
		f.Data.Experience = []model.Experience{}
	}
	if f.Data.Education == nil {
		f.Data.Education = []model.Education{}
	}
	if f.Data.Skills == nil {
		f.Data.Skills = []model.Skill{}
	}
	return f
}

// SaveTitle returns the title that will be sent on submit.
func (f *Form) SaveTitle() string {
	if t := strings.TrimSpace(f.Title); t != "" {
		return t
	}
	return DefaultTitle
}

// Submitting reports whether a save is in flight.
func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Errors 返回最近一次校验的字段错误。
func (f *Form) Errors() validation.FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors
}

// SetErrors replaces the field errors shown next to inputs.
func (f *Form) SetErrors(errs validation.FieldErrors) {
	f.mu.Lock()
	f.errors = errs
	f.mu.Unlock()
}

// AppendExperience 追加一条空的工作经历。
func (f *Form) AppendExperience() model.Experience {
	e := model.Experience{ID: f.newID()}
	f.Data.Experience = append(f.Data.Experience, e)
	return e
}

// AppendEducation 追加一条空的教育经历。
func (f *Form) AppendEducation() model.Education {
	e := model.Education{ID: f.newID()}
	f.Data.Education = append(f.Data.Education, e)
	return e
}

// AppendSkill 追加一条技能，默认熟练度为 Intermediate。
func (f *Form) AppendSkill() model.Skill {
	s := model.Skill{ID: f.newID(), Level: model.SkillIntermediate}
	f.Data.Skills = append(f.Data.Skills, s)
	return s
}

// RemoveExperience 删除第 i 条工作经历，其余条目保持原顺序。
// 下标越界时返回 ErrIndexOutOfRange，表单不变。
func (f *Form) RemoveExperience(i int) error {
	out, err := removeAt(f.Data.Experience, i)
	if err != nil {
		return err
	}
	f.Data.Experience = out
	return nil
}

// RemoveEducation removes the i-th education entry; see RemoveExperience.
func (f *Form) RemoveEducation(i int) error {
	out, err := removeAt(f.Data.Education, i)
	if err != nil {
		return err
	}
	f.Data.Education = out
	return nil
}

// RemoveSkill removes the i-th skill; see RemoveExperience.
func (f *Form) RemoveSkill(i int) error {
	out, err := removeAt(f.Data.Skills, i)
	if err != nil {
		return err
	}
	f.Data.Skills = out
	return nil
}

// SetExperienceCurrent 标记为当前在职时清空结束日期。
func (f *Form) SetExperienceCurrent(i int, current bool) error {
	if i < 0 || i >= len(f.Data.Experience) {
		return fmt.Errorf("%w: experience %d", ErrIndexOutOfRange, i)
	}
	f.Data.Experience[i].Current = current
	if current {
		f.Data.Experience[i].EndDate = ""
	}
	return nil
}

// SetEducationCurrent mirrors SetExperienceCurrent for education.
func (f *Form) SetEducationCurrent(i int, current bool) error {
	if i < 0 || i >= len(f.Data.Education) {
		return fmt.Errorf("%w: education %d", ErrIndexOutOfRange, i)
	}
	f.Data.Education[i].Current = current
	if current {
		f.Data.Education[i].EndDate = ""
	}
	return nil
}

// Validate 校验草稿并记录字段错误，通过时返回 nil。
func (f *Form) Validate() validation.FieldErrors {
	errs := validation.Struct(f.Data)
	f.SetErrors(errs)
	return errs
}

// Submit 校验通过后调用 save。保存期间重复提交会返回 ErrSubmitting；
// 无论 save 成功与否都会复位 submitting 状态。
func (f *Form) Submit(ctx context.Context, save SaveFunc) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	f.mu.Unlock()

	if errs := f.Validate(); len(errs) > 0 {
		return &validation.Error{Fields: errs}
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitting
	}
	f.submitting = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	return save(ctx, f.SaveTitle(), Normalize(f.Data))
}

// Normalize 返回提交用的副本：current 条目不带 endDate。
func Normalize(d model.ResumeData) model.ResumeData {
	out := cloneData(d)
	for i := range out.Experience {
		if out.Experience[i].Current {
			out.Experience[i].EndDate = ""
		}
	}
	for i := range out.Education {
		if out.Education[i].Current {
			out.Education[i].EndDate = ""
		}
	}
	return out
}

func removeAt[T any](items []T, i int) ([]T, error) {
	if i < 0 || i >= len(items) {
		return items, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(items))
	}
	out := make([]T, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...), nil
}

func cloneData(d model.ResumeData) model.ResumeData {
	out := d
	if d.Experience != nil {
		out.Experience = append([]model.Experience(nil), d.Experience...)
	}
	if d.Education != nil {
		out.Education = append([]model.Education(nil), d.Education...)
	}
	if d.Skills != nil {
		out.Skills = append([]model.Skill(nil), d.Skills...)
	}
	return out
}
