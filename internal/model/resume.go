package model

import "time"

// SkillLevel 技能熟练度，只允许四个取值。
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "Beginner"
	SkillIntermediate SkillLevel = "Intermediate"
	SkillAdvanced     SkillLevel = "Advanced"
	SkillExpert       SkillLevel = "Expert"
)

// SkillLevels lists the accepted levels in display order.
var SkillLevels = []SkillLevel{SkillBeginner, SkillIntermediate, SkillAdvanced, SkillExpert}

// Resume 对应后端 /resumes 资源。
type Resume struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Data      ResumeData `json:"data"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ResumeInput 是创建/更新简历时提交的请求体。
type ResumeInput struct {
	Title string     `json:"title"`
	Data  ResumeData `json:"data"`
}

// ResumeData 简历正文。Summary 与 Experience.Description 为富文本 HTML。
type ResumeData struct {
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Summary      string       `json:"summary" validate:"required"`
	Experience   []Experience `json:"experience" validate:"dive"`
	Education    []Education  `json:"education" validate:"dive"`
	Skills       []Skill      `json:"skills" validate:"dive"`
}

// PersonalInfo 个人信息。
type PersonalInfo struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address" validate:"required"`
	Website   string `json:"website,omitempty" validate:"omitempty,url"`
	LinkedIn  string `json:"linkedin,omitempty" validate:"omitempty,url"`
	GitHub    string `json:"github,omitempty" validate:"omitempty,url"`
}

// FullName joins first and last name.
func (p PersonalInfo) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Experience 工作经历。ID 仅用于列表渲染，不是持久化主键。
type Experience struct {
	ID          string `json:"id"`
	JobTitle    string `json:"jobTitle" validate:"required"`
	Company     string `json:"company" validate:"required"`
	Location    string `json:"location" validate:"required"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate,omitempty" validate:"required_unless=Current true"`
	Current     bool   `json:"current"`
	Description string `json:"description" validate:"required"`
}

// Education 教育经历。
type Education struct {
	ID          string `json:"id"`
	Institution string `json:"institution" validate:"required"`
	Degree      string `json:"degree" validate:"required"`
	Field       string `json:"field" validate:"required"`
	Location    string `json:"location" validate:"required"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate,omitempty" validate:"required_unless=Current true"`
	Current     bool   `json:"current"`
	GPA         string `json:"gpa,omitempty"`
}

// Skill 技能条目。
type Skill struct {
	ID    string     `json:"id"`
	Name  string     `json:"name" validate:"required"`
	Level SkillLevel `json:"level" validate:"required,oneof=Beginner Intermediate Advanced Expert"`
}

// IsEmpty reports whether the document has no sections besides the header.
func (d ResumeData) IsEmpty() bool {
	return d.Summary == "" && len(d.Experience) == 0 && len(d.Education) == 0 && len(d.Skills) == 0
}
