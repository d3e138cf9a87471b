package resume

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"

	"devfolio/internal/model"
)

var entryKey = regexp.MustCompile(`^(experience|education|skills)\[(\d+)\]\.([A-Za-z]+)$`)

// DecodeForm 从编辑器提交的表单重建草稿。
// 条目按下标排序；富文本字段经由 ContentChange 写入。
func DecodeForm(values url.Values) (*Form, error) {
	f := NewForm(values.Get("title"), nil)
	f.Data.PersonalInfo = model.PersonalInfo{
		FirstName: values.Get("personalInfo.firstName"),
		LastName:  values.Get("personalInfo.lastName"),
		Email:     values.Get("personalInfo.email"),
		Phone:     values.Get("personalInfo.phone"),
		Address:   values.Get("personalInfo.address"),
		Website:   values.Get("personalInfo.website"),
		LinkedIn:  values.Get("personalInfo.linkedin"),
		GitHub:    values.Get("personalInfo.github"),
	}

	entries := map[string]map[int]map[string]string{
		string(SectionExperience): {},
		string(SectionEducation):  {},
		string(SectionSkills):     {},
	}
	for key, vals := range values {
		m := entryKey.FindStringSubmatch(key)
		if m == nil || len(vals) == 0 {
			continue
		}
		idx, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		fields, ok := entries[m[1]][idx]
		if !ok {
			fields = map[string]string{}
			entries[m[1]][idx] = fields
		}
		// 复选框与隐藏域同名时，最后一个值生效。
		fields[m[3]] = vals[len(vals)-1]
	}

	for _, fields := range ordered(entries[string(SectionExperience)]) {
		f.Data.Experience = append(f.Data.Experience, model.Experience{
			ID:        f.ensureID(fields["id"]),
			JobTitle:  fields["jobTitle"],
			Company:   fields["company"],
			Location:  fields["location"],
			StartDate: fields["startDate"],
			EndDate:   fields["endDate"],
			Current:   checked(fields["current"]),
		})
		if err := f.Apply(ContentChange{
			Target: TargetExperienceDescription,
			Index:  len(f.Data.Experience) - 1,
			HTML:   fields["description"],
		}); err != nil {
			return nil, err
		}
	}
	for _, fields := range ordered(entries[string(SectionEducation)]) {
		f.Data.Education = append(f.Data.Education, model.Education{
			ID:          f.ensureID(fields["id"]),
			Institution: fields["institution"],
			Degree:      fields["degree"],
			Field:       fields["field"],
			Location:    fields["location"],
			StartDate:   fields["startDate"],
			EndDate:     fields["endDate"],
			Current:     checked(fields["current"]),
			GPA:         fields["gpa"],
		})
	}
	for _, fields := range ordered(entries[string(SectionSkills)]) {
		f.Data.Skills = append(f.Data.Skills, model.Skill{
			ID:    f.ensureID(fields["id"]),
			Name:  fields["name"],
			Level: model.SkillLevel(fields["level"]),
		})
	}

	if err := f.Apply(ContentChange{Target: TargetSummary, HTML: values.Get("summary")}); err != nil {
		return nil, err
	}

	for i := range f.Data.Experience {
		if f.Data.Experience[i].Current {
			_ = f.SetExperienceCurrent(i, true)
		}
	}
	for i := range f.Data.Education {
		if f.Data.Education[i].Current {
			_ = f.SetEducationCurrent(i, true)
		}
	}
	return f, nil
}

// EncodeForm 是 DecodeForm 的逆过程，主要用于构造请求和测试。
func EncodeForm(title string, d model.ResumeData) url.Values {
	v := url.Values{}
	v.Set("title", title)
	v.Set("personalInfo.firstName", d.PersonalInfo.FirstName)
	v.Set("personalInfo.lastName", d.PersonalInfo.LastName)
	v.Set("personalInfo.email", d.PersonalInfo.Email)
	v.Set("personalInfo.phone", d.PersonalInfo.Phone)
	v.Set("personalInfo.address", d.PersonalInfo.Address)
	v.Set("personalInfo.website", d.PersonalInfo.Website)
	v.Set("personalInfo.linkedin", d.PersonalInfo.LinkedIn)
	v.Set("personalInfo.github", d.PersonalInfo.GitHub)
	v.Set("summary", d.Summary)
	for i, e := range d.Experience {
		p := fmt.Sprintf("experience[%d].", i)
		v.Set(p+"id", e.ID)
		v.Set(p+"jobTitle", e.JobTitle)
		v.Set(p+"company", e.Company)
		v.Set(p+"location", e.Location)
		v.Set(p+"startDate", e.StartDate)
		v.Set(p+"endDate", e.EndDate)
		v.Set(p+"current", strconv.FormatBool(e.Current))
		v.Set(p+"description", e.Description)
	}
	for i, e := range d.Education {
		p := fmt.Sprintf("education[%d].", i)
		v.Set(p+"id", e.ID)
		v.Set(p+"institution", e.Institution)
		v.Set(p+"degree", e.Degree)
		v.Set(p+"field", e.Field)
		v.Set(p+"location", e.Location)
		v.Set(p+"startDate", e.StartDate)
		v.Set(p+"endDate", e.EndDate)
		v.Set(p+"current", strconv.FormatBool(e.Current))
		v.Set(p+"gpa", e.GPA)
	}
	for i, s := range d.Skills {
		p := fmt.Sprintf("skills[%d].", i)
		v.Set(p+"id", s.ID)
		v.Set(p+"name", s.Name)
		v.Set(p+"level", string(s.Level))
	}
	return v
}

func (f *Form) ensureID(id string) string {
	if id != "" {
		return id
	}
	return f.newID()
}

func ordered(m map[int]map[string]string) []map[string]string {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]map[string]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func checked(v string) bool {
	switch v {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
