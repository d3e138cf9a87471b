package resume

import (
	"fmt"
	"strconv"
	"strings"
)

// Section 可重复的简历分区。
type Section string

const (
	SectionExperience Section = "experience"
	SectionEducation  Section = "education"
	SectionSkills     Section = "skills"
)

// ActionKind 编辑器按钮触发的操作类型。
type ActionKind string

const (
	ActionSave   ActionKind = "save"
	ActionAdd    ActionKind = "add"
	ActionRemove ActionKind = "remove"
)

// Action 描述一次表单按钮操作，例如 add-experience 或 remove-skills:2。
type Action struct {
	Kind    ActionKind
	Section Section
	Index   int
}

// ParseAction 解析提交按钮的 value，空字符串视为保存。
func ParseAction(raw string) (Action, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == string(ActionSave) {
		return Action{Kind: ActionSave}, nil
	}

	name, index, hasIndex := strings.Cut(raw, ":")
	kind, section, ok := strings.Cut(name, "-")
	if !ok {
		return Action{}, fmt.Errorf("resume: malformed action %q", raw)
	}

	a := Action{Kind: ActionKind(kind), Section: Section(section)}
	switch a.Section {
	case SectionExperience, SectionEducation, SectionSkills:
	default:
		return Action{}, fmt.Errorf("resume: unknown section %q", section)
	}

	switch a.Kind {
	case ActionAdd:
		if hasIndex {
			return Action{}, fmt.Errorf("resume: add takes no index: %q", raw)
		}
	case ActionRemove:
		if !hasIndex {
			return Action{}, fmt.Errorf("resume: remove needs an index: %q", raw)
		}
		i, err := strconv.Atoi(index)
		if err != nil || i < 0 {
			return Action{}, fmt.Errorf("resume: bad index in %q", raw)
		}
		a.Index = i
	default:
		return Action{}, fmt.Errorf("resume: unknown action %q", kind)
	}
	return a, nil
}

// String renders the action back into its button value.
func (a Action) String() string {
	switch a.Kind {
	case ActionAdd:
		return fmt.Sprintf("add-%s", a.Section)
	case ActionRemove:
		return fmt.Sprintf("remove-%s:%d", a.Section, a.Index)
	}
	return string(ActionSave)
}

// ApplyAction 执行 add/remove 操作，save 由调用方处理。
func (f *Form) ApplyAction(a Action) error {
	switch a.Kind {
	case ActionAdd:
		switch a.Section {
		case SectionExperience:
			f.AppendExperience()
		case SectionEducation:
			f.AppendEducation()
		case SectionSkills:
			f.AppendSkill()
		}
	case ActionRemove:
		switch a.Section {
		case SectionExperience:
			return f.RemoveExperience(a.Index)
		case SectionEducation:
			return f.RemoveEducation(a.Index)
		case SectionSkills:
			return f.RemoveSkill(a.Index)
		}
	}
	return nil
}
