package resume

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// Target 标识富文本内容所属的字段。
type Target string

const (
	TargetSummary               Target = "summary"
	TargetExperienceDescription Target = "experience.description"
)

// ContentChange 是富文本编辑器发出的“内容已变更”事件，HTML 按原样保存；
// 不含任何标签的纯文本（例如未启用编辑器时的 textarea）先包成段落。
type ContentChange struct {
	Target Target
	Index  int
	HTML   string
}

// Apply 把富文本事件写回草稿。
func (f *Form) Apply(ch ContentChange) error {
	ch.HTML = paragraphs(ch.HTML)
	switch ch.Target {
	case TargetSummary:
		f.Data.Summary = ch.HTML
	case TargetExperienceDescription:
		if ch.Index < 0 || ch.Index >= len(f.Data.Experience) {
			return fmt.Errorf("%w: experience %d", ErrIndexOutOfRange, ch.Index)
		}
		f.Data.Experience[ch.Index].Description = ch.HTML
	default:
		return fmt.Errorf("resume: unknown rich text target %q", ch.Target)
	}
	return nil
}

var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// paragraphs 空行分段，段内换行转为 <br>。
func paragraphs(text string) string {
	if strings.Contains(text, "<") || strings.TrimSpace(text) == "" {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var b strings.Builder
	for _, block := range blankLine.Split(strings.TrimSpace(text), -1) {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		for i, line := range lines {
			lines[i] = html.EscapeString(strings.TrimSpace(line))
		}
		b.WriteString("<p>")
		b.WriteString(strings.Join(lines, "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
