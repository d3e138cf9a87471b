package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devfolio/internal/model"
)

func sample() model.ResumeData {
	return model.ResumeData{
		PersonalInfo: model.PersonalInfo{
			FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
			Phone: "123", Address: "London", GitHub: "https://github.com/ada",
		},
		Summary: "<p>Writes <strong>programs</strong></p>",
		Experience: []model.Experience{
			{JobTitle: "Analyst", Company: "Engine Co", Location: "London", StartDate: "2021-03", Current: true, Description: "<p>Built notes</p>"},
			{JobTitle: "Tutor", Company: "Uni", Location: "Cambridge", StartDate: "2019-01", EndDate: "2020-12", Description: "<p>Taught</p>"},
		},
		Education: []model.Education{
			{Institution: "Uni", Degree: "BSc", Field: "Mathematics", Location: "London", StartDate: "2015-09", EndDate: "2019-06", GPA: "3.9"},
		},
		Skills: []model.Skill{{Name: "Go", Level: model.SkillExpert}},
	}
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Jan 2023", FormatDate("2023-01"))
	assert.Equal(t, "Mar 2022", FormatDate("2022-03-15"))
	assert.Equal(t, "Dec 2020", FormatDate("2020-12-01T00:00:00Z"))
	assert.Equal(t, "", FormatDate(""))
	assert.Equal(t, "sometime", FormatDate("sometime"))

	assert.Equal(t, "Mar 2021 - Present", DateRange("2021-03", "2022-01", true))
	assert.Equal(t, "Jan 2019 - Dec 2020", DateRange("2019-01", "2020-12", false))
}

func TestRenderFullDocument(t *testing.T) {
	html, err := NewRenderer().RenderString("CV", sample())
	require.NoError(t, err)

	assert.Contains(t, html, `<div id="resume">`)
	assert.Contains(t, html, "Ada Lovelace")
	assert.Contains(t, html, "Professional Summary")
	assert.Contains(t, html, "<strong>programs</strong>")
	assert.Contains(t, html, "Engine Co • London")
	assert.Contains(t, html, "Mar 2021 - Present")
	assert.Contains(t, html, "Jan 2019 - Dec 2020")
	assert.Contains(t, html, "BSc in Mathematics")
	assert.Contains(t, html, "GPA: 3.9")
	assert.Contains(t, html, "https://github.com/ada")
	assert.Contains(t, html, "Expert")
}

func TestRenderOmitsEmptySections(t *testing.T) {
	data := sample()
	data.Experience = nil
	data.Education = []model.Education{}
	data.Skills = nil

	html, err := NewRenderer().RenderString("CV", data)
	require.NoError(t, err)

	assert.Contains(t, html, "Ada Lovelace")
	assert.Contains(t, html, "Professional Summary")
	assert.NotContains(t, html, "Work Experience")
	assert.NotContains(t, html, "<h2>Education</h2>")
	assert.NotContains(t, html, "<h2>Skills</h2>")

	data.Summary = ""
	html, err = NewRenderer().RenderString("CV", data)
	require.NoError(t, err)
	assert.NotContains(t, html, "Professional Summary")
}

func TestRenderOmitsGPAWhenEmpty(t *testing.T) {
	data := sample()
	data.Education[0].GPA = ""
	frag, err := NewRenderer().Fragment(data)
	require.NoError(t, err)
	assert.NotContains(t, string(frag), "GPA:")
}

func TestRichTextIsSanitized(t *testing.T) {
	data := sample()
	data.Summary = `<p onclick="steal()">hi</p><script>alert(1)</script>`

	frag, err := NewRenderer().Fragment(data)
	require.NoError(t, err)
	out := string(frag)
	assert.Contains(t, out, "<p>hi</p>")
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "onclick")
}

func TestPlainFieldsAreEscaped(t *testing.T) {
	data := sample()
	data.PersonalInfo.FirstName = "<b>Ada</b>"
	frag, err := NewRenderer().Fragment(data)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(frag), "&lt;b&gt;Ada&lt;/b&gt;"))
}
