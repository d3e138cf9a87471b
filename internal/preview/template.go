package preview

// ResumeElementID 预览区域的 DOM id，导出时按此截图。
const ResumeElementID = "resume"

const documentTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  html, body { margin: 0; padding: 0; background: #ffffff; }
  body { font-family: "Helvetica Neue", Arial, sans-serif; color: #1f2937; }
  {{template "styles"}}
</style>
</head>
<body>
{{template "resume" .Data}}
</body>
</html>`

const stylesTemplate = `{{define "styles"}}
  #resume { width: 794px; box-sizing: border-box; padding: 48px; background: #ffffff; }
  #resume header { border-bottom: 1px solid #e5e7eb; padding-bottom: 24px; margin-bottom: 24px; }
  #resume h1 { font-size: 30px; margin: 0; color: #111827; }
  #resume .contact { margin-top: 8px; font-size: 13px; color: #4b5563; display: flex; flex-wrap: wrap; gap: 16px; }
  #resume section { margin-bottom: 24px; }
  #resume h2 { font-size: 20px; margin: 0 0 12px; color: #111827; }
  #resume h3 { font-size: 17px; margin: 0; color: #111827; }
  #resume .entry { margin-bottom: 16px; }
  #resume .entry-head { display: flex; justify-content: space-between; align-items: flex-start; }
  #resume .subtitle { color: #2563eb; margin: 2px 0 0; }
  #resume .dates { font-size: 13px; color: #6b7280; white-space: nowrap; }
  #resume .gpa { font-size: 13px; color: #4b5563; margin: 2px 0 0; }
  #resume .rich { font-size: 14px; line-height: 1.5; margin-top: 8px; }
  #resume .skills { display: grid; grid-template-columns: repeat(3, 1fr); gap: 8px; }
  #resume .skill { display: flex; justify-content: space-between; background: #f9fafb; border-radius: 4px; padding: 8px 12px; }
  #resume .skill-level { font-size: 13px; color: #6b7280; }
{{end}}`

const resumeTemplate = `{{define "resume"}}<div id="resume">
  <header>
    <h1>{{.PersonalInfo.FirstName}} {{.PersonalInfo.LastName}}</h1>
    <div class="contact">
      <span>{{.PersonalInfo.Email}}</span>
      <span>{{.PersonalInfo.Phone}}</span>
      <span>{{.PersonalInfo.Address}}</span>
      {{- with .PersonalInfo.Website}}<span>{{.}}</span>{{end}}
      {{- with .PersonalInfo.LinkedIn}}<span>{{.}}</span>{{end}}
      {{- with .PersonalInfo.GitHub}}<span>{{.}}</span>{{end}}
    </div>
  </header>
  {{- if .Summary}}
  <section class="summary">
    <h2>Professional Summary</h2>
    <div class="rich">{{richText .Summary}}</div>
  </section>
  {{- end}}
  {{- if .Experience}}
  <section class="experience">
    <h2>Work Experience</h2>
    {{- range .Experience}}
    <div class="entry">
      <div class="entry-head">
        <div>
          <h3>{{.JobTitle}}</h3>
          <p class="subtitle">{{.Company}} • {{.Location}}</p>
        </div>
        <div class="dates">{{dateRange .StartDate .EndDate .Current}}</div>
      </div>
      <div class="rich">{{richText .Description}}</div>
    </div>
    {{- end}}
  </section>
  {{- end}}
  {{- if .Education}}
  <section class="education">
    <h2>Education</h2>
    {{- range .Education}}
    <div class="entry">
      <div class="entry-head">
        <div>
          <h3>{{.Degree}} in {{.Field}}</h3>
          <p class="subtitle">{{.Institution}} • {{.Location}}</p>
          {{- with .GPA}}
          <p class="gpa">GPA: {{.}}</p>
          {{- end}}
        </div>
        <div class="dates">{{dateRange .StartDate .EndDate .Current}}</div>
      </div>
    </div>
    {{- end}}
  </section>
  {{- end}}
  {{- if .Skills}}
  <section class="skills-section">
    <h2>Skills</h2>
    <div class="skills">
      {{- range .Skills}}
      <div class="skill"><span>{{.Name}}</span><span class="skill-level">{{.Level}}</span></div>
      {{- end}}
    </div>
  </section>
  {{- end}}
</div>{{end}}`
