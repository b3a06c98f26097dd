package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var reportTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"safeHTML": func(s any) template.HTML {
			switch v := s.(type) {
			case string:
				return template.HTML(v)
			case template.HTML:
				return v
			default:
				return template.HTML("")
			}
		},
	}

	content, err := templateFS.ReadFile("templates/report.html")
	if err != nil {
		// Fallback to the built-in template if the embedded file is missing
		reportTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}
	reportTemplate = template.Must(template.New("report").Funcs(funcMap).Parse(string(content)))
}

// templateData is the full input of the report template.
type templateData struct {
	Title         string
	Address       string
	ClientName    string
	ValuationDate string
	CoverImageURL string
	Pages         []Page
	Preview       bool
}

func renderDocument(data templateData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report template: %w", err)
	}
	return buf.String(), nil
}

// fallbackTemplate mirrors templates/report.html for builds where the
// embedded file cannot be read.
const fallbackTemplate = `<!DOCTYPE html>
<html dir="rtl" lang="he">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
body { font-family: "David Libre", "Noto Sans Hebrew", serif; direction: rtl; margin: 0; }
.cover-page, .report-page { width: 794px; min-height: 1123px; padding: 75px 60px; box-sizing: border-box; page-break-after: always; }
.cover-page h1 { font-size: 2.2em; text-align: center; margin-top: 180px; }
.cover-meta { text-align: center; color: #444; margin-top: 2em; }
.cover-image { display: block; margin: 3em auto 0; max-width: 70%; }
.chapter-title { border-bottom: 2px solid #1a1a2e; padding-bottom: 0.3em; }
table.details, table.comparables { width: 100%; border-collapse: collapse; margin: 1em 0; }
table.details th { text-align: right; width: 35%; }
table.details th, table.details td, table.comparables th, table.comparables td { border: 1px solid #bbb; padding: 6px 10px; }
.report-image img { max-width: 100%; }
.signature { margin-top: 3em; text-align: left; }
</style>
</head>
<body>
<div class="cover-page">
<h1>{{.Title}}</h1>
<div class="cover-meta">
<p>{{.Address}}</p>
<p>עבור: {{.ClientName}}</p>
<p>{{.ValuationDate}}</p>
</div>
{{if .CoverImageURL}}<img class="cover-image" src="{{.CoverImageURL}}" alt="">{{end}}
</div>
{{range .Pages}}
<div {{if $.Preview}}id="page-{{.Number}}" {{end}}class="report-page">
{{range .Blocks}}{{.HTML}}
{{end}}</div>
{{end}}
{{if .Preview}}<script>
document.querySelectorAll('.report-page').forEach(function (page, i) {
  page.dataset.page = String(i + 1);
});
</script>{{end}}
</body>
</html>`
