package export

import (
	"bytes"
	"fmt"
	"html/template"

	"kbconsole/models"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	renderer = goldmark.New(goldmark.WithExtensions(extension.GFM))
	policy   = bluemonday.UGCPolicy()
)

var page = template.Must(template.New("article").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<article>
<h1>{{.Title}}</h1>
<dl>
{{- range .Meta}}
<dt>{{index . 0}}</dt><dd>{{index . 1}}</dd>
{{- end}}
</dl>
{{.Body}}
</article>
</body>
</html>
`))

// HTML renders the article body from markdown and sanitizes it before embedding.
func HTML(a *models.KnowledgeArticle) ([]byte, error) {
	var md bytes.Buffer
	if err := renderer.Convert([]byte(a.Content), &md); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	body := policy.SanitizeBytes(md.Bytes())

	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		Title string
		Meta  [][2]string
		Body  template.HTML
	}{
		Title: a.Title,
		Meta:  metadata(a),
		Body:  template.HTML(body), //nolint:gosec // sanitized above
	})
	if err != nil {
		return nil, fmt.Errorf("executing page template: %w", err)
	}
	return buf.Bytes(), nil
}
