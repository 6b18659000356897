// Package export renders a knowledge article as a downloadable document.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"kbconsole/models"
)

// Format is a supported export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat accepts the format names and their usual short forms.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md", "":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Result is a rendered document ready to be sent as an attachment.
type Result struct {
	Content  []byte
	MimeType string
	Filename string
}

// Render produces article in format.
func Render(article *models.KnowledgeArticle, format Format) (*Result, error) {
	base := Slug(article.Title)
	switch format {
	case FormatMarkdown:
		content, err := Markdown(article)
		if err != nil {
			return nil, err
		}
		return &Result{Content: content, MimeType: "text/markdown; charset=utf-8", Filename: base + ".md"}, nil
	case FormatHTML:
		content, err := HTML(article)
		if err != nil {
			return nil, err
		}
		return &Result{Content: content, MimeType: "text/html; charset=utf-8", Filename: base + ".html"}, nil
	case FormatPDF:
		content, err := PDF(article)
		if err != nil {
			return nil, err
		}
		return &Result{Content: content, MimeType: "application/pdf", Filename: base + ".pdf"}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a title into a filename stem.
func Slug(title string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if len(s) > 80 {
		s = strings.TrimRight(s[:80], "-")
	}
	if s == "" {
		return "article"
	}
	return s
}

// metadata is the ordered list of fields shown above the body.
func metadata(a *models.KnowledgeArticle) [][2]string {
	rows := [][2]string{
		{"Category", string(a.Category)},
		{"Status", string(a.ApprovalStatus)},
		{"Version", fmt.Sprintf("%d", a.Version)},
		{"Author", a.AuthorID},
		{"Updated", a.UpdatedAt.UTC().Format("2006-01-02 15:04 MST")},
	}
	if len(a.Tags) > 0 {
		rows = append(rows, [2]string{"Tags", strings.Join(a.Tags, ", ")})
	}
	return rows
}

func writeLine(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte('\n')
}
