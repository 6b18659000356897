package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"kbconsole/models"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

type frontMatter struct {
	ID             string    `yaml:"id"`
	Title          string    `yaml:"title"`
	Category       string    `yaml:"category"`
	Tags           []string  `yaml:"tags,omitempty"`
	ApprovalStatus string    `yaml:"approval_status"`
	Version        int       `yaml:"version"`
	Author         string    `yaml:"author"`
	UpdatedAt      time.Time `yaml:"updated_at"`
}

// Markdown renders the article with YAML front matter and a metadata table.
func Markdown(a *models.KnowledgeArticle) ([]byte, error) {
	fm, err := yaml.Marshal(frontMatter{
		ID:             a.ID,
		Title:          a.Title,
		Category:       string(a.Category),
		Tags:           a.Tags,
		ApprovalStatus: string(a.ApprovalStatus),
		Version:        a.Version,
		Author:         a.AuthorID,
		UpdatedAt:      a.UpdatedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}

	var buf bytes.Buffer
	writeLine(&buf, "---")
	buf.Write(fm)
	writeLine(&buf, "---")
	writeLine(&buf, "")
	writeLine(&buf, "# "+a.Title)
	writeLine(&buf, "")

	rows := [][]string{{"Field", "Value"}}
	for _, m := range metadata(a) {
		rows = append(rows, []string{m[0], escapeCell(m[1])})
	}
	for _, line := range alignTable(rows) {
		writeLine(&buf, line)
	}
	writeLine(&buf, "")

	body := strings.TrimRight(a.Content, "\n")
	if body != "" {
		writeLine(&buf, body)
	}
	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// alignTable renders rows as a pipe table, header first, with every column padded
// to its widest cell by display width.
func alignTable(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	colCount := 0
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	widths := make([]int, colCount)
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	line := func(row []string) string {
		var sb strings.Builder
		sb.WriteString("|")
		for j := 0; j < colCount; j++ {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			sb.WriteString(" ")
			sb.WriteString(runewidth.FillRight(cell, widths[j]))
			sb.WriteString(" |")
		}
		return sb.String()
	}

	out := make([]string, 0, len(rows)+1)
	out = append(out, line(rows[0]))
	sep := make([]string, colCount)
	for j := range sep {
		sep[j] = strings.Repeat("-", widths[j])
	}
	out = append(out, line(sep))
	for _, row := range rows[1:] {
		out = append(out, line(row))
	}
	return out
}
