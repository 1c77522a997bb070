package engine

import (
	"context"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/memstore/internal/model"
)

const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "md"
)

// Export serializes every record in log order. An empty format uses the
// configured default; unknown formats produce Markdown.
func (e *Engine) Export(ctx context.Context, format string) (string, error) {
	if format == "" {
		format = e.cfg.DefaultExportFormat
	}
	records, err := e.load(ctx)
	if err != nil {
		return "", err
	}

	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	case FormatYAML:
		b, err := yaml.Marshal(records)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return markdown(records), nil
}

func markdown(records []model.Record) string {
	var b strings.Builder
	b.WriteString("# Agent Memory Export\n")
	for _, r := range records {
		b.WriteString("\n## ")
		b.WriteString(r.ID)
		b.WriteString(" (")
		b.WriteString(headingTime(r.Timestamp))
		b.WriteString(")\n")
		if len(r.Tags) > 0 {
			b.WriteString("**Tags:** ")
			b.WriteString(strings.Join(r.Tags, ", "))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(r.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// headingTime renders an RFC 3339 timestamp as "YYYY-MM-DD HH:MM:SS".
func headingTime(ts string) string {
	if len(ts) > 19 {
		ts = ts[:19]
	}
	return strings.Replace(ts, "T", " ", 1)
}
