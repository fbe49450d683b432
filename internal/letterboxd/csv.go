package letterboxd

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/afero"
)

// ParsedRow is one imported film.
type ParsedRow struct {
	Title string `json:"title"`
	Year  string `json:"year,omitempty"`
}

// Label renders the row the way it appears in the export.
func (r ParsedRow) Label() string {
	if r.Year == "" {
		return r.Title
	}
	return r.Title + " (" + r.Year + ")"
}

// ReadCSV loads and parses an export file.
func ReadCSV(fs afero.Fs, path string) ([]ParsedRow, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read letterboxd export: %w", err)
	}
	return ParseCSV(string(data)), nil
}

// ParseCSV parses export content. The first non-blank line is the header; the
// title column is the first header containing "title" or "name" (column 0 when
// none does) and the year column the first containing "year". Rows without a
// title are dropped.
func ParseCSV(content string) []ParsedRow {
	lines := splitLines(content)
	if len(lines) == 0 {
		return nil
	}

	titleIndex, yearIndex := -1, -1
	for i, header := range splitFields(lines[0]) {
		header = strings.ToLower(header)
		if titleIndex < 0 && (strings.Contains(header, "title") || strings.Contains(header, "name")) {
			titleIndex = i
		}
		if yearIndex < 0 && strings.Contains(header, "year") {
			yearIndex = i
		}
	}
	if titleIndex < 0 {
		titleIndex = 0
	}

	rows := make([]ParsedRow, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := splitFields(line)
		title := strings.TrimSpace(field(fields, titleIndex))
		if title == "" {
			continue
		}
		row := ParsedRow{Title: title}
		if yearIndex >= 0 {
			row.Year = strings.TrimSpace(field(fields, yearIndex))
		}
		rows = append(rows, row)
	}
	return rows
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimFunc(line, isTrimmable)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// isTrimmable treats a byte order mark like surrounding whitespace.
func isTrimmable(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// splitFields splits one line on commas. Double quotes toggle quoting and a
// doubled quote inside a quoted field is a literal quote.
func splitFields(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(fields, current.String())
}

func field(fields []string, index int) string {
	if index < 0 || index >= len(fields) {
		return ""
	}
	return fields[index]
}
