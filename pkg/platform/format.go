package platform

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseFormat maps a tool input string to a Format, defaulting to JSON.
func ParseFormat(s string) Format {
	if s == "" {
		return FormatJSON
	}
	return Format(s)
}

// FormatObject pretty-prints a single decoded JSON value.
func FormatObject(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode result: %w", err)
	}
	return string(data), nil
}

// FormatListing renders a paginated API result ({count, results}) in the
// requested encoding. fields is the ordered subset of item fields shown by
// the text and table encodings; the JSON encoding is a passthrough.
func FormatListing(v any, fields []string, format Format) (string, error) {
	if format == FormatJSON || format == "" {
		return FormatObject(v)
	}

	count, items := paginatedItems(v)

	switch format {
	case FormatText:
		return formatTextBlocks(count, items, fields), nil
	case FormatTable:
		return formatTable(count, items, fields), nil
	default:
		return "", &ValidationError{Msg: fmt.Sprintf("unknown output format %q", format)}
	}
}

// paginatedItems extracts count and results from a decoded listing. A bare
// array is treated as a single full page.
func paginatedItems(v any) (int, []map[string]any) {
	var raw []any
	count := -1
	switch vv := v.(type) {
	case map[string]any:
		if c, ok := vv["count"].(float64); ok {
			count = int(c)
		}
		raw, _ = vv["results"].([]any)
	case []any:
		raw = vv
	}
	items := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]any); ok {
			items = append(items, m)
		}
	}
	if count < 0 {
		count = len(items)
	}
	return count, items
}

func formatTextBlocks(count int, items []map[string]any, fields []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, f := range fields {
			fmt.Fprintf(&b, "%s: %s\n", f, cellValue(item[f]))
		}
	}
	if len(items) == 0 {
		b.WriteString("No results.\n")
	}
	appendPaginationNote(&b, count, len(items))
	return b.String()
}

func formatTable(count int, items []map[string]any, fields []string) string {
	// Column width is the widest cell in the column, header included.
	widths := make([]int, len(fields))
	for i, f := range fields {
		widths[i] = len(f)
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = cellValue(item[f])
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
		rows = append(rows, row)
	}

	renderRow := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, renderRow(fields))
	separators := make([]string, len(fields))
	for i := range fields {
		separators[i] = strings.Repeat("-", widths[i])
	}
	lines = append(lines, renderRow(separators))
	for _, row := range rows {
		lines = append(lines, renderRow(row))
	}

	var b strings.Builder
	b.WriteString(strings.Join(lines, "\n"))
	appendPaginationNote(&b, count, len(items))
	return b.String()
}

func appendPaginationNote(b *strings.Builder, count, shown int) {
	if count > shown {
		fmt.Fprintf(b, "\nShowing %d of %d results. Use the page parameter to fetch more.\n", shown, count)
	}
}

// cellValue renders a decoded JSON value for display. Whole-number floats
// come out of encoding/json for every integer field, so they are rendered
// without the decimal point.
func cellValue(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case float64:
		if vv == float64(int64(vv)) {
			return strconv.FormatInt(int64(vv), 10)
		}
		return strconv.FormatFloat(vv, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(vv)
	default:
		data, err := json.Marshal(vv)
		if err != nil {
			return fmt.Sprintf("%v", vv)
		}
		return string(data)
	}
}
