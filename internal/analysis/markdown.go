package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	maxCorrPairs = 10
	maxCellWidth = 80
)

// Markdown renders the report as a standalone document. Sections without
// content are left out.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Dataset profile\n\n")
	if r.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", r.Name)
	}
	fmt.Fprintf(&b, "Rows: %d\nColumns: %d\n", r.Rows, len(r.Cols))

	b.WriteString("\n## Schema\n\n")
	schema := make([][]string, 0, len(r.Cols))
	for _, c := range r.Cols {
		schema = append(schema, []string{safeName(c.Name), c.Kind, fmt.Sprint(c.NonNull), missingShare(c), c.detail()})
	}
	writeTable(&b, []string{"Column", "Kind", "Non-null", "Missing", "Summary"}, schema)

	if len(r.Groups) > 0 {
		b.WriteString("\n## Group-by summary\n\n")
		writeTable(&b, r.groupHeader(), r.groupRows())
	}
	if pairs := r.Corr.strongest(maxCorrPairs); len(pairs) > 0 {
		b.WriteString("\n## Correlations\n\n")
		for _, p := range pairs {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", p.a, p.b, p.r)
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n## Sample rows\n\n")
		header := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			header[i] = safeName(c.Name)
		}
		writeTable(&b, header, r.Samples)
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func missingShare(c ColumnSummary) string {
	total := c.NonNull + c.Missing
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(c.Missing)*100/float64(total))
}

// detail is the kind-specific part of a schema row.
func (c ColumnSummary) detail() string {
	switch c.Kind {
	case "numeric":
		s := fmt.Sprintf("min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std)
		if c.OutlierThreshold > 0 {
			s += fmt.Sprintf("; %d outliers at |z|>%.1f", c.OutliersCount, c.OutlierThreshold)
		}
		return s
	case "datetime":
		days := int(c.Last.Sub(c.First).Hours()/24) + 1
		return fmt.Sprintf("%s to %s (%d days)", c.First.Format("2006-01-02"), c.Last.Format("2006-01-02"), days)
	case "categorical":
		parts := make([]string, len(c.TopValues))
		for i, kv := range c.TopValues {
			parts[i] = fmt.Sprintf("%s (%d)", kv.Value, kv.Count)
		}
		s := strings.Join(parts, ", ")
		if c.Unique > len(c.TopValues) {
			s += fmt.Sprintf("; %d distinct", c.Unique)
		}
		return s
	case "text":
		return "e.g. " + strings.Join(c.ExampleTexts, "; ")
	}
	return ""
}

// groupHeader lists the numeric columns seen in any group, in name order.
func (r *Report) groupHeader() []string {
	seen := map[string]bool{}
	var metrics []string
	for _, g := range r.Groups {
		for k := range g.Metrics {
			if !seen[k] {
				seen[k] = true
				metrics = append(metrics, k)
			}
		}
	}
	sort.Strings(metrics)
	header := []string{"Group", "Rows"}
	for _, m := range metrics {
		header = append(header, m+" mean", m+" range")
	}
	return header
}

func (r *Report) groupRows() [][]string {
	header := r.groupHeader()
	rows := make([][]string, 0, len(r.Groups))
	for _, g := range r.Groups {
		row := []string{g.Key, fmt.Sprint(g.Size)}
		for i := 2; i < len(header); i += 2 {
			m, ok := g.Metrics[strings.TrimSuffix(header[i], " mean")]
			if !ok {
				row = append(row, "", "")
				continue
			}
			row = append(row, fmt.Sprintf("%.4g", m.Mean), fmt.Sprintf("%.4g..%.4g", m.Min, m.Max))
		}
		rows = append(rows, row)
	}
	return rows
}

type corrPair struct {
	a, b string
	r    float64
}

// strongest returns up to limit column pairs by descending |r|.
func (m *CorrMatrix) strongest(limit int) []corrPair {
	if m == nil || len(m.Columns) < 2 {
		return nil
	}
	var pairs []corrPair
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			pairs = append(pairs, corrPair{m.Columns[i], m.Columns[j], m.Values[i][j]})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].r) > math.Abs(pairs[j].r)
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

func writeTable(b *strings.Builder, header []string, rows [][]string) {
	writeRow(b, header)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(b, sep)
	for _, row := range rows {
		cells := make([]string, len(header))
		copy(cells, row)
		writeRow(b, cells)
	}
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		c = safeVal(c)
		if len(c) > maxCellWidth {
			c = c[:maxCellWidth-3] + "..."
		}
		b.WriteString(" " + c + " |")
	}
	b.WriteString("\n")
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
