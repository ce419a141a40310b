package artifact

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"strings"
)

// Grid materializes the sparse cells into a dense rows×cols matrix of
// display text (translation preferred over original).
func (t *Table) Grid() [][]string {
	grid := make([][]string, t.Rows)
	for i := range grid {
		grid[i] = make([]string, t.Cols)
	}
	for _, c := range t.Cells {
		if c.Row < 0 || c.Row >= t.Rows || c.Col < 0 || c.Col >= t.Cols {
			continue
		}
		grid[c.Row][c.Col] = c.Display()
	}
	return grid
}

// CellAt returns the display text at (row, col), or "" when absent.
func (t *Table) CellAt(row, col int) string {
	for _, c := range t.Cells {
		if c.Row == row && c.Col == col {
			return c.Display()
		}
	}
	return ""
}

// ToCSV serializes the dense grid. Round-trips through ParseCSV.
func (t *Table) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range t.Grid() {
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush csv: %w", err)
	}
	return buf.String(), nil
}

// ParseCSV rebuilds a dense Table from CSV produced by ToCSV. Only
// non-empty cells are materialized.
func ParseCSV(data string) (*Table, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	t := &Table{Rows: len(records)}
	for ri, row := range records {
		if len(row) > t.Cols {
			t.Cols = len(row)
		}
		for ci, text := range row {
			if text == "" {
				continue
			}
			t.Cells = append(t.Cells, Cell{Row: ri, Col: ci, Text: text})
		}
	}
	return t, nil
}

// ToHTML renders the grid as a plain table element, first row as
// header. Cell text is escaped.
func (t *Table) ToHTML() string {
	var b strings.Builder
	b.WriteString("<table>\n")
	for ri, row := range t.Grid() {
		tag := "td"
		if ri == 0 {
			tag = "th"
		}
		b.WriteString("  <tr>")
		for _, cell := range row {
			fmt.Fprintf(&b, "<%s>%s</%s>", tag, html.EscapeString(cell), tag)
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>\n")
	return b.String()
}
