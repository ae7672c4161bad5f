// Package display renders aligned terminal tables for output that mixes
// Latin and East Asian scripts, where rune counts undercount cell widths.
package display

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/width"
)

// Width returns the number of terminal cells s occupies. East Asian wide
// and fullwidth runes take two cells.
func Width(s string) int {
	cells := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			cells += 2
		default:
			cells++
		}
	}
	return cells
}

// Pad right-pads s with spaces to at least w terminal cells.
func Pad(s string, w int) string {
	gap := w - Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

// Table accumulates rows and renders them as cell-width aligned columns
// separated by two spaces.
type Table struct {
	rows [][]string
}

// Row appends one table row.
func (t *Table) Row(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes every accumulated row with columns padded to the widest
// cell seen in that column. The last cell of each row is never padded.
func (t *Table) Render(w io.Writer) error {
	var widths []int
	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if cw := Width(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	var b strings.Builder
	for _, row := range t.rows {
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				continue
			}
			b.WriteString(Pad(cell, widths[i]+2))
		}
		b.WriteByte('\n')
	}
	_, err := fmt.Fprint(w, b.String())
	return err
}
