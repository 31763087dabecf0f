// Package consoletable prints aligned tables on the console.
package consoletable

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	defaultMargin      = 2
	defaultIndentation = 4
)

// Bytes renders as a human readable size, e.g. "8.0 MiB".
type Bytes uint64

// Table prints formatted tables on the console.
type Table struct {
	// Margin between columns
	Margin int
	// Indentation of the first column
	Indentation int

	// Target for output
	Target io.Writer

	cells   [][]any
	columns int
	title   string
}

// New returns a new console table.
func New(title string, columns int) Table {
	t := Table{
		Margin:      defaultMargin,
		Indentation: defaultIndentation,
		Target:      os.Stdout,
		columns:     columns,
		cells:       make([][]any, 0),
		title:       title,
	}
	return t
}

// AddRow adds a row to the table. The first row is treated as header.
func (t *Table) AddRow(r []any) {
	if len(r) != t.columns {
		panic(fmt.Sprintf("added rows need to have %d columns", t.columns))
	}
	t.cells = append(t.cells, r)
}

// Print prints the table on the console.
func (t *Table) Print() {
	fmt.Fprintf(t.Target, "%s:\n\n", t.title)
	cols := make([]int, len(t.cells[0]))
	for _, row := range t.cells {
		for i, v := range row {
			cols[i] = max(cols[i], len(renderCell(v)))
		}
	}
	printRow := func(row []any) {
		fmt.Fprint(t.Target, strings.Repeat(" ", t.Indentation))
		margin := strings.Repeat(" ", t.Margin)
		for i, v := range row {
			switch v.(type) {
			case int, Bytes:
				fmt.Fprintf(t.Target, "%*s%s", cols[i], renderCell(v), margin)
			default:
				fmt.Fprintf(t.Target, "%-*s%s", cols[i], renderCell(v), margin)
			}
		}
		fmt.Fprintln(t.Target)
	}
	printRow(t.cells[0])
	h := make([]any, len(t.cells[0]))
	for i := 0; i < len(h); i++ {
		h[i] = strings.Repeat("-", cols[i])
	}
	printRow(h)
	for _, r := range t.cells[1:] {
		printRow(r)
	}
}

func renderCell(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return humanize.Comma(int64(x))
	case Bytes:
		return humanize.IBytes(uint64(x))
	case bool:
		if x {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(v)
	}
}
