package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bunchhieng/uuidspace/internal/model"
	"github.com/mattn/go-runewidth"
)

const ellipsis = "..."

type alignment int

const (
	alignLeft alignment = iota
	alignRight
)

type column struct {
	title string
	color string
	max   int // 0 means unbounded
	align alignment
}

// printTable draws rows in a box with a bold header. Widths are measured in
// terminal cells.
func printTable(w io.Writer, cols []column, rows [][]string) error {
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = runewidth.StringWidth(col.title)
	}
	for _, row := range rows {
		for i := range cols {
			n := runewidth.StringWidth(row[i])
			if cols[i].max > 0 && n > cols[i].max {
				n = cols[i].max
			}
			if n > widths[i] {
				widths[i] = n
			}
		}
	}

	// one space of padding each side
	total := len(cols) - 1
	for _, n := range widths {
		total += n + 2
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s┌%s┐%s\n", colorDim, strings.Repeat("─", total), colorReset)

	b.WriteString(colorDim + "│" + colorReset)
	for i, col := range cols {
		fmt.Fprintf(&b, " %s%s%s ", colorBold, pad(col.title, widths[i], alignLeft), colorReset)
		b.WriteString(colorDim + "│" + colorReset)
	}
	b.WriteByte('\n')

	b.WriteString(colorDim + "├")
	for i, n := range widths {
		if i > 0 {
			b.WriteString("┼")
		}
		b.WriteString(strings.Repeat("─", n+2))
	}
	b.WriteString("┤" + colorReset + "\n")

	for _, row := range rows {
		b.WriteString(colorDim + "│" + colorReset)
		for i, col := range cols {
			cell := pad(truncate(row[i], widths[i]), widths[i], col.align)
			fmt.Fprintf(&b, " %s%s%s ", col.color, cell, colorReset)
			b.WriteString(colorDim + "│" + colorReset)
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "%s└%s┘%s\n", colorDim, strings.Repeat("─", total), colorReset)

	_, err := io.WriteString(w, b.String())
	return err
}

func pad(s string, width int, align alignment) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	if align == alignRight {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, ellipsis)
}

func printFavoritesTable(w io.Writer, favs []*model.Favorite) error {
	rows := make([][]string, len(favs))
	for i, f := range favs {
		index := f.Index
		if index == "" {
			index = "-"
		}
		rows[i] = []string{f.Identifier, f.Format, index, formatTime(f.CreatedAt), f.Note}
	}
	return printTable(w, []column{
		{title: "IDENTIFIER", color: colorBold + colorCyan},
		{title: "FORMAT"},
		{title: "INDEX", color: colorDim, max: 40, align: alignRight},
		{title: "STARRED", color: colorDim},
		{title: "NOTE", color: colorYellow, max: 30},
	}, rows)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
