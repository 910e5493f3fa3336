package cli

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bunchhieng/linkdir/internal/model"
)

const (
	maxURLLen   = 50
	maxTitleLen = 36
	ellipsis    = "..."
)

func (c *Commands) printLinksTable(records []model.LinkRecord) {
	// Column widths start at the header width.
	colID := len("ID")
	colTitle := len("TITLE")
	colCategory := len("CATEGORY")
	colClicks := len("CLICKS")
	colURL := len("URL")

	for _, l := range records {
		colID = max(colID, utf8.RuneCountInString(l.ID))
		colTitle = max(colTitle, min(utf8.RuneCountInString(l.Title), maxTitleLen))
		colCategory = max(colCategory, utf8.RuneCountInString(l.CategoryID))
		colClicks = max(colClicks, len(fmt.Sprint(l.ClickCount)))
		colURL = max(colURL, min(utf8.RuneCountInString(l.URL), maxURLLen))
	}

	widths := []int{colID, colTitle, colCategory, colClicks, colURL}

	c.printBorder("┌", "┬", "┐", widths)
	c.printRow(widths, []string{"ID", "TITLE", "CATEGORY", "CLICKS", "URL"},
		[]string{colorBold, colorBold, colorBold, colorBold, colorBold})
	c.printBorder("├", "┼", "┤", widths)

	for _, l := range records {
		c.printRow(widths,
			[]string{
				l.ID,
				truncateString(l.Title, colTitle),
				l.CategoryID,
				fmt.Sprint(l.ClickCount),
				truncateString(l.URL, colURL),
			},
			[]string{colorBold + colorCyan, "", colorYellow, colorDim, colorCyan})
	}

	c.printBorder("└", "┴", "┘", widths)
}

func (c *Commands) printBorder(left, mid, right string, widths []int) {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w+2)
	}
	fmt.Fprintln(c.out, c.paint(colorDim, left+strings.Join(parts, mid)+right))
}

func (c *Commands) printRow(widths []int, cells, colors []string) {
	sep := c.paint(colorDim, "│")
	var b strings.Builder
	b.WriteString(sep)
	for i, cell := range cells {
		pad := widths[i] - utf8.RuneCountInString(cell)
		if colors[i] != "" {
			cell = c.paint(colors[i], cell)
		}
		b.WriteString(" ")
		b.WriteString(cell)
		b.WriteString(strings.Repeat(" ", max(pad, 0)))
		b.WriteString(" ")
		b.WriteString(sep)
	}
	fmt.Fprintln(c.out, b.String())
}

func truncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= len(ellipsis) {
		return string([]rune(s)[:maxLen])
	}
	return string([]rune(s)[:maxLen-len(ellipsis)]) + ellipsis
}
