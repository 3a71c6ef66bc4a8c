package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/lu-zhengda/topsenders/internal/app"
)

const (
	colIndex = iota
	colSender
	colCount
	colLink
)

// noLink fills the unsubscribe column for senders without a link.
const noLink = "-"

// RenderSenders draws the ranked table. Rows are numbered by their current
// display position, which is what selections refer to.
func RenderSenders(entries []app.Entry) string {
	rows := make([][]string, len(entries))
	for i, e := range entries {
		link := e.UnsubscribeLink
		if link == "" {
			link = noLink
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			string(e.Key),
			humanize.Comma(int64(e.Count)),
			link,
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tableBorderStyle).
		Headers("#", "Sender", "Count", "Unsubscribe").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			switch col {
			case colCount:
				return countStyle
			case colLink:
				if row >= 0 && row < len(rows) && rows[row][colLink] == noLink {
					return mutedTextStyle.Padding(0, 1)
				}
				return linkStyle
			}
			return cellStyle
		})
	return t.Render()
}

// RenderUnsubscribeListings lists each message's unsubscribe targets.
func RenderUnsubscribeListings(listings []app.UnsubscribeListing) string {
	var b strings.Builder
	for i, l := range listings {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(titleStyle.Render("Unsubscribe links for message " + l.MessageID + ":"))
		b.WriteString("\n")
		for _, link := range l.Links {
			b.WriteString("  " + link + "\n")
		}
	}
	return b.String()
}
