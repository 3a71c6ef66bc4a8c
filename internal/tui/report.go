package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lu-zhengda/topsenders/internal/domain"
)

// RenderReport summarizes a bulk mutation, one line per sender in the order
// they were processed, followed by every failed batch.
func RenderReport(r *domain.MutationReport) string {
	var b strings.Builder
	for _, sender := range r.Order {
		res := r.PerSender[sender]
		switch {
		case res.Err != nil:
			fmt.Fprintf(&b, "%s %s: %v\n", errorTextStyle.Render("✗"), sender, res.Err)
		case res.Failed > 0:
			fmt.Fprintf(&b, "%s %s: marked %s of %s as %s, %s failed (%s)\n",
				errorTextStyle.Render("!"), sender,
				humanize.Comma(int64(res.Mutated)), humanize.Comma(int64(res.Found)),
				r.Target, humanize.Comma(int64(res.Failed)), res.Duration.Round(10*time.Millisecond))
			for _, f := range res.Failures {
				fmt.Fprintf(&b, "    %s\n", mutedTextStyle.Render(f.Error()))
			}
		default:
			fmt.Fprintf(&b, "%s %s: marked %s emails as %s (%s)\n",
				successTextStyle.Render("✓"), sender,
				humanize.Comma(int64(res.Mutated)), r.Target, res.Duration.Round(10*time.Millisecond))
		}
	}

	found, mutated, failed := r.Totals()
	fmt.Fprintf(&b, "%s %s found, %s marked %s, %s failed\n",
		titleStyle.Render("Total:"),
		humanize.Comma(int64(found)), humanize.Comma(int64(mutated)), r.Target, humanize.Comma(int64(failed)))
	return b.String()
}
