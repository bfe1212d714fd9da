package report

import (
	"fmt"
	"strings"

	"github.com/yourorg/lof-premium/internal/model"
)

// Render formats the report as the human-readable text block the CLI prints.
// It carries the generation timestamp, success/failure counts and rate, the
// representative NAV date, the watchlist section and the top section.
func Render(rep *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Generated at: %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Premium funds: %d, data success rate: %d/%d (%.1f%%)\n",
		len(rep.Premiums), rep.Stats.Succeeded, rep.Stats.Submitted(), rep.Stats.SuccessRate())
	if rep.NavDate != "" {
		fmt.Fprintf(&b, "NAV as-of date (T-1): %s\n", rep.NavDate)
	}

	if len(rep.Watchlist) > 0 {
		b.WriteString("\nWatchlist:\n")
		for i, entry := range rep.Watchlist {
			switch entry.State {
			case model.WatchMatched:
				fmt.Fprintf(&b, "  %2d. %s %s premium %.2f%%\n",
					i+1, entry.Record.Code, entry.Record.Name, entry.Record.PremiumRate)
			case model.WatchDiscounted:
				fmt.Fprintf(&b, "  %2d. %s: trading at a discount, not in premium list\n", i+1, entry.Code)
			default:
				fmt.Fprintf(&b, "  %2d. %s: no data obtained (fetch may have failed)\n", i+1, entry.Code)
			}
		}
	}

	if len(rep.Top) > 0 {
		fmt.Fprintf(&b, "\nTop %d premiums:\n", len(rep.Top))
		for i, rec := range rep.Top {
			fmt.Fprintf(&b, "  %2d. %s %s premium %.2f%%\n", i+1, rec.Code, rec.Name, rec.PremiumRate)
		}
	}

	return b.String()
}
