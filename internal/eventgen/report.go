package eventgen

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

const maxListedViolations = 20

// Report writes a colored summary of a run to w. verbose lists every
// violation instead of the first few.
func Report(w io.Writer, stats *Stats, verbose bool) {
	title := color.New(color.Bold)
	good := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	bad := color.New(color.FgRed, color.Bold)
	dim := color.New(color.FgHiBlack)

	pick := func(n int, c *color.Color) *color.Color {
		if n == 0 {
			return good
		}
		return c
	}

	_, _ = title.Fprintf(w, "hltjet event generator, stream %s\n", stats.StreamID)
	_, _ = dim.Fprintf(w, "  duration %s (submit %s, verify %s)\n",
		stats.Duration, stats.SubmitDuration, stats.VerifiedDuration)

	_, _ = fmt.Fprintf(w, "  generated  %d\n", stats.EventsGenerated)
	_, _ = good.Fprintf(w, "  accepted   %d\n", stats.EventsAccepted)
	_, _ = pick(stats.EventsDuplicate, warn).Fprintf(w, "  duplicate  %d\n", stats.EventsDuplicate)
	_, _ = pick(stats.EventsFailed, bad).Fprintf(w, "  failed     %d\n", stats.EventsFailed)
	_, _ = good.Fprintf(w, "  products   %d\n", stats.ProductsFetched)
	_, _ = pick(stats.ProductsMissing, bad).Fprintf(w, "  missing    %d\n", stats.ProductsMissing)

	if stats.Duration > 0 {
		_, _ = fmt.Fprintf(w, "  rate       %.1f events/s\n", float64(stats.EventsSubmitted)/stats.Duration.Seconds())
	}
	_, _ = fmt.Fprintf(w, "  jets       %d timed, %d untimed, %d kept by di-tau cleaning\n",
		stats.JetsTimed, stats.JetsUntimed, stats.JetsKept)

	if len(stats.Violations) == 0 {
		_, _ = good.Fprintln(w, "  all product invariants hold")
		return
	}
	_, _ = bad.Fprintf(w, "  %d invariant violations\n", len(stats.Violations))
	for i, v := range stats.Violations {
		if !verbose && i == maxListedViolations {
			_, _ = dim.Fprintf(w, "    ... %d more\n", len(stats.Violations)-i)
			break
		}
		_, _ = bad.Fprintf(w, "    %s\n", v)
	}
}
