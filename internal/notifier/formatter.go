package notifier

import (
	"fmt"
	"html"
	"strings"
)

// BuildSummary describes the outcome of one dataset build.
type BuildSummary struct {
	RunID       string
	OutputDir   string
	Instruments int
	Days        int
	Columns     int
	FirstDate   string
	LastDate    string
	Fallbacks   []string // tickers labelled with their own symbol
}

// FormatBuildReport formats a finished build into a Telegram message.
func FormatBuildReport(sum *BuildSummary) string {
	var b strings.Builder

	b.WriteString("✅ <b>Benchmark build finished</b>\n\n")
	b.WriteString(fmt.Sprintf("Run: %s\n", html.EscapeString(sum.RunID)))
	b.WriteString(fmt.Sprintf("Metadata: %d instruments\n", sum.Instruments))
	b.WriteString(fmt.Sprintf("Prices: %d days × %d tickers\n", sum.Days, sum.Columns))
	if sum.FirstDate != "" {
		b.WriteString(fmt.Sprintf("From %s to %s\n", sum.FirstDate, sum.LastDate))
	}
	b.WriteString(fmt.Sprintf("Output: %s\n", html.EscapeString(sum.OutputDir)))

	if len(sum.Fallbacks) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ Unresolved names: %s\n", html.EscapeString(strings.Join(sum.Fallbacks, ", "))))
	}
	return b.String()
}

// FormatBuildFailure formats a failed build. The error text is HTML-escaped
// since messages are sent with parse_mode HTML.
func FormatBuildFailure(err error) string {
	return fmt.Sprintf("❌ <b>Benchmark build failed</b>\n\n%s", html.EscapeString(err.Error()))
}
