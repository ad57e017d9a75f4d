package formatter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/desertthunder/stagelog/internal/models"
)

// PerformanceTable writes one row per performance: ID, Title, Dates, Status.
func PerformanceTable(w io.Writer, items []models.PerformanceListItem, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tDATES\tSTATUS")
	for _, p := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.Title, FormatDateRange(p.StartDate, p.EndDate), Status(p.StartDate, p.EndDate, now))
	}
	return tw.Flush()
}

// PerformanceText renders a detail view as labelled lines. Empty fields are
// omitted.
func PerformanceText(d models.PerformanceDetail, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (#%d)\n", d.Title, d.ID)

	line := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		fmt.Fprintf(&b, "  %-8s %s\n", label+":", value)
	}

	line("Dates", FormatDateRange(d.StartDate, d.EndDate))
	line("Status", string(Status(d.StartDate, d.EndDate, now)))
	line("D-Day", DDay(d.StartDate, now))
	line("Venue", d.Place)
	line("Times", d.StartTimeGuide)
	line("Runtime", d.Runtime)
	line("Cast", strings.Join(d.Cast, ", "))
	line("Price", d.TicketPrice)
	line("Tickets", strings.TrimSpace(d.TicketVendor+" "+d.TicketURL))
	line("Poster", d.PosterURL)
	return b.String()
}

// CalendarText groups calendar entries under the month heading.
func CalendarText(year, month int, items []models.CalendarPerformance) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", FormatYearMonth(year, month))
	if len(items) == 0 {
		b.WriteString("  no performances\n")
		return b.String()
	}
	for _, p := range items {
		fmt.Fprintf(&b, "  %-23s %s (#%d)\n", FormatDateRange(p.StartDate, p.EndDate), p.Title, p.ID)
	}
	return b.String()
}

// PlainText extracts the visible text of review HTML with runs of whitespace
// collapsed. The result is for previews only.
func PlainText(content string) string {
	z := html.NewTokenizer(strings.NewReader(content))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				b.WriteByte(' ')
			}
		}
	}
}

var blockTags = map[string]bool{
	"p": true, "br": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "blockquote": true, "pre": true,
}

// Excerpt returns at most n characters of the plain text, marked with "..."
// when cut.
func Excerpt(content string, n int) string {
	text := PlainText(content)
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	r := []rune(text)
	return strings.TrimSpace(string(r[:n])) + "..."
}
