package formatter

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2).
		PaddingTop(1).
		PaddingBottom(1)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

var printer = message.NewPrinter(language.English)

// Money renders an amount with thousands separators and two decimals,
// e.g. 1234567.5 → "1,234,567.50". The fraction comes from the decimal's
// own string form so no float conversion is involved.
func Money(d decimal.Decimal) string {
	return grouped(d, 2)
}

// Quantity renders a quantity with up to four decimals and grouping.
func Quantity(d decimal.Decimal) string {
	return grouped(d, 4)
}

// Pct renders a percentage with two decimals, e.g. "12.50%".
func Pct(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

// grouped formats d with grouped integer digits. Money keeps trailing zeros;
// quantities drop them.
func grouped(d decimal.Decimal, places int32) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(places)
	intPart, frac, _ := strings.Cut(s, ".")
	if places > 2 {
		frac = strings.TrimRight(frac, "0")
	}

	n := decimal.RequireFromString(intPart)
	out := intPart
	if n.LessThan(decimal.New(1, 18)) {
		out = printer.Sprintf("%d", n.IntPart())
	}
	if frac != "" {
		out += "." + frac
	}
	if neg && !d.Round(places).IsZero() {
		out = "-" + out
	}
	return out
}

// Date renders a timestamp as a calendar date, or "--" when nil.
func Date(t *time.Time) string {
	if t == nil {
		return "--"
	}
	return t.Format("2006-01-02")
}

// TruncID returns the first 8 characters of an id.
func TruncID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
