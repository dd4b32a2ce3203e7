// Package format builds the display strings shown next to upstream records.
package format

import (
	"strings"
	"time"

	"github.com/aldoetobex/legal-case-console/pkg/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DateLayout     = "January 2, 2006"
	DateTimeLayout = "January 2, 2006 at 3:04 PM"
	TimeLayout     = "03:04 PM"
	ShortLayout    = "1/2/2006"
)

var printer = message.NewPrinter(language.English)

// Currency renders centavos as Philippine pesos, e.g. "₱5,000.00".
func Currency(m models.Money) string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "₱" + printer.Sprintf("%d", v/100) + "." + twoDigits(v%100)
}

func twoDigits(n int64) string {
	return string([]byte{byte('0' + n/10), byte('0' + n%10)})
}

// upstream timestamps come in a few shapes depending on the column type
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07",
	"2006-01-02",
}

// ParseTime parses an upstream timestamp. Values without a zone are read in loc.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return t.In(loc), true
		}
	}
	return time.Time{}, false
}

// Date renders "January 2, 2006". Empty input gives "", unparsable input is returned as is.
func Date(s string, loc *time.Location) string {
	return layout(s, loc, DateLayout)
}

// DateTime renders "January 2, 2006 at 3:04 PM".
func DateTime(s string, loc *time.Location) string {
	return layout(s, loc, DateTimeLayout)
}

// Clock renders "03:04 PM" for the activity feed.
func Clock(s string, loc *time.Location) string {
	return layout(s, loc, TimeLayout)
}

// ShortDate renders "1/2/2006" for the activity feed.
func ShortDate(s string, loc *time.Location) string {
	return layout(s, loc, ShortLayout)
}

func layout(s string, loc *time.Location, l string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	t, ok := ParseTime(s, loc)
	if !ok {
		return s
	}
	return t.Format(l)
}

// FullName joins first, middle initial and last name: "Juan D. Cruz".
func FullName(first, middle, last string) string {
	mi := ""
	if m := strings.TrimSpace(middle); m != "" {
		r := []rune(m)
		mi = string(r[0]) + "."
	}
	return strings.Join(strings.Fields(first+" "+mi+" "+last), " ")
}

// ImageURL resolves an upstream-relative image path against the API origin.
// An empty path falls back to the default avatar.
func ImageURL(origin, path, fallback string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return fallback
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(path, "/")
}
