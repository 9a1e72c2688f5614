package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// DateFormat is the storage format for DATE fields; TimestampFormat for
// TIMESTAMP fields and server-managed stamps.
const (
	DateFormat      = "2006-01-02"
	TimestampFormat = "2006-01-02T15:04:05"
)

var digitsOnlyRe = regexp.MustCompile(`^\d{6,8}$`)

// ParseUserDate accepts flexible user date input and returns an ISO date
// (YYYY-MM-DD), or "" when the input cannot be read as a date. Field
// recorders write day-first:
//   - 6 digits: DDMMYY (020286 -> 1986-02-02, years <50 are 20xx)
//   - 8 digits: DDMMYYYY
//   - otherwise: lenient parse, preferring day-first for ambiguous input
func ParseUserDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if digitsOnlyRe.MatchString(s) {
		switch len(s) {
		case 6:
			dd, _ := strconv.Atoi(s[0:2])
			mm, _ := strconv.Atoi(s[2:4])
			yy, _ := strconv.Atoi(s[4:6])
			year := 2000 + yy
			if yy >= 50 {
				year = 1900 + yy
			}
			return isoOrEmpty(year, mm, dd)
		case 8:
			dd, _ := strconv.Atoi(s[0:2])
			mm, _ := strconv.Atoi(s[2:4])
			yyyy, _ := strconv.Atoi(s[4:8])
			return isoOrEmpty(yyyy, mm, dd)
		default:
			return ""
		}
	}

	// Day-first layouts common on paper forms.
	for _, layout := range []string{
		"02/01/2006", "2/1/2006", "02-01-2006", "2-1-2006",
		"02.01.2006", "2.1.2006", "02/01/06", "2/1/06",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateFormat)
		}
	}

	if t, err := dateparse.ParseAny(s); err == nil {
		return t.Format(DateFormat)
	}
	return ""
}

// ParseUserTimestamp normalizes a user-entered date to a midnight timestamp.
// Users shouldn't need to type timestamps; a plain date is accepted.
func ParseUserTimestamp(raw string) string {
	d := ParseUserDate(raw)
	if d == "" {
		return ""
	}
	return d + "T00:00:00"
}

// NowTimestamp formats the current server time for server-managed columns.
func NowTimestamp() string {
	return time.Now().Format(TimestampFormat)
}

func isoOrEmpty(year, month, day int) string {
	if month < 1 || month > 12 || day < 1 || day > 31 || year < 1 {
		return ""
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// reject rollovers like 31/02
	if t.Day() != day || int(t.Month()) != month {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
