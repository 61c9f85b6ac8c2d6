package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period is an ISO-8601 duration (P3D, P1M, PT1H, P1W...). Calendar terms
// (years, months, weeks, days) cannot be collapsed into a time.Duration, so
// adding a Period to a time uses AddDate for the date part.
type Period struct {
	Years   int
	Months  int
	Weeks   int
	Days    int
	Hours   int
	Minutes int
	Seconds int
}

// ParsePeriod parses an ISO-8601 period string. The empty string parses to
// the zero Period.
func ParsePeriod(s string) (Period, error) {
	var p Period
	if s == "" {
		return p, nil
	}
	if len(s) < 2 || s[0] != 'P' {
		return p, fmt.Errorf("%w: invalid period %q", ErrValidation, s)
	}
	rest := s[1:]
	inTime := false
	num := ""
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		switch {
		case c >= '0' && c <= '9':
			num += string(c)
			continue
		case c == 'T':
			if inTime || num != "" {
				return Period{}, fmt.Errorf("%w: invalid period %q", ErrValidation, s)
			}
			inTime = true
			continue
		}
		if num == "" {
			return Period{}, fmt.Errorf("%w: invalid period %q", ErrValidation, s)
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return Period{}, fmt.Errorf("%w: invalid period %q", ErrValidation, s)
		}
		num = ""
		switch {
		case c == 'Y' && !inTime:
			p.Years = n
		case c == 'M' && !inTime:
			p.Months = n
		case c == 'W' && !inTime:
			p.Weeks = n
		case c == 'D' && !inTime:
			p.Days = n
		case c == 'H' && inTime:
			p.Hours = n
		case c == 'M' && inTime:
			p.Minutes = n
		case c == 'S' && inTime:
			p.Seconds = n
		default:
			return Period{}, fmt.Errorf("%w: invalid period designator %q in %q", ErrValidation, string(c), s)
		}
	}
	if num != "" {
		return Period{}, fmt.Errorf("%w: invalid period %q", ErrValidation, s)
	}
	if p.IsZero() {
		return Period{}, fmt.Errorf("%w: empty period %q", ErrValidation, s)
	}
	return p, nil
}

func (p Period) IsZero() bool {
	return p == Period{}
}

// AddTo shifts t forward by the period, calendar-aware for the date part.
func (p Period) AddTo(t time.Time) time.Time {
	t = t.AddDate(p.Years, p.Months, p.Weeks*7+p.Days)
	return t.Add(time.Duration(p.Hours)*time.Hour +
		time.Duration(p.Minutes)*time.Minute +
		time.Duration(p.Seconds)*time.Second)
}

func (p Period) String() string {
	if p.IsZero() {
		return ""
	}
	var b strings.Builder
	b.WriteByte('P')
	writePart := func(n int, designator byte) {
		if n != 0 {
			b.WriteString(strconv.Itoa(n))
			b.WriteByte(designator)
		}
	}
	writePart(p.Years, 'Y')
	writePart(p.Months, 'M')
	writePart(p.Weeks, 'W')
	writePart(p.Days, 'D')
	if p.Hours != 0 || p.Minutes != 0 || p.Seconds != 0 {
		b.WriteByte('T')
		writePart(p.Hours, 'H')
		writePart(p.Minutes, 'M')
		writePart(p.Seconds, 'S')
	}
	return b.String()
}

// MarshalJSON renders the period as its ISO-8601 string, or null when zero.
func (p Period) MarshalJSON() ([]byte, error) {
	if p.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(p.String())), nil
}

func (p *Period) UnmarshalJSON(data []byte) error {
	str := string(data)
	if str == "null" || str == `""` {
		*p = Period{}
		return nil
	}
	unquoted, err := strconv.Unquote(str)
	if err != nil {
		return fmt.Errorf("%w: period must be a string", ErrValidation)
	}
	parsed, err := ParsePeriod(unquoted)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
