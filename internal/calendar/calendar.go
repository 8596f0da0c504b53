// Package calendar implements date-only values with calendar-correct
// arithmetic. A Date is a plain (year, month, day) triple with no time of
// day and no timezone; arithmetic runs on proleptic Gregorian day counts so
// results are identical regardless of locale, zone, or DST.
package calendar

import (
	"database/sql/driver"
	"fmt"
	"time"

	apperrors "github.com/subtrack/subtrack/pkg/errors"
)

// Date is an immutable calendar day. The zero value is not a valid date;
// use New, Parse, or Today.
type Date struct {
	year  int
	month int
	day   int
}

// New builds a Date and validates that the triple denotes a real calendar
// day. Returns apperrors.ErrInvalidDate otherwise.
func New(year, month, day int) (Date, error) {
	if month < 1 || month > 12 || day < 1 || day > daysInMonth(year, month) {
		return Date{}, fmt.Errorf("%04d-%02d-%02d: %w", year, month, day, apperrors.ErrInvalidDate)
	}
	return Date{year: year, month: month, day: day}, nil
}

// MustNew is New that panics on invalid input. For fixtures and constants.
func MustNew(year, month, day int) Date {
	d, err := New(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// Parse accepts exactly YYYY-MM-DD, zero-padded. Shape violations return
// apperrors.ErrInvalidFormat; well-shaped but impossible triples (Feb 30,
// Apr 31) return apperrors.ErrInvalidDate. The three integers are taken
// literally, with no timezone interpretation.
func Parse(s string) (Date, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, fmt.Errorf("%q: %w", s, apperrors.ErrInvalidFormat)
	}
	for i, r := range s {
		if i == 4 || i == 7 {
			continue
		}
		if r < '0' || r > '9' {
			return Date{}, fmt.Errorf("%q: %w", s, apperrors.ErrInvalidFormat)
		}
	}
	year := atoi(s[0:4])
	month := atoi(s[5:7])
	day := atoi(s[8:10])
	return New(year, month, day)
}

// MustParse is Parse that panics on error. For fixtures and tests.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Today returns the current local calendar day. Not deterministic across a
// midnight boundary; callers needing determinism capture it once per
// operation and thread it explicitly.
func Today() Date {
	y, m, d := time.Now().Date()
	return Date{year: y, month: int(m), day: d}
}

// FromTime strips the time-of-day and timezone from t, keeping the calendar
// day t denotes in its own location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: int(m), day: d}
}

func (d Date) Year() int  { return d.year }
func (d Date) Month() int { return d.month }
func (d Date) Day() int   { return d.day }

// IsZero reports whether d is the zero Date (not a valid calendar day).
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// String formats the canonical YYYY-MM-DD representation. String and Parse
// are exact inverses for any valid input.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}

// MonthBucket returns the YYYY-MM prefix used to group by calendar month.
func (d Date) MonthBucket() string {
	return fmt.Sprintf("%04d-%02d", d.year, d.month)
}

// AddDays shifts d by n days (n may be negative), rolling over month and
// year boundaries under proleptic Gregorian rules.
func (d Date) AddDays(n int) Date {
	return fromEpochDays(d.epochDays() + n)
}

// Sub returns the signed day count d minus o on pure calendar-day
// granularity. Positive means d is chronologically after o.
func (d Date) Sub(o Date) int {
	return d.epochDays() - o.epochDays()
}

// AddMonths adds n calendar months (n may be negative). The day of month is
// preserved when the target month has enough days and clamps to the last
// day of the target month otherwise: Jan 31 + 1 month is Feb 28, or Feb 29
// in a leap year. This is calendar-month arithmetic, not "add 30 days" --
// subscription terms depend on the distinction.
func (d Date) AddMonths(n int) Date {
	months := d.year*12 + (d.month - 1) + n
	year := floorDiv(months, 12)
	month := months - year*12 + 1
	day := d.day
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return Date{year: year, month: month, day: day}
}

// Compare returns -1, 0, or 1 as d is before, equal to, or after o,
// consistent with Sub.
func (d Date) Compare(o Date) int {
	switch diff := d.Sub(o); {
	case diff < 0:
		return -1
	case diff > 0:
		return 1
	default:
		return 0
	}
}

// Before reports whether d is chronologically before o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// After reports whether d is chronologically after o.
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// Equal reports whether d and o denote the same calendar day.
func (d Date) Equal(o Date) bool { return d == o }

// MarshalJSON encodes d as the canonical quoted YYYY-MM-DD string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted YYYY-MM-DD string.
func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("%s: %w", data, apperrors.ErrInvalidFormat)
	}
	parsed, err := Parse(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer for a Postgres date column.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner, accepting date columns surfaced as
// time.Time, string, or []byte.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = FromTime(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("calendar: cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > 10 {
		// Timestamp-shaped value; the calendar day is the prefix.
		s = s[:10]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// epochDays converts d to a day count since 1970-01-01 using Howard
// Hinnant's civil-days algorithm, valid across the full proleptic
// Gregorian range.
func (d Date) epochDays() int {
	y := d.year
	if d.month <= 2 {
		y--
	}
	era := floorDiv(y, 400)
	yoe := y - era*400
	mp := (d.month + 9) % 12
	doy := (153*mp+2)/5 + d.day - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func fromEpochDays(days int) Date {
	z := days + 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	day := doy - (153*mp+2)/5 + 1
	month := mp + 3
	if mp >= 10 {
		month = mp - 9
	}
	if month <= 2 {
		y++
	}
	return Date{year: y, month: month, day: day}
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	case 2:
		if isLeap(year) {
			return 29
		}
		return 28
	default:
		return 0
	}
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func atoi(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
