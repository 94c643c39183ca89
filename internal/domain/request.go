package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	// stationIDRe restricts station ids to characters that are safe in both
	// query strings and file names.
	stationIDRe = regexp.MustCompile(`^[A-Za-z0-9]+$`)

	compactDateRe = regexp.MustCompile(`^\d{8}$`)
	digitsRe      = regexp.MustCompile(`^\d+$`)
)

// dateFormat pairs a human-readable date format with its Go layout.
type dateFormat struct {
	name   string
	layout string
}

var (
	isoDate     = dateFormat{name: "YYYY-MM-DD", layout: "2006-01-02"}
	compactDate = dateFormat{name: "YYYYMMDD", layout: "20060102"}
	dottedDate  = dateFormat{name: "DD.MM.YYYY", layout: "02.01.2006"}
)

// Request identifies one sounding: a station and a synoptic timestamp.
// Construct with NewRequest; the zero value is not valid.
type Request struct {
	StationID string
	Time      time.Time
}

// NewRequest validates the station id and truncates t to the hour in UTC.
func NewRequest(stationID string, t time.Time) (Request, error) {
	stationID = strings.TrimSpace(stationID)
	if !stationIDRe.MatchString(stationID) {
		return Request{}, fmt.Errorf("%w: station id %q must be non-empty alphanumeric", ErrInvalidInput, stationID)
	}
	t = t.UTC()
	return Request{
		StationID: stationID,
		Time:      time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC),
	}, nil
}

// FileName returns the output file name, e.g. "20251102_0000_15420.txt".
func (r Request) FileName() string {
	return fmt.Sprintf("%s_%s_%s.txt", r.Time.Format("20060102"), r.Time.Format("1504"), r.StationID)
}

// Key is a compact identifier for logs and message keys, e.g. "15420-2025110200".
func (r Request) Key() string {
	return r.StationID + "-" + r.Time.Format("2006010215")
}

func (r Request) String() string {
	return fmt.Sprintf("%s %s UTC", r.StationID, r.Time.Format("2006-01-02 15:04"))
}

// ParseDate parses YYYY-MM-DD, YYYYMMDD, or DD.MM.YYYY. The format is chosen
// from the shape of the input so the error can name the one that failed.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	var f dateFormat
	switch {
	case strings.Contains(s, "-"):
		f = isoDate
	case strings.Contains(s, "."):
		f = dottedDate
	case compactDateRe.MatchString(s):
		f = compactDate
	default:
		return time.Time{}, fmt.Errorf("%w: date %q matches none of YYYY-MM-DD, YYYYMMDD, DD.MM.YYYY", ErrInvalidInput, s)
	}

	t, err := time.Parse(f.layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not a valid %s date: %v", ErrInvalidInput, s, f.name, err)
	}
	return t, nil
}

// ParseHour parses H, HH, HHMM, or HH:MM and returns the hour.
// Minutes are validated and then discarded: the archive publishes on the hour.
func ParseHour(s string) (int, error) {
	raw := strings.TrimSpace(s)
	t := raw

	format := "HH"
	if strings.Contains(t, ":") {
		format = "HH:MM"
		parts := strings.Split(t, ":")
		if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
			return 0, fmt.Errorf("%w: time %q is not a valid HH:MM time", ErrInvalidInput, raw)
		}
		t = parts[0] + parts[1]
	} else if utf8.RuneCountInString(t) > 2 {
		format = "HHMM"
	}

	if len(t) == 1 {
		t = "0" + t
	}
	if len(t) == 2 {
		t += "00"
	}
	if len(t) != 4 || !digitsRe.MatchString(t) {
		return 0, fmt.Errorf("%w: time %q is not a valid %s time", ErrInvalidInput, raw, format)
	}

	hour, _ := strconv.Atoi(t[:2])
	minute, _ := strconv.Atoi(t[2:])
	if hour > 23 || minute > 59 {
		return 0, fmt.Errorf("%w: time %q is out of range for %s", ErrInvalidInput, raw, format)
	}
	return hour, nil
}

// ParseDateTime combines ParseDate and ParseHour into a UTC timestamp
// with minutes forced to 00.
func ParseDateTime(date, hour string) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	h, err := ParseHour(hour)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, 0, 0, 0, time.UTC), nil
}

// ParseHours parses a comma-separated hour list such as "00,12".
// Empty tokens are ignored and duplicates dropped; order is preserved.
func ParseHours(s string) ([]int, error) {
	var hours []int
	seen := make(map[int]bool)
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		h, err := ParseHour(token)
		if err != nil {
			return nil, err
		}
		if seen[h] {
			continue
		}
		seen[h] = true
		hours = append(hours, h)
	}
	if len(hours) == 0 {
		return nil, fmt.Errorf("%w: no hours in %q", ErrInvalidInput, s)
	}
	return hours, nil
}

// DateRange returns every calendar day from start to end inclusive.
func DateRange(start, end time.Time) ([]time.Time, error) {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date %s is before start date %s",
			ErrInvalidInput, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}
