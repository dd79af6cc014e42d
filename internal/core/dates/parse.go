package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrUnparseable is returned when text matches none of the accepted formats.
var ErrUnparseable = errors.New("unparseable date")

// Pattern matches date-like text inside a larger message. Extractors embed it
// in their labelled patterns and hand the captured text to Parse.
const Pattern = `(?:(?:Mon|Tue|Wed|Thu|Fri|Sat|Sun)[a-z]*\.?,?\s+)?` +
	`(?:` +
	`(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}` +
	`|\d{1,2}(?:st|nd|rd|th)?\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?,?\s+\d{4}` +
	`|\d{1,2}/\d{1,2}/(?:\d{4}|\d{2})` +
	`|\d{4}-\d{2}-\d{2}` +
	`)`

var (
	reWeekday  = regexp.MustCompile(`(?i)^(?:mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?,?\s+`)
	reOrdinal  = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)\b`)
	reAbbrDot  = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)\.`)
	reSept     = regexp.MustCompile(`(?i)\bsept\b`)
	reSpaceRun = regexp.MustCompile(`\s+`)
)

// layouts are tried in order after normalization (commas removed).
var layouts = []string{
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"1/2/2006",
	"1/2/06",
	"2006-01-02",
}

// Parse converts provider date text into a Date. Impossible dates such as
// Feb 30 are rejected rather than rolled into the next month.
func Parse(text string) (Date, error) {
	s := normalize(text)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty", ErrUnparseable)
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return FromTime(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrUnparseable, text)
}

func normalize(text string) string {
	s := strings.TrimSpace(text)
	s = reWeekday.ReplaceAllString(s, "")
	s = reOrdinal.ReplaceAllString(s, "$1")
	s = reAbbrDot.ReplaceAllString(s, "$1")
	s = reSept.ReplaceAllString(s, "Sep")
	s = strings.ReplaceAll(s, ",", " ")
	s = reSpaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
