// Package calendar derives shareable calendar representations of a meetup:
// provider deep links and a downloadable ICS payload. Everything here is a
// pure function of its input so repeated calls yield identical bytes.
package calendar

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultDurationHours applies when the free-text duration carries no
// integer token ("weekend trip").
const DefaultDurationHours = 2

type Event struct {
	UID         string
	Title       string
	Description string
	Address     string
	Start       int64 // unix seconds
	Duration    string
}

var durationRe = regexp.MustCompile(`(\d+)`)

// DurationHours extracts the first integer token of the free-text duration
// and interprets it as hours.
func DurationHours(duration string) int {
	match := durationRe.FindString(duration)
	if match == "" {
		return DefaultDurationHours
	}
	hours, err := strconv.Atoi(match)
	if err != nil {
		return DefaultDurationHours
	}
	return hours
}

func window(e Event) (time.Time, time.Time) {
	start := time.Unix(e.Start, 0).UTC()
	end := start.Add(time.Duration(DurationHours(e.Duration)) * time.Hour)
	return start, end
}

func stamp(t time.Time) string {
	return t.Format("20060102T150405Z")
}

func GoogleLink(e Event) string {
	start, end := window(e)
	return "https://calendar.google.com/calendar/render?action=TEMPLATE" +
		"&text=" + url.QueryEscape(e.Title) +
		"&dates=" + stamp(start) + "/" + stamp(end) +
		"&details=" + url.QueryEscape(e.Description) +
		"&location=" + url.QueryEscape(e.Address)
}

func OutlookLink(e Event) string {
	start, end := window(e)
	return "https://outlook.live.com/calendar/0/action/compose?rru=addevent" +
		"&subject=" + url.QueryEscape(e.Title) +
		"&startdt=" + stamp(start) +
		"&enddt=" + stamp(end) +
		"&body=" + url.QueryEscape(e.Description) +
		"&location=" + url.QueryEscape(e.Address)
}

func YahooLink(e Event) string {
	start, end := window(e)
	return "https://calendar.yahoo.com/?v=60" +
		"&title=" + url.QueryEscape(e.Title) +
		"&st=" + stamp(start) +
		"&et=" + stamp(end) +
		"&desc=" + url.QueryEscape(e.Description) +
		"&in_loc=" + url.QueryEscape(e.Address)
}

// ICS renders the event as a VCALENDAR payload. The UID comes from the
// event, not the clock, so output is reproducible.
func ICS(e Event) []byte {
	start, end := window(e)
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//GearsConnect//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + e.UID + "@gearsconnect.app",
		"DTSTART:" + stamp(start),
		"DTEND:" + stamp(end),
		"SUMMARY:" + e.Title,
		"DESCRIPTION:" + strings.ReplaceAll(e.Description, "\n", "\\n"),
		"LOCATION:" + e.Address,
		"STATUS:CONFIRMED",
		"SEQUENCE:0",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return []byte(strings.Join(lines, "\r\n"))
}

var fileNameRe = regexp.MustCompile(`[^a-zA-Z0-9]`)

// FileName returns the download name for the ICS payload.
func FileName(title string) string {
	return strings.ToLower(fileNameRe.ReplaceAllString(title, "_")) + ".ics"
}
