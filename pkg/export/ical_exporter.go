package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// ICalEvent describes a single calendar entry.
type ICalEvent struct {
	Summary     string
	Start       time.Time
	End         time.Time
	Location    string
	Description string
}

// ICalExporter renders events into an iCalendar byte stream.
type ICalExporter struct{}

// NewICalExporter constructs an iCal exporter.
func NewICalExporter() *ICalExporter {
	return &ICalExporter{}
}

// Render produces an RFC 5545 calendar with the given events.
func (e *ICalExporter) Render(events []ICalEvent) ([]byte, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("ical requires at least one event")
	}
	buf := &bytes.Buffer{}
	buf.WriteString("BEGIN:VCALENDAR\r\n")
	buf.WriteString("VERSION:2.0\r\n")
	buf.WriteString("PRODID:-//campus-api//calendar//EN\r\n")
	for _, event := range events {
		buf.WriteString("BEGIN:VEVENT\r\n")
		fmt.Fprintf(buf, "SUMMARY:%s\r\n", escapeICalText(event.Summary))
		fmt.Fprintf(buf, "DTSTART:%s\r\n", event.Start.Format("20060102T150405"))
		fmt.Fprintf(buf, "DTEND:%s\r\n", event.End.Format("20060102T150405"))
		if event.Location != "" {
			fmt.Fprintf(buf, "LOCATION:%s\r\n", escapeICalText(event.Location))
		}
		if event.Description != "" {
			fmt.Fprintf(buf, "DESCRIPTION:%s\r\n", escapeICalText(event.Description))
		}
		buf.WriteString("END:VEVENT\r\n")
	}
	buf.WriteString("END:VCALENDAR\r\n")
	return buf.Bytes(), nil
}

func escapeICalText(s string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return replacer.Replace(s)
}
