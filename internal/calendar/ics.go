package calendar

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/pfrederiksen/knltb-stats/internal/team"
)

const (
	// TimeZone is the zone fixture start times are given in.
	TimeZone = "Europe/Amsterdam"
	// MatchDuration is the assumed length of a league day.
	MatchDuration = 4 * time.Hour

	maxLineOctets = 75
)

// GenerateICS generates an iCalendar (.ics) file with one event per fixture.
// Fixtures without a readable date are left out.
func GenerateICS(ct team.CompetitionTeam, now time.Time) string {
	var ics strings.Builder

	writeLine(&ics, "BEGIN:VCALENDAR")
	writeLine(&ics, "VERSION:2.0")
	writeLine(&ics, "PRODID:-//knltb-stats//knltb-stats//NL")
	writeLine(&ics, "CALSCALE:GREGORIAN")
	writeLine(&ics, "METHOD:PUBLISH")
	name := ct.Info.FullLabel
	if len(ct.OwnTeams) > 0 {
		name = strings.Join(ct.OwnTeams, ", ") + " - " + name
	}
	writeLine(&ics, "X-WR-CALNAME:"+escapeICS(strings.TrimSpace(name)))
	writeLine(&ics, "X-WR-TIMEZONE:"+TimeZone)

	for _, f := range ct.Fixtures {
		writeEvent(&ics, ct, f, now)
	}

	writeLine(&ics, "END:VCALENDAR")
	return ics.String()
}

func writeEvent(ics *strings.Builder, ct team.CompetitionTeam, f team.Planning, now time.Time) {
	day := team.ParseDate(f.Date)
	if day.IsZero() {
		return
	}

	writeLine(ics, "BEGIN:VEVENT")
	writeLine(ics, fmt.Sprintf("UID:%s@knltb-stats", fixtureID(ct, f)))
	writeLine(ics, "DTSTAMP:"+formatICSTime(now))

	start := team.ParseKickoff(f.Date, f.StartTime, time.UTC)
	if strings.TrimSpace(f.StartTime) == "" || (start.Hour() == 0 && start.Minute() == 0) {
		writeLine(ics, "DTSTART;VALUE=DATE:"+day.Format("20060102"))
		writeLine(ics, "DTEND;VALUE=DATE:"+day.AddDate(0, 0, 1).Format("20060102"))
	} else {
		writeLine(ics, fmt.Sprintf("DTSTART;TZID=%s:%s", TimeZone, formatLocal(start)))
		writeLine(ics, fmt.Sprintf("DTEND;TZID=%s:%s", TimeZone, formatLocal(start.Add(MatchDuration))))
	}

	home, away := f.OwnTeam, f.Opponent
	if !f.PlaysAtHome {
		home, away = away, home
	}
	writeLine(ics, "SUMMARY:"+escapeICS(fmt.Sprintf("%s - %s", home, away)))

	var desc []string
	if f.RoundNumber > 0 {
		desc = append(desc, fmt.Sprintf("Dag %d", f.RoundNumber))
	}
	desc = append(desc, ct.Info.FullLabel)
	if f.Attendance != "" {
		desc = append(desc, "Aanwezig: "+f.Attendance)
	}
	if f.CourtSurface != "" {
		desc = append(desc, "Baansoort: "+f.CourtSurface)
	}
	if f.Result != "" {
		desc = append(desc, "Uitslag: "+f.Result)
	}
	if f.Comment != "" {
		desc = append(desc, f.Comment)
	}
	writeLine(ics, "DESCRIPTION:"+escapeICS(strings.Join(desc, "\n")))
	writeLine(ics, "LOCATION:"+escapeICS(home))
	if ct.URL != "" {
		writeLine(ics, "URL:"+ct.URL)
	}

	status := "CONFIRMED"
	if strings.Contains(strings.ToLower(f.Status), "afgelast") {
		status = "CANCELLED"
	}
	writeLine(ics, "STATUS:"+status)
	writeLine(ics, "SEQUENCE:0")
	writeLine(ics, "TRANSP:OPAQUE")
	writeLine(ics, "END:VEVENT")
}

// fixtureID stays the same across runs for the same fixture.
func fixtureID(ct team.CompetitionTeam, f team.Planning) string {
	key := strings.Join([]string{ct.Competition, f.OwnTeam, f.Opponent, f.Date}, "|")
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:8])
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// formatLocal formats wall-clock time without a zone suffix.
func formatLocal(t time.Time) string {
	return t.Format("20060102T150405")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// writeLine writes a content line, folding it at 75 octets without splitting
// a UTF-8 sequence.
func writeLine(ics *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !isRuneStart(line[cut]) {
			cut--
		}
		ics.WriteString(line[:cut])
		ics.WriteString("\r\n ")
		line = line[cut:]
		// Continuation lines start with a space.
		limit = maxLineOctets - 1
	}
	ics.WriteString(line)
	ics.WriteString("\r\n")
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
