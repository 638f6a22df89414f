// Package calendar renders a team's fixtures as an iCalendar file.
package calendar
