package player

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParticipantNotFound means no participant of a match row matched any
// variant of the subject's name. The row is skipped.
var ErrParticipantNotFound = errors.New("participant not found")

// MatchType tells singles from doubles.
type MatchType string

const (
	Singles MatchType = "singles"
	Doubles MatchType = "doubles"
)

// ParseMatchType maps the page's match type cell. Anything that is not a
// doubles variant is played as singles.
func ParseMatchType(raw string) MatchType {
	if strings.Contains(strings.ToLower(raw), "dubbel") {
		return Doubles
	}
	return Singles
}

// Participants is the number of players listed for a match of this type.
func (t MatchType) Participants() int {
	if t == Doubles {
		return 4
	}
	return 2
}

// Roles describes a match from the subject's side.
type Roles struct {
	IsHomePlayer bool
	Partner      *string
	Opponent1    string
	Opponent2    *string
}

// NameVariants returns the names the subject may appear under, in match
// order: the exact name, then the name with its last word lower-cased
// ("Jan de Vries" also appears as "Jan de vries"). A single-word name or a
// name whose last word is already lower case has one variant.
func NameVariants(name string) []string {
	i := strings.LastIndex(name, " ")
	if i < 0 {
		return []string{name}
	}
	lowered := name[:i+1] + strings.ToLower(name[i+1:])
	if lowered == name {
		return []string{name}
	}
	return []string{name, lowered}
}

// FindSubject returns the position of the subject in participants. Every
// participant is tried against the exact name before any is tried against
// the fallback.
func FindSubject(participants []string, subject string) (int, error) {
	for _, variant := range NameVariants(subject) {
		for i, p := range participants {
			if p == variant {
				return i, nil
			}
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrParticipantNotFound, subject)
}

// Resolve assigns roles from the subject's position. Singles list home then
// away; doubles list the home pair then the away pair.
func Resolve(participants []string, index int, kind MatchType) (Roles, error) {
	if len(participants) != kind.Participants() {
		return Roles{}, fmt.Errorf("%s match lists %d participants", kind, len(participants))
	}
	if index < 0 || index >= len(participants) {
		return Roles{}, fmt.Errorf("%w: index %d", ErrParticipantNotFound, index)
	}

	if kind == Singles {
		return Roles{
			IsHomePlayer: index == 0,
			Opponent1:    participants[1-index],
		}, nil
	}

	// The partner is the other member of the subject's pair; the opposing
	// pair starts at the other half.
	partner := participants[index^1]
	opp := 2
	if index >= 2 {
		opp = 0
	}
	second := participants[opp+1]
	return Roles{
		IsHomePlayer: index < 2,
		Partner:      &partner,
		Opponent1:    participants[opp],
		Opponent2:    &second,
	}, nil
}
