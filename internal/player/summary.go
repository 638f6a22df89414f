package player

import (
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates a match history.
type Summary struct {
	Matches    int `json:"matches"`
	Singles    int `json:"singles"`
	Doubles    int `json:"doubles"`
	League     int `json:"league"`
	Tournament int `json:"tournament"`
	Home       int `json:"home"`
	Away       int `json:"away"`

	// Rated counts the matches that carried a rating delta; the mean and
	// standard deviation are taken over those only.
	Rated            int     `json:"rated"`
	RatingDeltaMean  float64 `json:"rating_delta_mean"`
	RatingDeltaStdev float64 `json:"rating_delta_stdev"`
}

// Summarize counts matches per kind and side and describes the spread of
// rating deltas.
func Summarize(records []MatchRecord) Summary {
	var s Summary
	var deltas []float64
	for _, rec := range records {
		s.Matches++
		if rec.MatchType == Doubles {
			s.Doubles++
		} else {
			s.Singles++
		}
		if rec.IsTournament {
			s.Tournament++
		} else {
			s.League++
		}
		if rec.IsHomePlayer {
			s.Home++
		} else {
			s.Away++
		}
		if rec.RatingDelta == nil {
			continue
		}
		if d, err := parseDecimal(*rec.RatingDelta); err == nil {
			deltas = append(deltas, d)
		}
	}

	s.Rated = len(deltas)
	switch len(deltas) {
	case 0:
	case 1:
		s.RatingDeltaMean = deltas[0]
	default:
		s.RatingDeltaMean, s.RatingDeltaStdev = stat.MeanStdDev(deltas, nil)
	}
	return s
}
