// Package player extracts ratings and match histories from KNLTB player
// profile pages.
//
// A profile holds the player's name, six rating values and two tables of
// played matches, one for league play and one for tournaments. Each match
// row lists its participants in page order; Resolve turns the subject's
// position in that list into home/away side, partner and opponents.
package player
