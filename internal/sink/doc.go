// Package sink receives the assembled records of a run.
//
// A Sink gets one call per team page, one rating and one match history per
// player, and an explicit InvalidPlayer call for numbers whose profile page
// carries no ratings. Text and JSON write to an io.Writer, SQLite persists
// every run in a database file and Multi fans a run out to several sinks.
package sink
