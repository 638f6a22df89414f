// Package team extracts competition team records from KNLTB standings pages.
//
// A team page yields one Info (the division label classified into match type
// and tier), the Standings of every team in the division and the Schedule of
// the team's own fixtures. All three are read with the delimiter scanner in
// package scan; the competition search pages used to discover team pages are
// read with goquery.
package team
