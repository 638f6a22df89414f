// Package storage provides local persistence for knltb-stats runs.
//
// Two kinds of files live under the data directory (default
// ~/.local/share/knltb-stats/):
//
//   - snapshots/player_<number>.json holds the matches seen for a player on
//     the previous run, so new matches can be told apart from known ones.
//   - pages/<name>.gz holds gzip-compressed copies of fetched pages, which the
//     replay command feeds back through the extractors.
package storage
