// Package notifier announces newly played matches.
//
// A run that finds matches not present in a player's previous snapshot turns
// each one into an Announcement. Announcements can be posted to Twitter or
// printed in dry-run mode. Posting retries transient failures with
// exponential backoff and pauses between posts.
package notifier
