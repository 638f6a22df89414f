// Package fetch retrieves pages from the public KNLTB site.
//
// Requests go through resty on top of a retrying transport and are spaced by
// a rate limiter so the site sees at most one request per configured delay.
// Bodies are converted to UTF-8 and checked to be text before they reach the
// extractors. Every page can be handed to an Archiver for later replay.
package fetch
