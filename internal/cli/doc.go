// Package cli implements the command-line interface for knltb-stats.
//
// The cli package provides the Cobra-based commands players, competitions
// and replay. It loads the configuration, wires the fetch client, the page
// archive, the output sinks and the notifiers together, and maps the outcome
// of a run to the process exit code.
package cli
