// Package preflight provides readiness checks for the directories and
// remote services that Videodrome depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll on start and logs every failing check; a
//     failure is a warning, not a reason to refuse to start.
//   - The CLI "videodrome status" command renders the same results.
//
// Each remote check is gated by its config toggle: a disabled Transmission
// poller is not probed.
package preflight
