// Package app is the composition root of the board.
//
// Run loads configuration, opens the log file, resolves credentials, builds
// both providers and the shared state.Store, then starts:
//
//   - the Poller, two goroutines that refresh the store from the transit and
//     weather providers on their own cadences
//   - the optional status server
//   - the display, either the Bubble Tea board or plain text pages
//
// The display blocks until the user quits or the context is cancelled. Run
// then cancels the poller and waits for both cadences to exit; a fetch in
// flight at that moment is allowed to finish within its timeout.
//
// Credential problems are returned from Run and end the process. Provider
// failures after startup are logged and retried on the next cycle; the
// board keeps showing the last good data with its timestamp.
package app
