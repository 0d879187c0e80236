// Package transit fetches railway departure boards.
//
// The client speaks the JSON form of the National Rail departure board served
// by a Huxley proxy:
//
//	GET /departures/{CRS}/{rows}?accessToken={token}
//
// Each TrainService becomes a board.ServiceEntry. Multiple destinations are
// joined with " & " and a "via" note is appended to its destination. An
// empty board is reported as board.ErrEmptyResult so the poller keeps the
// previous departures on screen.
package transit
