// Package correlation matches asynchronous device replies to the requests
// that caused them.
//
// A Pool hands out transaction ids, holds one Future per outstanding
// exchange, and bounds how many may be outstanding at once. Replies are
// matched purely by id; unknown or repeated ids are ignored. Exchanges that
// never get a reply are resolved with ErrTimeout by Expire (run
// periodically by Run, and lazily by Reserve at the ceiling), and FailAll
// resolves everything at once when a session drops.
//
//	id, fut, err := pool.Reserve()
//	if errors.Is(err, correlation.ErrCapacityExceeded) {
//	    // back off
//	}
//	send(id, msg)
//	fut.OnComplete(func(o correlation.Outcome[Reply]) { ... })
package correlation
