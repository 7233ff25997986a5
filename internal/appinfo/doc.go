// Package appinfo turns Steam's connect-once, logon-once, callback-driven
// metadata client into a plain blocking request/response API.
//
// # Fetcher
//
// Fetcher is the entry point. It caches every metadata tree for the life of
// the process and coalesces concurrent callers:
//
//	fetcher := appinfo.NewFetcher(steamcm.NewClient(), appinfo.NewLogger(false), 30*time.Second)
//	defer fetcher.Close()
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	if err := fetcher.Fetch(ctx, []model.AppID{570, 440}); err != nil {
//	    log.Fatal(err)
//	}
//	meta, _ := fetcher.Get(570)
//
// Cached IDs are never re-requested, and an ID another caller already has in
// flight is waited on rather than requested twice.
//
// # Session
//
// Session drives the connection lifecycle (connect, anonymous logon) and
// runs the event pump as a single background goroutine. Fetch starts it on
// demand; callers normally never touch Session directly.
//
// # Errors
//
// Deadline expiry wraps ErrTimeout; caller-initiated cancellation wraps
// context.Canceled instead. Logon rejections and disconnects before logon
// surface as *ConnectionError; the next call retries the connection. All of
// them leave the pump and other waiters untouched.
package appinfo
