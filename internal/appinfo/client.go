package appinfo

import (
	"time"

	"github.com/hakkai/steam-artwork-downloader/internal/model"
)

// Client is the boundary to the underlying Steam connection library.
//
// The real implementation (internal/steamcm) wraps a stateful, asynchronous
// CM session: calls are fire-and-forget and all results arrive later as
// events through PumpEvents. The Session owns the pump; nothing else in the
// program calls PumpEvents.
//
// Tests inject a fake Client, which is the reason this is an interface
// rather than a concrete type.
type Client interface {
	// Connect starts establishing the connection. Completion is signalled
	// by a ConnectedEvent (or a DisconnectedEvent on failure).
	Connect()

	// Disconnect tears the connection down. Safe to call at any time.
	Disconnect()

	// LogOnAnonymously requests an anonymous logon on an established
	// connection. The outcome arrives as a LoggedOnEvent.
	LogOnAnonymously()

	// RequestAppInfo asks for the metadata of a single app. Results arrive,
	// possibly batched with other apps, as an AppInfoEvent.
	RequestAppInfo(id model.AppID)

	// PumpEvents waits up to timeout for queued events and returns them.
	// A nil slice with a nil error means the wait elapsed with nothing
	// queued. Errors are transient; the caller keeps pumping.
	PumpEvents(timeout time.Duration) ([]Event, error)
}

// Event is one occurrence delivered by the Client. The concrete types below
// are the complete set.
type Event interface{}

// ConnectedEvent signals the connection is established and a logon may be
// attempted.
type ConnectedEvent struct{}

// DisconnectedEvent signals the connection dropped. Err carries the cause
// when the client knows it.
type DisconnectedEvent struct {
	Err error
}

// LoggedOnEvent signals the outcome of a logon attempt. A nil Err means the
// session is ready for requests.
type LoggedOnEvent struct {
	Err error
}

// AppInfoEvent delivers a batch of app metadata payloads, keyed by AppID.
// One event may satisfy requests issued by several concurrent callers.
type AppInfoEvent struct {
	Apps map[model.AppID]*model.KeyValue
}
