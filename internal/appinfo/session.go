package appinfo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hakkai/steam-artwork-downloader/internal/model"
)

// SessionState describes where the Steam connection is in its lifecycle.
type SessionState int

const (
	// StateDisconnected is the initial state; no connection attempt has
	// been made, or the previous one was torn down.
	StateDisconnected SessionState = iota

	// StateConnecting means Connect has been issued and the session is
	// waiting for the connected event.
	StateConnecting

	// StateAwaitingLogin means the connection is up and an anonymous logon
	// has been requested.
	StateAwaitingLogin

	// StateReady means the logon succeeded; requests may be issued.
	StateReady

	// StateFailed means the logon was rejected or the connection dropped.
	// The next EnsureReady call retries from scratch.
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingLogin:
		return "awaiting-login"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const (
	// pumpWait bounds each drain of the client's event queue.
	pumpWait = 250 * time.Millisecond

	// pumpYield is the pause between drain iterations.
	pumpYield = 10 * time.Millisecond

	// closeGrace is how long Close waits for the pump to stop.
	closeGrace = 2 * time.Second
)

// logonAttempt tracks one connect-and-logon cycle. err is written before
// done is closed, so waiters may read it after the channel unblocks.
type logonAttempt struct {
	done chan struct{}
	err  error
}

// Session owns the Client handle and drives it from disconnected to ready:
// connect, then anonymous logon, with every result arriving through the
// event pump. The pump runs as a single background goroutine for the life
// of the session and delivers metadata batches to the onAppInfo handler.
//
// Session is the sole mutator of the connection state. Any number of
// goroutines may call EnsureReady concurrently; each blocks only itself.
type Session struct {
	client    Client
	logger    Logger
	onAppInfo func(map[model.AppID]*model.KeyValue)

	mu      sync.Mutex
	state   SessionState
	attempt *logonAttempt

	pumpRunning bool
	stop        chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

// NewSession creates a Session around the given client. Metadata deliveries
// are passed to onAppInfo from the pump goroutine; the handler must be safe
// for that. A nil logger discards pump diagnostics.
func NewSession(client Client, logger Logger, onAppInfo func(map[model.AppID]*model.KeyValue)) *Session {
	if logger == nil {
		logger = NopLogger
	}
	return &Session{
		client:    client,
		logger:    logger,
		onAppInfo: onAppInfo,
		state:     StateDisconnected,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// State returns the current connection state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EnsureReady blocks until the session reaches the ready state or ctx
// expires. It is idempotent: when already ready it returns immediately, and
// concurrent callers share a single connect-and-logon cycle.
//
// On the first call it starts the background pump and issues Connect. A
// context deadline produces an error wrapping ErrTimeout and cancellation
// one wrapping context.Canceled; a rejected logon
// or a disconnect before logon produces a *ConnectionError, after which a
// later call retries the connection.
func (s *Session) EnsureReady(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateReady {
		s.mu.Unlock()
		return nil
	}

	var dial bool
	if s.state == StateDisconnected || s.state == StateFailed {
		s.state = StateConnecting
		s.attempt = &logonAttempt{done: make(chan struct{})}
		if !s.pumpRunning {
			s.pumpRunning = true
			go s.pump()
		}
		dial = true
	}
	attempt := s.attempt
	s.mu.Unlock()

	// The connect call goes out without the lock held.
	if dial {
		s.client.Connect()
	}

	select {
	case <-attempt.done:
		return attempt.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("waiting for steam logon: %w", ctx.Err())
		}
		return fmt.Errorf("waiting for steam logon: %w", ErrTimeout)
	case <-s.stop:
		return ErrClosed
	}
}

// Close shuts the session down: it signals the pump to stop, waits up to a
// short grace period for it to finish, then disconnects the client. Close
// is idempotent and safe to call on a session that was never started.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)

		s.mu.Lock()
		running := s.pumpRunning
		s.mu.Unlock()

		if running {
			select {
			case <-s.done:
			case <-time.After(closeGrace):
				s.logger.Log("appinfo: event pump did not stop within %v", closeGrace)
			}
		}
		s.client.Disconnect()
	})
	return nil
}

// pump drains the client's event queue until Close. Transient drain errors
// are logged and swallowed so a single bad iteration never kills the loop.
func (s *Session) pump() {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		events, err := s.client.PumpEvents(pumpWait)
		if err != nil {
			s.logger.Log("appinfo: event pump: %v", err)
		}
		if len(events) > 0 && s.logger.IsDebug() {
			s.logger.Log("appinfo: drained %d event(s)", len(events))
		}
		for _, ev := range events {
			s.handleEvent(ev)
		}

		select {
		case <-s.stop:
			return
		case <-time.After(pumpYield):
		}
	}
}

func (s *Session) handleEvent(ev Event) {
	switch e := ev.(type) {
	case ConnectedEvent:
		s.mu.Lock()
		proceed := s.state == StateConnecting
		if proceed {
			s.state = StateAwaitingLogin
		}
		s.mu.Unlock()
		if proceed {
			s.client.LogOnAnonymously()
		}

	case LoggedOnEvent:
		s.mu.Lock()
		if e.Err != nil {
			s.failLocked(e.Err)
		} else if s.state == StateAwaitingLogin {
			s.state = StateReady
			s.resolveAttemptLocked(nil)
		}
		s.mu.Unlock()

	case DisconnectedEvent:
		reason := e.Err
		if reason == nil {
			reason = errors.New("connection closed")
		}
		s.mu.Lock()
		s.failLocked(reason)
		s.mu.Unlock()

	case AppInfoEvent:
		if s.onAppInfo != nil {
			s.onAppInfo(e.Apps)
		}
	}
}

// failLocked moves the session to the failed state and wakes every waiter
// on the current attempt with a connection error. Callers hold s.mu.
func (s *Session) failLocked(reason error) {
	s.state = StateFailed
	s.resolveAttemptLocked(&ConnectionError{Reason: reason})
}

// resolveAttemptLocked completes the in-flight logon attempt, if any.
// Callers hold s.mu.
func (s *Session) resolveAttemptLocked(err error) {
	if s.attempt == nil {
		return
	}
	s.attempt.err = err
	close(s.attempt.done)
	s.attempt = nil
}
