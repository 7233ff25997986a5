package appinfo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hakkai/steam-artwork-downloader/internal/model"
)

// pendingRequest tracks the IDs one Fetch call is still waiting on. The
// entry is removed from the live collection the instant outstanding becomes
// empty; done carries the single completion signal.
type pendingRequest struct {
	outstanding map[model.AppID]struct{}
	done        chan struct{}
}

// Fetcher is the request/response front of the metadata pipeline. It owns
// the process-lifetime cache of app metadata and coalesces concurrent
// callers so that no app is requested from Steam twice while a request for
// it is already in flight.
//
// Construct one Fetcher per process, use it from any number of goroutines,
// and Close it on shutdown:
//
//	fetcher := appinfo.NewFetcher(client, logger, 30*time.Second)
//	defer fetcher.Close()
//
//	if err := fetcher.Fetch(ctx, []model.AppID{570}); err != nil {
//	    return err
//	}
//	meta, _ := fetcher.Get(570)
type Fetcher struct {
	client         Client
	session        *Session
	connectTimeout time.Duration

	// mu guards cache and pending. Critical sections are map/slice work
	// only; nothing network-facing runs under the lock.
	mu      sync.Mutex
	cache   map[model.AppID]*model.KeyValue
	pending []*pendingRequest
}

// NewFetcher creates a Fetcher around the given client. The session and its
// background pump are started lazily by the first Fetch that has to go to
// the network. A positive connectTimeout bounds the connect-and-logon phase
// of each Fetch separately from the caller's context; zero disables the
// separate bound.
func NewFetcher(client Client, logger Logger, connectTimeout time.Duration) *Fetcher {
	f := &Fetcher{
		client:         client,
		connectTimeout: connectTimeout,
		cache:          make(map[model.AppID]*model.KeyValue),
	}
	f.session = NewSession(client, logger, f.handleDelivery)
	return f
}

// Fetch blocks until metadata for every given ID is present in the cache or
// ctx expires. IDs already cached cost nothing; IDs already requested by a
// concurrent caller are waited on but not requested again. Exactly one
// underlying request is issued per ID that nobody has in flight.
//
// On a deadline the error wraps ErrTimeout and the caller's pending entry
// is discarded; a late delivery still lands in the cache. Cancellation
// wraps context.Canceled instead. Session failures surface as
// *ConnectionError.
func (f *Fetcher) Fetch(ctx context.Context, ids []model.AppID) error {
	if f.allCached(ids) {
		return nil
	}

	if err := f.ensureReady(ctx); err != nil {
		return err
	}

	// Partition and register in one critical section, after the session is
	// ready. An ID counted as in flight by a concurrent caller therefore
	// always belongs to an entry whose owner goes on to request it; a caller
	// that gives up during the logon window has registered nothing and
	// strands nobody.
	f.mu.Lock()

	inflight := make(map[model.AppID]struct{})
	for _, p := range f.pending {
		for id := range p.outstanding {
			inflight[id] = struct{}{}
		}
	}

	missing := make(map[model.AppID]struct{})
	var toRequest []model.AppID
	for _, id := range ids {
		if _, ok := f.cache[id]; ok {
			continue
		}
		if _, ok := missing[id]; ok {
			continue
		}
		missing[id] = struct{}{}
		if _, ok := inflight[id]; !ok {
			toRequest = append(toRequest, id)
		}
	}

	if len(missing) == 0 {
		f.mu.Unlock()
		return nil
	}

	entry := &pendingRequest{
		outstanding: missing,
		done:        make(chan struct{}),
	}
	f.pending = append(f.pending, entry)
	f.mu.Unlock()

	// Issued outside the lock; the per-ID request primitive is all the
	// client offers, so one call per ID.
	for _, id := range toRequest {
		f.client.RequestAppInfo(id)
	}

	select {
	case <-entry.done:
		return nil
	case <-ctx.Done():
		f.discard(entry)
		if errors.Is(ctx.Err(), context.Canceled) {
			return fmt.Errorf("waiting for app info: %w", ctx.Err())
		}
		return fmt.Errorf("waiting for app info: %w", ErrTimeout)
	case <-f.session.stop:
		f.discard(entry)
		return ErrClosed
	}
}

// allCached reports whether every ID is already in the cache. A cache hit
// must not touch the session.
func (f *Fetcher) allCached(ids []model.AppID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if _, ok := f.cache[id]; !ok {
			return false
		}
	}
	return true
}

// ensureReady brings the session up, optionally under the fetcher's own
// connect deadline.
func (f *Fetcher) ensureReady(ctx context.Context) error {
	if f.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.connectTimeout)
		defer cancel()
	}
	return f.session.EnsureReady(ctx)
}

// Get returns the cached metadata for one app. The returned tree is shared
// and must not be modified.
func (f *Fetcher) Get(id model.AppID) (*model.KeyValue, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kv, ok := f.cache[id]
	return kv, ok
}

// Close shuts down the underlying session and its pump. Idempotent.
func (f *Fetcher) Close() error {
	return f.session.Close()
}

// handleDelivery is invoked from the session pump for each delivered batch.
// Two phases under one lock: first write the cache and strike the delivered
// IDs from every live entry, then resolve-and-remove the entries whose sets
// emptied. An entry resolves only once the whole set it asked for is
// available, even when one batch satisfies several overlapping waiters.
func (f *Fetcher) handleDelivery(apps map[model.AppID]*model.KeyValue) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, payload := range apps {
		if _, ok := f.cache[id]; !ok {
			// Write-once: a second delivery never replaces a cached tree.
			f.cache[id] = payload
		}
		for _, p := range f.pending {
			delete(p.outstanding, id)
		}
	}

	live := f.pending[:0]
	for _, p := range f.pending {
		if len(p.outstanding) == 0 {
			close(p.done)
		} else {
			live = append(live, p)
		}
	}
	f.pending = live
}

// discard removes an entry whose caller gave up. Keeping abandoned entries
// in the live collection would grow without bound under repeated timeouts.
func (f *Fetcher) discard(entry *pendingRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.pending {
		if p == entry {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			return
		}
	}
}
