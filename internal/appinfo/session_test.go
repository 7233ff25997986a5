package appinfo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_EnsureReady(t *testing.T) {
	client := newFakeClient()
	s := NewSession(client, nil, nil)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.EnsureReady(ctx))
	assert.Equal(t, StateReady, s.State())

	// Idempotent: a second call neither reconnects nor blocks.
	require.NoError(t, s.EnsureReady(ctx))
	assert.Equal(t, 1, client.connectCount())
}

func TestSession_EnsureReadyTimeout(t *testing.T) {
	client := newFakeClient()
	client.logonDelay = 300 * time.Millisecond
	s := NewSession(client, nil, nil)
	defer s.Close()

	shortCtx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := s.EnsureReady(shortCtx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)

	// The attempt keeps running in the background; a patient caller
	// succeeds without a second connect.
	ctx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()

	require.NoError(t, s.EnsureReady(ctx))
	assert.Equal(t, 1, client.connectCount())
}

func TestSession_EnsureReadyCanceled(t *testing.T) {
	client := newFakeClient()
	client.logonDelay = 300 * time.Millisecond
	s := NewSession(client, nil, nil)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.EnsureReady(ctx) }()

	require.Eventually(t, func() bool {
		return client.connectCount() == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	// Caller-initiated cancellation is not a deadline.
	err := <-errCh
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestSession_LogonRejected(t *testing.T) {
	client := newFakeClient()
	client.setLogonErr(errors.New("access denied"))
	s := NewSession(client, nil, nil)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.EnsureReady(ctx)
	require.Error(t, err)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Contains(t, connErr.Error(), "access denied")
	assert.Equal(t, StateFailed, s.State())

	// A later call retries from scratch and succeeds once logons pass.
	client.setLogonErr(nil)
	require.NoError(t, s.EnsureReady(ctx))
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, 2, client.connectCount())
}

func TestSession_DisconnectBeforeLogon(t *testing.T) {
	client := newFakeClient()
	client.dropOnLogon = true
	s := NewSession(client, nil, nil)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.EnsureReady(ctx)
	require.Error(t, err)

	var connErr *ConnectionError
	assert.ErrorAs(t, err, &connErr)
	assert.Equal(t, StateFailed, s.State())
}

func TestSession_CloseIdempotent(t *testing.T) {
	client := newFakeClient()
	s := NewSession(client, nil, nil)

	// Never started: Close must still be safe, twice.
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, client.disconnects)

	err := s.EnsureReady(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSession_CloseStopsPump(t *testing.T) {
	client := newFakeClient()
	s := NewSession(client, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.EnsureReady(ctx))

	require.NoError(t, s.Close())

	select {
	case <-s.done:
	case <-time.After(3 * time.Second):
		t.Fatal("pump goroutine did not stop after Close")
	}
}
