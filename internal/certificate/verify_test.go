package certificate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verifierFunc func(ctx context.Context, code string) (Verification, error)

func (f verifierFunc) Verify(ctx context.Context, code string) (Verification, error) {
	return f(ctx, code)
}

func TestVerifySessionFlow(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Create(context.Background(), sampleRecord("CERT-1")))
	svc, _ := newTestService(store)
	s := NewVerifySession(svc)
	ctx := context.Background()

	st, err := s.Submit(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st)

	st, err = s.Submit(ctx, "CERT-404")
	require.NoError(t, err)
	assert.Equal(t, StateInvalid, st)

	// Invalid accepts the next submission without a reset.
	st, err = s.Submit(ctx, "CERT-1")
	require.NoError(t, err)
	assert.Equal(t, StateValid, st)
	res, _ := s.Result()
	assert.Equal(t, "John Doe", res.Record.Name)

	st, err = s.Submit(ctx, "CERT-1")
	assert.ErrorIs(t, err, ErrSessionComplete)
	assert.Equal(t, StateValid, st)

	s.Reset()
	assert.Equal(t, StateIdle, s.State())
	res, err = s.Result()
	assert.NoError(t, err)
	assert.False(t, res.Valid)

	st, err = s.Submit(ctx, "CERT-1")
	require.NoError(t, err)
	assert.Equal(t, StateValid, st)
}

func TestVerifySessionError(t *testing.T) {
	boom := errors.New("store unreachable")
	calls := 0
	s := NewVerifySession(verifierFunc(func(context.Context, string) (Verification, error) {
		calls++
		if calls == 1 {
			return Verification{}, boom
		}
		return Verification{Valid: true}, nil
	}))

	st, err := s.Submit(context.Background(), "CERT-1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateError, st)
	_, last := s.Result()
	assert.ErrorIs(t, last, boom)

	st, err = s.Submit(context.Background(), "CERT-1")
	require.NoError(t, err)
	assert.Equal(t, StateValid, st)
	assert.Equal(t, 2, calls)
}

func TestVerifySessionRejectsConcurrentSubmit(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	s := NewVerifySession(verifierFunc(func(context.Context, string) (Verification, error) {
		close(entered)
		<-release
		return Verification{Valid: true}, nil
	}))

	done := make(chan VerifyState, 1)
	go func() {
		st, _ := s.Submit(context.Background(), "CERT-1")
		done <- st
	}()
	<-entered

	assert.Equal(t, StateVerifying, s.State())
	_, err := s.Submit(context.Background(), "CERT-2")
	assert.ErrorIs(t, err, ErrVerifyInProgress)

	// A reset while a lookup is running discards its late result.
	s.Reset()
	close(release)
	assert.Equal(t, StateIdle, <-done)
	assert.Equal(t, StateIdle, s.State())
}

func TestVerifyStateString(t *testing.T) {
	assert.Equal(t, "verifying", StateVerifying.String())
	assert.Equal(t, "unknown", VerifyState(42).String())
}
