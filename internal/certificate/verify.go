package certificate

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// VerifyState is a step of the verification flow.
type VerifyState int

const (
	StateIdle VerifyState = iota
	StateVerifying
	StateValid
	StateInvalid
	StateError
)

func (s VerifyState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateVerifying:
		return "verifying"
	case StateValid:
		return "valid"
	case StateInvalid:
		return "invalid"
	case StateError:
		return "error"
	}
	return "unknown"
}

var (
	// ErrSessionComplete is returned by Submit after a valid result until Reset.
	ErrSessionComplete = errors.New("verification complete, reset to verify another code")
	// ErrVerifyInProgress is returned by Submit while a lookup is running.
	ErrVerifyInProgress = errors.New("verification already in progress")
)

// Verifier runs one verification cycle.
type Verifier interface {
	Verify(ctx context.Context, code string) (Verification, error)
}

// VerifySession drives Idle -> Verifying -> {Valid, Invalid, Error} for one
// user. Invalid and Error accept a new submission directly; Valid needs Reset.
type VerifySession struct {
	verifier Verifier

	mu     sync.Mutex
	state  VerifyState
	result Verification
	err    error
	// gen invalidates a lookup that was running when Reset was called.
	gen uint64
}

// NewVerifySession starts a session in Idle.
func NewVerifySession(v Verifier) *VerifySession {
	return &VerifySession{verifier: v}
}

// State returns the current state.
func (s *VerifySession) State() VerifyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the last completed result and error.
func (s *VerifySession) Result() (Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

// Submit verifies code and returns the state the session ended in. A blank
// code is ignored. The lookup runs to completion with no retry.
func (s *VerifySession) Submit(ctx context.Context, code string) (VerifyState, error) {
	code = strings.TrimSpace(code)

	s.mu.Lock()
	switch {
	case s.state == StateVerifying:
		s.mu.Unlock()
		return StateVerifying, ErrVerifyInProgress
	case s.state == StateValid:
		s.mu.Unlock()
		return StateValid, ErrSessionComplete
	case code == "":
		st := s.state
		s.mu.Unlock()
		return st, nil
	}
	s.state = StateVerifying
	s.result, s.err = Verification{}, nil
	gen := s.gen
	s.mu.Unlock()

	res, err := s.verifier.Verify(ctx, code)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return s.state, nil
	}
	s.result, s.err = res, err
	switch {
	case err != nil:
		s.state = StateError
	case res.Valid:
		s.state = StateValid
	default:
		s.state = StateInvalid
	}
	return s.state, err
}

// Reset returns to Idle and forgets the previous result.
func (s *VerifySession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.result, s.err = Verification{}, nil
	s.gen++
}
