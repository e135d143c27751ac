package session

import (
	"context"
	"errors"
	"sync"

	"github.com/desertthunder/reportweaver/internal/services"
)

var errDropped = errors.New("connection reset by peer")

// fakeSource hands out fakeStreams and remembers them.
type fakeSource struct {
	mu       sync.Mutex
	streams  []*fakeStream
	dialErr  error
	sessions []string
}

func (s *fakeSource) Dial(ctx context.Context, handler services.StatusHandler) (services.StatusStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = append(s.sessions, services.SessionID(ctx))
	if s.dialErr != nil {
		return nil, s.dialErr
	}

	st := &fakeStream{handler: handler, done: make(chan struct{})}
	s.streams = append(s.streams, st)
	return st, nil
}

func (s *fakeSource) dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *fakeSource) latest() *fakeStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.streams) == 0 {
		return nil
	}
	return s.streams[len(s.streams)-1]
}

func (s *fakeSource) setDialErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialErr = err
}

// fakeStream behaves like a StatusConn: frames stop once it is closed.
type fakeStream struct {
	handler services.StatusHandler

	mu     sync.Mutex
	closed bool
	closes int
	err    error
	done   chan struct{}
}

// emit pushes a frame the way the read loop would. It reports whether the frame was delivered.
func (f *fakeStream) emit(text string) bool {
	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()

	if closed {
		return false
	}
	f.handler(text)
	return true
}

// drop simulates the far end going away.
func (f *fakeStream) drop(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.err = err
	close(f.done)
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.done)
	return nil
}

func (f *fakeStream) Done() <-chan struct{} { return f.done }

func (f *fakeStream) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeStream) closeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

func (f *fakeStream) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
