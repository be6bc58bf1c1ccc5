package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/stepviz/errors"
)

// fakeServer blocks in Run until Shutdown, like an HTTP server.
type fakeServer struct {
	runErr   error
	stop     chan struct{}
	once     sync.Once
	shutdown bool
	mu       sync.Mutex
}

func newFakeServer(runErr error) *fakeServer {
	return &fakeServer{runErr: runErr, stop: make(chan struct{})}
}

func (s *fakeServer) Run() error {
	if s.runErr != nil {
		return s.runErr
	}
	<-s.stop
	return http.ErrServerClosed
}

func (s *fakeServer) Shutdown(context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *fakeServer) wasShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

func TestStartStop(t *testing.T) {
	a, b := newFakeServer(nil), newFakeServer(nil)
	var order []string
	var mu sync.Mutex
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}

	app := New(WithServers(a, nil, b), WithClose("first", record("first"), 0))
	require.NoError(t, app.RegisterClose("second", record("second"), time.Second))

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	require.Eventually(t, func() bool { return app.Info().Started }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, app.AddServer(newFakeServer(nil)), ErrAlreadyStarted)
	app.Stop()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return")
	}
	assert.True(t, a.wasShutdown())
	assert.True(t, b.wasShutdown())
	assert.Equal(t, []string{"second", "first"}, order)
	assert.Equal(t, Info{Started: true, ServerCount: 2, CloseCount: 2}, app.Info())

	assert.ErrorIs(t, app.Start(), ErrAlreadyStarted)
}

func TestServerFailureStopsOthers(t *testing.T) {
	healthy := newFakeServer(nil)
	app := New(WithServers(healthy, newFakeServer(fmt.Errorf("listen tcp :80: bind: permission denied"))))

	err := app.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	assert.True(t, healthy.wasShutdown())
}

func TestWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	app := New(WithContext(ctx), WithServers(newFakeServer(nil)))

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()
	cancel()

	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after the parent context was cancelled")
	}
}

func TestNilArguments(t *testing.T) {
	app := New(WithClose("nil", nil, 0))
	assert.Zero(t, app.Info().CloseCount)
	assert.True(t, errors.Is(app.AddServer(nil), ErrNilServer))
	assert.True(t, errors.Is(app.RegisterClose("nil", nil, 0), ErrNilClose))
}

func TestCloseTaskFailures(t *testing.T) {
	app := New(WithCloseTimeout(50 * time.Millisecond))

	tests := []struct {
		name string
		fn   func(context.Context) error
		want error
	}{
		{"panic", func(context.Context) error { panic("boom") }, ErrClosePanic},
		{"timeout", func(ctx context.Context) error { <-ctx.Done(); time.Sleep(10 * time.Millisecond); return nil }, context.DeadlineExceeded},
		{"error", func(context.Context) error { return fmt.Errorf("flush failed") }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := app.runCloseTask(CloseFunc{Name: tt.name, Fn: tt.fn})
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
