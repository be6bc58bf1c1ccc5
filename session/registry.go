package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/kochabx/stepviz/core/curve"
	"github.com/kochabx/stepviz/engine"
	"github.com/kochabx/stepviz/errors"
	"github.com/kochabx/stepviz/log"
)

// RegistryConfig bounds the number and lifetime of sessions.
type RegistryConfig struct {
	// MaxSessions 0 表示不限制
	MaxSessions int           `mapstructure:"max_sessions" json:"max_sessions" default:"1024" validate:"gte=0"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout" json:"idle_timeout" default:"30m"`
	// SweepSpec 标准 5 字段 cron 表达式或 @every 描述符
	SweepSpec string `mapstructure:"sweep_spec" json:"sweep_spec" default:"@every 1m"`
}

// Session is the part of AES and ECDSA the registry needs.
type Session interface {
	ID() string
	Snapshot() Snapshot
	Subscribe(Listener) (cancel func())
	Recompute(ctx context.Context) error
}

var (
	_ Session = (*AES)(nil)
	_ Session = (*ECDSA)(nil)
)

type entry struct {
	mu       sync.Mutex
	sess     Session
	lastUsed time.Time
	done     chan struct{}
}

// Registry maps ids to sessions and evicts idle ones on a cron schedule.
// Calls on one session are serialized; different sessions run in parallel.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	config  RegistryConfig
	cron    *cron.Cron
	logger  *log.Logger
	now     func() time.Time
	stopped chan struct{}
	once    sync.Once
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

func WithRegistryLogger(l *log.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry validates the sweep schedule and returns an empty registry.
// Sweeping starts with Run.
func NewRegistry(config RegistryConfig, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		entries: map[string]*entry{},
		config:  config,
		logger:  log.G,
		now:     time.Now,
		stopped: make(chan struct{}),
		cron:    cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
	}
	for _, opt := range opts {
		opt(r)
	}
	if config.IdleTimeout > 0 && config.SweepSpec != "" {
		if _, err := r.cron.AddFunc(config.SweepSpec, func() { r.Sweep() }); err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "invalid sweep spec %q", config.SweepSpec)
		}
	}
	return r, nil
}

// NewAES creates and registers an AES session.
func (r *Registry) NewAES(cipher engine.Cipher, opts ...Option) (*AES, error) {
	id := uuid.NewString()
	s := NewAES(cipher, append(opts, WithID(id))...)
	if err := r.add(id, s); err != nil {
		return nil, err
	}
	return s, nil
}

// NewECDSA creates and registers an ECDSA session.
func (r *Registry) NewECDSA(signer engine.Signer, c curve.Params, opts ...Option) (*ECDSA, error) {
	id := uuid.NewString()
	s, err := NewECDSA(signer, c, append(opts, WithID(id))...)
	if err != nil {
		return nil, err
	}
	if err := r.add(id, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Registry) add(id string, s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.config.MaxSessions > 0 && len(r.entries) >= r.config.MaxSessions {
		return errors.New(errors.CodeTooManySessions, "session limit %d reached", r.config.MaxSessions)
	}
	r.entries[id] = &entry{sess: s, lastUsed: r.now(), done: make(chan struct{})}
	r.logger.Debug().Str("id", id).Msg("session created")
	return nil
}

func (r *Registry) get(id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound("session %s not found", id)
	}
	return e, nil
}

// Do runs fn with exclusive access to the session.
func (r *Registry) Do(id string, fn func(Session) error) error {
	e, err := r.get(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = r.now()
	return fn(e.sess)
}

// DoAES is Do for AES sessions.
func (r *Registry) DoAES(id string, fn func(*AES) error) error {
	return r.Do(id, func(s Session) error {
		a, ok := s.(*AES)
		if !ok {
			return errors.BadRequest("session %s is not an aes session", id)
		}
		return fn(a)
	})
}

// DoECDSA is Do for ECDSA sessions.
func (r *Registry) DoECDSA(id string, fn func(*ECDSA) error) error {
	return r.Do(id, func(s Session) error {
		c, ok := s.(*ECDSA)
		if !ok {
			return errors.BadRequest("session %s is not an ecdsa session", id)
		}
		return fn(c)
	})
}

// Snapshot returns the current view of a session.
func (r *Registry) Snapshot(id string) (Snapshot, error) {
	var snap Snapshot
	err := r.Do(id, func(s Session) error {
		snap = s.Snapshot()
		return nil
	})
	return snap, err
}

// Done returns a channel closed when the session is deleted or evicted.
func (r *Registry) Done(id string) (<-chan struct{}, error) {
	e, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return e.done, nil
}

// Delete removes a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if !ok {
		return errors.NotFound("session %s not found", id)
	}
	close(e.done)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep evicts sessions unused for longer than IdleTimeout and returns how
// many were removed. Sessions busy in Do are skipped.
func (r *Registry) Sweep() int {
	if r.config.IdleTimeout <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.config.IdleTimeout)

	r.mu.Lock()
	var evicted []*entry
	for id, e := range r.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.lastUsed.Before(cutoff) {
			delete(r.entries, id)
			evicted = append(evicted, e)
		}
		e.mu.Unlock()
	}
	remaining := len(r.entries)
	r.mu.Unlock()

	for _, e := range evicted {
		close(e.done)
	}
	if len(evicted) > 0 {
		r.logger.Info().Int("evicted", len(evicted)).Int("remaining", remaining).Msg("idle sessions swept")
	}
	return len(evicted)
}

// Run starts the sweep schedule and blocks until Shutdown.
func (r *Registry) Run() error {
	r.cron.Start()
	r.logger.Info().Str("spec", r.config.SweepSpec).Dur("idle_timeout", r.config.IdleTimeout).Msg("session sweeper started")
	<-r.stopped
	<-r.cron.Stop().Done()
	return nil
}

// Shutdown stops the schedule and waits for a running sweep.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.once.Do(func() { close(r.stopped) })
	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
