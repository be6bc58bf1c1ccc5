// Package session holds the per-visualization state: raw field text, mode,
// transform mask and the last intermediate values. Every mutation stores
// the change and recomputes synchronously.
//
// A session is not safe for concurrent use. Registry serializes access for
// callers that share sessions between goroutines.
package session

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/kochabx/stepviz/core/mask"
	"github.com/kochabx/stepviz/engine"
	"github.com/kochabx/stepviz/errors"
	"github.com/kochabx/stepviz/log"
	"github.com/kochabx/stepviz/store/memo"
)

// State is the recompute state of a session.
type State int

const (
	StateIdle State = iota
	StateReady
	StateComputed
	StateInvalidInput
	StateEngineFailed
)

var stateNames = [...]string{"idle", "ready", "computed", "invalid_input", "engine_failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Kind names the primitive a session visualizes.
type Kind string

const (
	KindAES   Kind = "aes"
	KindECDSA Kind = "ecdsa"
)

// Observer is told the outcome of every recompute.
type Observer interface {
	Computed(kind Kind, mode string, elapsed time.Duration, cached bool)
	Rejected(kind Kind, mode string, fields []string)
	EngineFailed(kind Kind, mode string, err error)
}

// Listener receives a snapshot after every recompute.
type Listener func(Snapshot)

type options struct {
	id       string
	memo     memo.Store
	observer Observer
	logger   *log.Logger
	mask     mask.Mask
}

// Option configures a session.
type Option func(*options)

// WithID sets the identifier reported in snapshots.
func WithID(id string) Option {
	return func(o *options) {
		o.id = id
	}
}

// WithMemo caches engine results in s.
func WithMemo(s memo.Store) Option {
	return func(o *options) {
		o.memo = s
	}
}

// WithObserver reports recompute outcomes to obs.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMask sets the initial transform mask. The default enables every step.
func WithMask(m mask.Mask) Option {
	return func(o *options) {
		o.mask = m
	}
}

func newOptions(opts []Option) options {
	o := options{memo: memo.Nop{}, logger: log.G, mask: mask.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// base carries what AES and ECDSA sessions share.
type base struct {
	kind     Kind
	opts     options
	state    State
	mask     mask.Mask
	fields   map[string]string
	feedback map[string]error
	values   []engine.IntermediateValue
	lastErr  error
	updated  time.Time

	listeners map[int]Listener
	nextID    int
}

func newBase(kind Kind, names []string, opts []Option) base {
	o := newOptions(opts)
	fields := make(map[string]string, len(names))
	for _, n := range names {
		fields[n] = ""
	}
	return base{
		kind:      kind,
		opts:      o,
		mask:      o.mask,
		fields:    fields,
		feedback:  map[string]error{},
		listeners: map[int]Listener{},
		updated:   time.Now(),
	}
}

// ID returns the session identifier, empty unless set WithID.
func (b *base) ID() string { return b.opts.id }

// Mask returns the current transform mask.
func (b *base) Mask() mask.Mask { return b.mask }

func (b *base) setRaw(name, raw string) error {
	if _, ok := b.fields[name]; !ok {
		return errors.UnknownField(name)
	}
	b.fields[name] = raw
	return nil
}

// setRaws assigns every field or none of them.
func (b *base) setRaws(fields map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		if _, ok := b.fields[name]; !ok {
			return errors.UnknownField(name)
		}
	}
	maps.Copy(b.fields, fields)
	return nil
}

// State returns the current state.
func (b *base) State() State { return b.state }

// Values returns the last computed sequence. It is kept when later input
// is invalid or the engine fails.
func (b *base) Values() []engine.IntermediateValue {
	return slices.Clone(b.values)
}

// Field returns the raw text of a field.
func (b *base) Field(name string) (string, bool) {
	v, ok := b.fields[name]
	return v, ok
}

// Feedback returns the per-field errors of the last recompute.
func (b *base) Feedback() map[string]error {
	return maps.Clone(b.feedback)
}

// Subscribe registers l and returns a function that removes it.
func (b *base) Subscribe(l Listener) (cancel func()) {
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	return func() { delete(b.listeners, id) }
}

func (b *base) notify(s Snapshot) {
	for _, id := range slices.Sorted(maps.Keys(b.listeners)) {
		b.listeners[id](s)
	}
}

// reject records per-field failures and keeps the previous values.
func (b *base) reject(mode string, failed map[string]error) {
	b.updated = time.Now()
	b.state = StateInvalidInput
	b.feedback = failed
	b.lastErr = nil
	fields := slices.Sorted(maps.Keys(failed))
	if b.opts.observer != nil {
		b.opts.observer.Rejected(b.kind, mode, fields)
	}
	b.opts.logger.Debug().Str("kind", string(b.kind)).Str("mode", mode).Strs("fields", fields).Msg("input rejected")
}

// compute runs call unless key is already cached.
func (b *base) compute(ctx context.Context, mode, key string, call func(context.Context) ([]engine.IntermediateValue, error)) error {
	start := time.Now()
	b.updated = start
	b.state = StateReady
	b.feedback = map[string]error{}

	values, ok, err := memo.GetJSON[[]engine.IntermediateValue](ctx, b.opts.memo, key)
	if err != nil {
		b.opts.logger.Warn().Err(err).Str("kind", string(b.kind)).Msg("memo lookup failed")
	}
	if !ok {
		values, err = call(ctx)
		if err != nil {
			b.state = StateEngineFailed
			b.lastErr = err
			if b.opts.observer != nil {
				b.opts.observer.EngineFailed(b.kind, mode, err)
			}
			b.opts.logger.Warn().Err(err).Str("kind", string(b.kind)).Str("mode", mode).Msg("engine call failed")
			return err
		}
		if err := memo.SetJSON(ctx, b.opts.memo, key, values); err != nil {
			b.opts.logger.Warn().Err(err).Str("kind", string(b.kind)).Msg("memo store failed")
		}
	}

	b.state = StateComputed
	b.values = values
	b.lastErr = nil
	if b.opts.observer != nil {
		b.opts.observer.Computed(b.kind, mode, time.Since(start), ok)
	}
	return nil
}

func (b *base) snapshot(mode string) Snapshot {
	s := Snapshot{
		ID:        b.opts.id,
		Kind:      b.kind,
		Mode:      mode,
		State:     b.state,
		Fields:    maps.Clone(b.fields),
		Values:    slices.Clone(b.values),
		UpdatedAt: b.updated,
	}
	if len(b.feedback) > 0 {
		s.Feedback = make(map[string]string, len(b.feedback))
		for k, v := range b.feedback {
			s.Feedback[k] = errors.FromError(v).GetMessage()
		}
	}
	if b.lastErr != nil {
		s.Error = b.lastErr.Error()
	}
	return s
}

// Snapshot is the serializable view of a session.
type Snapshot struct {
	ID        string                     `json:"id"`
	Kind      Kind                       `json:"kind"`
	Mode      string                     `json:"mode"`
	State     State                      `json:"state"`
	Mask      string                     `json:"mask,omitempty"`
	Curve     string                     `json:"curve,omitempty"`
	Hash      string                     `json:"hash,omitempty"`
	Message   string                     `json:"message,omitempty"`
	Fields    map[string]string          `json:"fields"`
	Feedback  map[string]string          `json:"feedback,omitempty"`
	Values    []engine.IntermediateValue `json:"values"`
	Error     string                     `json:"error,omitempty"`
	UpdatedAt time.Time                  `json:"updated_at"`
}
