// Package exec drives an engine executable that speaks JSON over stdin and
// stdout. One process is started per call.
package exec

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	osexec "os/exec"
	"strings"
	"time"

	"github.com/kochabx/stepviz/core/curve"
	"github.com/kochabx/stepviz/core/mask"
	"github.com/kochabx/stepviz/engine"
	"github.com/kochabx/stepviz/errors"
	"github.com/kochabx/stepviz/log"
)

// Config describes the engine executable.
type Config struct {
	Command string        `mapstructure:"command" json:"command" validate:"required"`
	Args    []string      `mapstructure:"args" json:"args"`
	Env     []string      `mapstructure:"env" json:"env"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" default:"10s"`
}

// Request is the JSON document written to the engine's stdin.
type Request struct {
	Op         string                `json:"op"`
	Block      string                `json:"block,omitempty"`
	Key        []uint32              `json:"key,omitempty"`
	Mask       string                `json:"mask,omitempty"`
	Curve      *curve.Params         `json:"curve,omitempty"`
	K          string                `json:"k,omitempty"`
	PrivateKey string                `json:"private_key,omitempty"`
	X          string                `json:"x,omitempty"`
	Y          string                `json:"y,omitempty"`
	R          string                `json:"r,omitempty"`
	S          string                `json:"s,omitempty"`
	Message    string                `json:"message,omitempty"`
	Hash       *engine.HashAlgorithm `json:"hash,omitempty"`
}

// Response is the JSON document read from the engine's stdout.
type Response struct {
	Values []engine.IntermediateValue `json:"values,omitempty"`
	Sign   *engine.SignResult         `json:"sign,omitempty"`
	Verify *engine.VerifyResult       `json:"verify,omitempty"`
	Error  string                     `json:"error,omitempty"`
}

// Engine runs the configured executable.
type Engine struct {
	config Config
	logger *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for call tracing.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New validates the config and returns an Engine.
func New(config Config, opts ...Option) (*Engine, error) {
	if strings.TrimSpace(config.Command) == "" {
		return nil, errors.BadRequest("engine command is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	e := &Engine{config: config, logger: log.G}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Encrypt(ctx context.Context, block []uint8, key []uint32, m uint64) ([]engine.IntermediateValue, error) {
	return e.aes(ctx, "encrypt", block, key, m)
}

func (e *Engine) Decrypt(ctx context.Context, block []uint8, key []uint32, m uint64) ([]engine.IntermediateValue, error) {
	return e.aes(ctx, "decrypt", block, key, m)
}

func (e *Engine) aes(ctx context.Context, op string, block []uint8, key []uint32, m uint64) ([]engine.IntermediateValue, error) {
	resp, err := e.call(ctx, Request{
		Op:    op,
		Block: hex.EncodeToString(block),
		Key:   key,
		Mask:  mask.Mask(m).String(),
	})
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (e *Engine) Sign(ctx context.Context, c curve.Params, req engine.SignRequest) (engine.SignResult, error) {
	resp, err := e.call(ctx, Request{
		Op:         "sign",
		Curve:      &c,
		K:          hex.EncodeToString(req.K),
		PrivateKey: hex.EncodeToString(req.PrivateKey),
		Message:    req.Message,
		Hash:       &req.Hash,
	})
	if err != nil {
		return engine.SignResult{}, err
	}
	if resp.Sign == nil {
		return engine.SignResult{}, errors.Engine("sign", fmt.Errorf("response has no sign result"))
	}
	return *resp.Sign, nil
}

func (e *Engine) Verify(ctx context.Context, c curve.Params, req engine.VerifyRequest) (engine.VerifyResult, error) {
	resp, err := e.call(ctx, Request{
		Op:      "verify",
		Curve:   &c,
		X:       hex.EncodeToString(req.X),
		Y:       hex.EncodeToString(req.Y),
		R:       hex.EncodeToString(req.R),
		S:       hex.EncodeToString(req.S),
		Message: req.Message,
		Hash:    &req.Hash,
	})
	if err != nil {
		return engine.VerifyResult{}, err
	}
	if resp.Verify == nil {
		return engine.VerifyResult{}, errors.Engine("verify", fmt.Errorf("response has no verify result"))
	}
	return *resp.Verify, nil
}

func (e *Engine) call(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Engine(req.Op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := osexec.CommandContext(ctx, e.config.Command, e.config.Args...)
	cmd.Env = append(os.Environ(), e.config.Env...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			runErr = ctxErr
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			runErr = fmt.Errorf("%w: %s", runErr, msg)
		}
		e.logger.Warn().Err(runErr).Str("op", req.Op).Dur("elapsed", elapsed).Msg("engine process failed")
		return nil, errors.Engine(req.Op, runErr)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, errors.Engine(req.Op, fmt.Errorf("decode response: %w", err))
	}
	if resp.Error != "" {
		return nil, errors.Engine(req.Op, errors.New(errors.CodeEngine, "%s", resp.Error))
	}

	e.logger.Debug().Str("op", req.Op).Dur("elapsed", elapsed).Int("values", len(resp.Values)).Msg("engine call")
	return &resp, nil
}

var _ engine.Engine = (*Engine)(nil)
