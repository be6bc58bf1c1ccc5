// Package enginetest provides an in-memory engine that records its calls.
package enginetest

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/kochabx/stepviz/core/curve"
	"github.com/kochabx/stepviz/engine"
)

// Call records one engine invocation.
type Call struct {
	Op    string
	Block []uint8
	Key   []uint32
	Mask  uint64
	Curve string
	Sign  engine.SignRequest
	Check engine.VerifyRequest
}

// Fake returns deterministic values. The AES output has one entry per step;
// disabled steps carry an empty value just like a real engine.
type Fake struct {
	mu    sync.Mutex
	calls []Call

	// Err, when set, is returned by every call.
	Err error
}

var aesLabels = [...]string{"Sub Bytes", "Shift Rows", "Mix Columns", "Add Round Key"}

func (f *Fake) record(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.Err
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns the number of recorded calls.
func (f *Fake) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *Fake) Encrypt(ctx context.Context, block []uint8, key []uint32, mask uint64) ([]engine.IntermediateValue, error) {
	return f.aes(ctx, "encrypt", block, key, mask)
}

func (f *Fake) Decrypt(ctx context.Context, block []uint8, key []uint32, mask uint64) ([]engine.IntermediateValue, error) {
	return f.aes(ctx, "decrypt", block, key, mask)
}

func (f *Fake) aes(ctx context.Context, op string, block []uint8, key []uint32, mask uint64) ([]engine.IntermediateValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	call := Call{Op: op, Block: append([]uint8(nil), block...), Key: append([]uint32(nil), key...), Mask: mask}
	if err := f.record(call); err != nil {
		return nil, err
	}

	steps := engine.AESSteps(len(key))
	out := make([]engine.IntermediateValue, steps)
	for i := range out {
		label := aesLabels[(i+3)%4]
		if i == 0 {
			label = "Initial Add Round Key"
		}
		out[i].Transformation = label
		if i < 64 && mask&(1<<uint(i)) != 0 {
			out[i].Value = fmt.Sprintf("%02x%s", i, hex.EncodeToString(block))
		}
	}
	return out, nil
}

func (f *Fake) Sign(ctx context.Context, c curve.Params, req engine.SignRequest) (engine.SignResult, error) {
	if err := ctx.Err(); err != nil {
		return engine.SignResult{}, err
	}
	if err := f.record(Call{Op: "sign", Curve: c.Name, Sign: req}); err != nil {
		return engine.SignResult{}, err
	}
	return engine.SignResult{
		Hash:           req.Hash.String() + ":" + hex.EncodeToString([]byte(req.Message)),
		TruncatedHash:  hex.EncodeToString([]byte(req.Message)),
		GeneratedPoint: engine.Point{X: hex.EncodeToString(req.K), Y: c.Gy.String()},
		Signature:      engine.Signature{R: hex.EncodeToString(req.K), S: hex.EncodeToString(req.PrivateKey)},
	}, nil
}

func (f *Fake) Verify(ctx context.Context, c curve.Params, req engine.VerifyRequest) (engine.VerifyResult, error) {
	if err := ctx.Err(); err != nil {
		return engine.VerifyResult{}, err
	}
	if err := f.record(Call{Op: "verify", Curve: c.Name, Check: req}); err != nil {
		return engine.VerifyResult{}, err
	}
	return engine.VerifyResult{
		Hash:           req.Hash.String(),
		TruncatedHash:  hex.EncodeToString([]byte(req.Message)),
		U1:             hex.EncodeToString(req.R),
		U2:             hex.EncodeToString(req.S),
		GeneratedPoint: engine.Point{X: hex.EncodeToString(req.X), Y: hex.EncodeToString(req.Y)},
		Valid:          hex.EncodeToString(req.R) == hex.EncodeToString(req.X),
	}, nil
}

var _ engine.Engine = (*Fake)(nil)
