package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/kochabx/stepviz/core/curve"
	"github.com/kochabx/stepviz/core/hexstr"
	"github.com/kochabx/stepviz/engine"
	"github.com/kochabx/stepviz/store/memo"
)

// ECDSA field names. Scalars take the byte size of the curve order,
// coordinates the byte size of the field prime.
const (
	FieldK          = "k"
	FieldPrivateKey = "private_key"
	FieldPublicX    = "public_x"
	FieldPublicY    = "public_y"
	FieldR          = "r"
	FieldS          = "s"
)

// ECDSAMode selects signing or verification.
type ECDSAMode int

const (
	ECDSASign ECDSAMode = iota
	ECDSAVerify
)

func (m ECDSAMode) String() string {
	switch m {
	case ECDSASign:
		return "sign"
	case ECDSAVerify:
		return "verify"
	}
	return fmt.Sprintf("ECDSAMode(%d)", int(m))
}

func ParseECDSAMode(s string) (ECDSAMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sign":
		return ECDSASign, nil
	case "verify":
		return ECDSAVerify, nil
	}
	return 0, fmt.Errorf("unknown ecdsa mode %q", s)
}

type fieldSpec struct {
	name   string
	scalar bool
}

var (
	signFields   = []fieldSpec{{FieldK, true}, {FieldPrivateKey, true}}
	verifyFields = []fieldSpec{{FieldPublicX, false}, {FieldPublicY, false}, {FieldR, true}, {FieldS, true}}
)

func (m ECDSAMode) fields() []fieldSpec {
	if m == ECDSAVerify {
		return verifyFields
	}
	return signFields
}

// Fields returns the names of the fields the mode reads, in order.
func (m ECDSAMode) Fields() []string {
	specs := m.fields()
	out := make([]string, len(specs))
	for i, f := range specs {
		out[i] = f.name
	}
	return out
}

// ECDSA visualizes one signature or verification.
type ECDSA struct {
	base
	signer  engine.Signer
	mode    ECDSAMode
	curve   curve.Params
	hash    engine.HashAlgorithm
	message string
}

// NewECDSA returns an idle signing session over c with SHA-256.
func NewECDSA(signer engine.Signer, c curve.Params, opts ...Option) (*ECDSA, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &ECDSA{
		base:   newBase(KindECDSA, []string{FieldK, FieldPrivateKey, FieldPublicX, FieldPublicY, FieldR, FieldS}, opts),
		signer: signer,
		curve:  c,
		hash:   engine.HashSHA256,
	}, nil
}

func (s *ECDSA) Mode() ECDSAMode            { return s.mode }
func (s *ECDSA) Curve() curve.Params        { return s.curve }
func (s *ECDSA) Hash() engine.HashAlgorithm { return s.hash }
func (s *ECDSA) Message() string            { return s.message }

func (s *ECDSA) SetField(ctx context.Context, name, raw string) error {
	if err := s.setRaw(name, raw); err != nil {
		return err
	}
	return s.Recompute(ctx)
}

// SetFields assigns several fields and recomputes once. Unknown names
// leave the session untouched.
func (s *ECDSA) SetFields(ctx context.Context, fields map[string]string) error {
	if err := s.setRaws(fields); err != nil {
		return err
	}
	return s.Recompute(ctx)
}

// ECDSAInput is the editable state of an ECDSA session apart from the curve.
type ECDSAInput struct {
	Mode    ECDSAMode
	Hash    engine.HashAlgorithm
	Message string
	Fields  map[string]string
}

// Load applies in and recomputes once.
func (s *ECDSA) Load(ctx context.Context, in ECDSAInput) error {
	if err := s.setRaws(in.Fields); err != nil {
		return err
	}
	s.mode = in.Mode
	s.hash = in.Hash
	s.message = in.Message
	return s.Recompute(ctx)
}

func (s *ECDSA) SetMode(ctx context.Context, m ECDSAMode) error {
	s.mode = m
	return s.Recompute(ctx)
}

// SetMessage stores the message to sign or verify. It is plain text and is
// hashed by the engine.
func (s *ECDSA) SetMessage(ctx context.Context, msg string) error {
	s.message = msg
	return s.Recompute(ctx)
}

// SetCurve switches curves. Invalid parameters are returned without
// touching the session.
func (s *ECDSA) SetCurve(ctx context.Context, c curve.Params) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.curve = c
	return s.Recompute(ctx)
}

func (s *ECDSA) SetHash(ctx context.Context, h engine.HashAlgorithm) error {
	s.hash = h
	return s.Recompute(ctx)
}

// Recompute converts the active fields to curve-sized buffers and calls the
// signer. See AES.Recompute for the error contract.
func (s *ECDSA) Recompute(ctx context.Context) error {
	scalarBytes, fieldBytes := s.curve.ScalarBytes(), s.curve.FieldBytes()
	failed := map[string]error{}
	buffers := map[string][]uint8{}

	for _, f := range s.mode.fields() {
		size := fieldBytes
		if f.scalar {
			size = scalarBytes
		}
		h, err := hexstr.Parse(s.fields[f.name])
		if err != nil {
			failed[f.name] = err
			continue
		}
		buf, err := h.ToBytes(size)
		if err != nil {
			failed[f.name] = err
			continue
		}
		buffers[f.name] = buf
	}

	mode := s.mode.String()
	if len(failed) > 0 {
		s.reject(mode, failed)
		s.notify(s.Snapshot())
		return nil
	}

	parts := [][]byte{
		[]byte(KindECDSA), []byte(mode),
		[]byte(s.curve.P.String()), []byte(s.curve.A.String()), []byte(s.curve.B.String()),
		[]byte(s.curve.Gx.String()), []byte(s.curve.Gy.String()), []byte(s.curve.N.String()),
		[]byte(s.hash.String()), []byte(s.message),
	}
	for _, name := range s.mode.Fields() {
		parts = append(parts, buffers[name])
	}

	c, hash, msg := s.curve, s.hash, s.message
	err := s.compute(ctx, mode, memo.Key(parts...), func(ctx context.Context) ([]engine.IntermediateValue, error) {
		if s.mode == ECDSAVerify {
			res, err := s.signer.Verify(ctx, c, engine.VerifyRequest{
				X:       buffers[FieldPublicX],
				Y:       buffers[FieldPublicY],
				R:       buffers[FieldR],
				S:       buffers[FieldS],
				Message: msg,
				Hash:    hash,
			})
			if err != nil {
				return nil, err
			}
			return res.Values(), nil
		}
		res, err := s.signer.Sign(ctx, c, engine.SignRequest{
			K:          buffers[FieldK],
			PrivateKey: buffers[FieldPrivateKey],
			Message:    msg,
			Hash:       hash,
		})
		if err != nil {
			return nil, err
		}
		return res.Values(), nil
	})
	s.notify(s.Snapshot())
	return err
}

func (s *ECDSA) Snapshot() Snapshot {
	snap := s.snapshot(s.mode.String())
	snap.Curve = s.curve.Name
	snap.Hash = s.hash.String()
	snap.Message = s.message
	return snap
}
