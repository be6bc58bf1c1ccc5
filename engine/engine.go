// Package engine defines the contracts of the external cipher and curve
// engines. Engines are pure: the same input always yields the same output.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/kochabx/stepviz/core/curve"
)

// IntermediateValue is a labelled snapshot of algorithm state after one
// step. Value is empty when the step is disabled in the mask.
type IntermediateValue struct {
	Transformation string `json:"transformation"`
	Value          string `json:"value"`
}

// Cipher runs AES over a single 16-byte block. key holds 4, 6 or 8 words.
type Cipher interface {
	Encrypt(ctx context.Context, block []uint8, key []uint32, mask uint64) ([]IntermediateValue, error)
	Decrypt(ctx context.Context, block []uint8, key []uint32, mask uint64) ([]IntermediateValue, error)
}

// Signer runs ECDSA over a curve.
type Signer interface {
	Sign(ctx context.Context, c curve.Params, req SignRequest) (SignResult, error)
	Verify(ctx context.Context, c curve.Params, req VerifyRequest) (VerifyResult, error)
}

// Engine is an engine that serves both visualizations.
type Engine interface {
	Cipher
	Signer
}

// AESSteps returns the number of intermediate values an AES run reports for
// a key of keyWords 32-bit words: four per round.
func AESSteps(keyWords int) int {
	return 4 * (keyWords + 6)
}

// HashAlgorithm selects the digest applied to the message before signing.
type HashAlgorithm int

const (
	HashNone HashAlgorithm = iota
	HashSHA1
	HashSHA224
	HashSHA256
	HashSHA384
	HashSHA512
)

var hashNames = [...]string{"none", "sha1", "sha224", "sha256", "sha384", "sha512"}

func (h HashAlgorithm) String() string {
	if h < 0 || int(h) >= len(hashNames) {
		return fmt.Sprintf("HashAlgorithm(%d)", int(h))
	}
	return hashNames[h]
}

// ParseHashAlgorithm accepts "sha256", "SHA-256" and similar spellings.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	name := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", ""))
	for i, n := range hashNames {
		if n == name {
			return HashAlgorithm(i), nil
		}
	}
	return HashNone, fmt.Errorf("unknown hash algorithm %q", s)
}

func (h HashAlgorithm) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *HashAlgorithm) UnmarshalText(text []byte) error {
	v, err := ParseHashAlgorithm(string(text))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// Point is an affine curve point in hex.
type Point struct {
	X string `json:"x"`
	Y string `json:"y"`
}

// Signature is an ECDSA signature in hex.
type Signature struct {
	R string `json:"r"`
	S string `json:"s"`
}

// SignRequest carries the nonce and private key as big-endian buffers of
// the curve scalar size.
type SignRequest struct {
	K          []uint8       `json:"-"`
	PrivateKey []uint8       `json:"-"`
	Message    string        `json:"message"`
	Hash       HashAlgorithm `json:"hash"`
}

// VerifyRequest carries the public key coordinates (field size) and the
// signature (scalar size) as big-endian buffers.
type VerifyRequest struct {
	X       []uint8       `json:"-"`
	Y       []uint8       `json:"-"`
	R       []uint8       `json:"-"`
	S       []uint8       `json:"-"`
	Message string        `json:"message"`
	Hash    HashAlgorithm `json:"hash"`
}

// SignResult holds the intermediate values of a signature.
type SignResult struct {
	Hash           string    `json:"hash"`
	TruncatedHash  string    `json:"truncated_hash"`
	GeneratedPoint Point     `json:"generated_point"`
	Signature      Signature `json:"signature"`
}

// Values flattens the result into display order.
func (r SignResult) Values() []IntermediateValue {
	return []IntermediateValue{
		{Transformation: "Hash", Value: r.Hash},
		{Transformation: "Truncated Hash", Value: r.TruncatedHash},
		{Transformation: "Generated Point X", Value: r.GeneratedPoint.X},
		{Transformation: "Generated Point Y", Value: r.GeneratedPoint.Y},
		{Transformation: "Signature R", Value: r.Signature.R},
		{Transformation: "Signature S", Value: r.Signature.S},
	}
}

// VerifyResult holds the intermediate values of a verification.
type VerifyResult struct {
	Hash           string `json:"hash"`
	TruncatedHash  string `json:"truncated_hash"`
	U1             string `json:"u1"`
	U2             string `json:"u2"`
	GeneratedPoint Point  `json:"generated_point"`
	Valid          bool   `json:"valid"`
}

// Values flattens the result into display order.
func (r VerifyResult) Values() []IntermediateValue {
	valid := "false"
	if r.Valid {
		valid = "true"
	}
	return []IntermediateValue{
		{Transformation: "Hash", Value: r.Hash},
		{Transformation: "Truncated Hash", Value: r.TruncatedHash},
		{Transformation: "U1", Value: r.U1},
		{Transformation: "U2", Value: r.U2},
		{Transformation: "Generated Point X", Value: r.GeneratedPoint.X},
		{Transformation: "Generated Point Y", Value: r.GeneratedPoint.Y},
		{Transformation: "Valid", Value: valid},
	}
}
