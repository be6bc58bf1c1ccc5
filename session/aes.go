package session

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/kochabx/stepviz/core/hexstr"
	"github.com/kochabx/stepviz/core/mask"
	"github.com/kochabx/stepviz/engine"
	"github.com/kochabx/stepviz/store/memo"
)

// AES field names.
const (
	FieldPlaintext     = "plaintext"
	FieldCiphertext    = "ciphertext"
	FieldEncryptionKey = "encryption_key"
	FieldDecryptionKey = "decryption_key"
)

// BlockBytes is the AES block size.
const BlockBytes = 16

// AESMode selects the direction of an AES session.
type AESMode int

const (
	AESEncryption AESMode = iota
	AESDecryption
)

func (m AESMode) String() string {
	switch m {
	case AESEncryption:
		return "encryption"
	case AESDecryption:
		return "decryption"
	}
	return fmt.Sprintf("AESMode(%d)", int(m))
}

// ParseAESMode accepts "encryption"/"encrypt" and "decryption"/"decrypt".
func ParseAESMode(s string) (AESMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "encryption", "encrypt":
		return AESEncryption, nil
	case "decryption", "decrypt":
		return AESDecryption, nil
	}
	return 0, fmt.Errorf("unknown aes mode %q", s)
}

// Fields returns the block and key fields the mode reads.
func (m AESMode) Fields() (block, key string) {
	if m == AESDecryption {
		return FieldCiphertext, FieldDecryptionKey
	}
	return FieldPlaintext, FieldEncryptionKey
}

// KeyWords picks the AES key size for a key of h's digit count: AES-128 up
// to 32 digits, AES-256 otherwise. Shorter AES-256 keys are left-zero-padded.
func KeyWords(h hexstr.HexString) int {
	if h.Len() <= 32 {
		return 4
	}
	return 8
}

// AES visualizes one AES block operation.
type AES struct {
	base
	cipher engine.Cipher
	mode   AESMode
}

// NewAES returns an idle encryption session with empty fields.
func NewAES(cipher engine.Cipher, opts ...Option) *AES {
	return &AES{
		base:   newBase(KindAES, []string{FieldPlaintext, FieldCiphertext, FieldEncryptionKey, FieldDecryptionKey}, opts),
		cipher: cipher,
	}
}

func (s *AES) Mode() AESMode { return s.mode }

// SetField stores raw text for a field and recomputes. Fields of the other
// mode are kept so switching back restores them.
func (s *AES) SetField(ctx context.Context, name, raw string) error {
	if err := s.setRaw(name, raw); err != nil {
		return err
	}
	return s.Recompute(ctx)
}

// SetFields assigns several fields and recomputes once. Unknown names
// leave the session untouched.
func (s *AES) SetFields(ctx context.Context, fields map[string]string) error {
	if err := s.setRaws(fields); err != nil {
		return err
	}
	return s.Recompute(ctx)
}

// AESInput is the full editable state of an AES session.
type AESInput struct {
	Mode   AESMode
	Fields map[string]string
}

// Load applies in and recomputes once.
func (s *AES) Load(ctx context.Context, in AESInput) error {
	if err := s.setRaws(in.Fields); err != nil {
		return err
	}
	s.mode = in.Mode
	return s.Recompute(ctx)
}

func (s *AES) SetMode(ctx context.Context, m AESMode) error {
	s.mode = m
	return s.Recompute(ctx)
}

// Toggle flips one step of the transform mask and recomputes.
func (s *AES) Toggle(ctx context.Context, step mask.Step) error {
	s.mask = s.mask.Toggle(step)
	return s.Recompute(ctx)
}

// Recompute converts the active fields and calls the engine. Invalid input
// is recorded in the state and feedback, never returned; the error is
// non-nil only when the engine call fails.
func (s *AES) Recompute(ctx context.Context) error {
	blockField, keyField := s.mode.Fields()
	failed := map[string]error{}

	var block []uint8
	if h, err := hexstr.Parse(s.fields[blockField]); err != nil {
		failed[blockField] = err
	} else if block, err = h.ToBytes(BlockBytes); err != nil {
		failed[blockField] = err
	}

	var key []uint32
	if h, err := hexstr.Parse(s.fields[keyField]); err != nil {
		failed[keyField] = err
	} else if key, err = h.ToWords(KeyWords(h)); err != nil {
		failed[keyField] = err
	}

	mode := s.mode.String()
	if len(failed) > 0 {
		s.reject(mode, failed)
		s.notify(s.Snapshot())
		return nil
	}

	m := s.mask.Uint64()
	digest := memo.Key([]byte(KindAES), []byte(mode), block, wordBytes(key), binary.BigEndian.AppendUint64(nil, m))
	err := s.compute(ctx, mode, digest, func(ctx context.Context) ([]engine.IntermediateValue, error) {
		if s.mode == AESDecryption {
			return s.cipher.Decrypt(ctx, block, key, m)
		}
		return s.cipher.Encrypt(ctx, block, key, m)
	})
	s.notify(s.Snapshot())
	return err
}

func (s *AES) Snapshot() Snapshot {
	snap := s.snapshot(s.mode.String())
	snap.Mask = s.mask.String()
	return snap
}

func wordBytes(words []uint32) []byte {
	out := make([]byte, 0, 4*len(words))
	for _, w := range words {
		out = binary.BigEndian.AppendUint32(out, w)
	}
	return out
}
