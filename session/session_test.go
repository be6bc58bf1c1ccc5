package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/stepviz/core/curve"
	"github.com/kochabx/stepviz/core/mask"
	"github.com/kochabx/stepviz/engine"
	"github.com/kochabx/stepviz/engine/enginetest"
	"github.com/kochabx/stepviz/errors"
	"github.com/kochabx/stepviz/store/memo"
)

const (
	testBlock = "00112233445566778899aabbccddeeff"
	testKey   = "000102030405060708090a0b0c0d0e0f"
)

type recorder struct {
	mu       sync.Mutex
	computed []bool
	rejected [][]string
	failed   int
}

func (r *recorder) Computed(_ Kind, _ string, _ time.Duration, cached bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.computed = append(r.computed, cached)
}

func (r *recorder) Rejected(_ Kind, _ string, fields []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected = append(r.rejected, fields)
}

func (r *recorder) EngineFailed(Kind, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

func TestAESEncryption(t *testing.T) {
	ctx := context.Background()
	fake := &enginetest.Fake{}
	s := NewAES(fake)
	assert.Equal(t, StateIdle, s.State())

	require.NoError(t, s.SetField(ctx, FieldPlaintext, testBlock))
	require.NoError(t, s.SetField(ctx, FieldEncryptionKey, testKey))

	assert.Equal(t, StateComputed, s.State())
	assert.Len(t, s.Values(), 40)

	calls := fake.Calls()
	last := calls[len(calls)-1]
	assert.Equal(t, "encrypt", last.Op)
	assert.Equal(t, uint8(0x00), last.Block[0])
	assert.Equal(t, uint8(0xff), last.Block[15])
	assert.Equal(t, []uint32{0x00010203, 0x04050607, 0x08090a0b, 0x0c0d0e0f}, last.Key)
	assert.Equal(t, mask.Default().Uint64(), last.Mask)
}

func TestAESModeSelectsFields(t *testing.T) {
	ctx := context.Background()
	fake := &enginetest.Fake{}
	s := NewAES(fake)

	require.NoError(t, s.SetField(ctx, FieldPlaintext, "not hex"))
	require.NoError(t, s.SetField(ctx, FieldEncryptionKey, "zz"))
	assert.Equal(t, StateInvalidInput, s.State())
	assert.Zero(t, fake.Count())

	require.NoError(t, s.SetField(ctx, FieldCiphertext, "ff"))
	require.NoError(t, s.SetField(ctx, FieldDecryptionKey, "01"))
	assert.Equal(t, StateInvalidInput, s.State(), "decryption fields are inactive in encryption mode")

	require.NoError(t, s.SetMode(ctx, AESDecryption))
	assert.Equal(t, StateComputed, s.State())
	assert.Empty(t, s.Feedback())

	last := fake.Calls()[fake.Count()-1]
	assert.Equal(t, "decrypt", last.Op)
	assert.Equal(t, uint8(0xff), last.Block[15])
	assert.Equal(t, []uint32{0, 0, 0, 1}, last.Key)
}

func TestAESInvalidInputKeepsValues(t *testing.T) {
	ctx := context.Background()
	s := NewAES(&enginetest.Fake{})
	require.NoError(t, s.Recompute(ctx))
	require.Equal(t, StateComputed, s.State())
	before := s.Values()

	require.NoError(t, s.SetField(ctx, FieldPlaintext, "ff:ff"))
	assert.Equal(t, StateInvalidInput, s.State())
	assert.Equal(t, before, s.Values())
	assert.True(t, errors.Is(s.Feedback()[FieldPlaintext], errors.ErrParseHex))

	require.NoError(t, s.SetField(ctx, FieldPlaintext, strings.Repeat("f", 33)))
	assert.True(t, errors.Is(s.Feedback()[FieldPlaintext], errors.ErrOverflow))

	snap := s.Snapshot()
	assert.Equal(t, "given hex string would overflow the length specified for the byte buffer", snap.Feedback[FieldPlaintext])
}

func TestAESKeySizes(t *testing.T) {
	tests := []struct {
		digits int
		words  int
		steps  int
	}{
		{0, 4, 40},
		{32, 4, 40},
		{33, 8, 56},
		{40, 8, 56},
		{48, 8, 56},
		{64, 8, 56},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.digits), func(t *testing.T) {
			fake := &enginetest.Fake{}
			s := NewAES(fake)
			require.NoError(t, s.SetField(context.Background(), FieldEncryptionKey, strings.Repeat("1", tt.digits)))
			require.Equal(t, StateComputed, s.State())
			assert.Len(t, fake.Calls()[0].Key, tt.words)
			assert.Len(t, s.Values(), tt.steps)
		})
	}

	s := NewAES(&enginetest.Fake{})
	require.NoError(t, s.SetField(context.Background(), FieldEncryptionKey, strings.Repeat("1", 65)))
	assert.Equal(t, StateInvalidInput, s.State())
}

func TestAESDecryptionToggleEveryStep(t *testing.T) {
	ctx := context.Background()
	fake := &enginetest.Fake{}
	s := NewAES(fake)
	require.NoError(t, s.SetMode(ctx, AESDecryption))
	require.NoError(t, s.SetField(ctx, FieldCiphertext, "69c4e0d86a7b0430d8cdb78070b4c55a"))
	require.NoError(t, s.SetField(ctx, FieldDecryptionKey, testKey))

	require.Equal(t, StateComputed, s.State())
	require.NotEmpty(t, s.Values())

	for i := 0; i < mask.Size; i++ {
		step := mask.MustStep(i)
		require.NoError(t, s.Toggle(ctx, step))
		assert.Equal(t, StateComputed, s.State())
		assert.False(t, s.Mask().Enabled(step))
		if i < len(s.Values()) {
			assert.Empty(t, s.Values()[i].Value, "step %d", i)
		}
		require.NoError(t, s.Toggle(ctx, step))
		assert.Equal(t, mask.Default(), s.Mask())
	}
}

func TestAESEngineFailure(t *testing.T) {
	ctx := context.Background()
	fake := &enginetest.Fake{}
	obs := &recorder{}
	s := NewAES(fake, WithObserver(obs))
	require.NoError(t, s.Recompute(ctx))
	before := s.Values()

	fake.Err = errors.Engine("encrypt", fmt.Errorf("boom"))
	err := s.SetField(ctx, FieldPlaintext, "01")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEngine))
	assert.Equal(t, StateEngineFailed, s.State())
	assert.Equal(t, before, s.Values())
	assert.Contains(t, s.Snapshot().Error, "boom")
	assert.Equal(t, 1, obs.failed)

	require.NoError(t, s.SetField(ctx, FieldPlaintext, "zz"))
	snap := s.Snapshot()
	assert.Equal(t, StateInvalidInput, snap.State)
	assert.Empty(t, snap.Error, "invalid input does not report the earlier engine error")

	fake.Err = nil
	require.NoError(t, s.SetField(ctx, FieldPlaintext, "01"))
	assert.Empty(t, s.Snapshot().Error)
}

func TestAESMemo(t *testing.T) {
	ctx := context.Background()
	fake := &enginetest.Fake{}
	obs := &recorder{}
	store := memo.NewLocal(1 << 20)
	s := NewAES(fake, WithMemo(store), WithObserver(obs))

	require.NoError(t, s.SetField(ctx, FieldPlaintext, testBlock))
	require.NoError(t, s.Toggle(ctx, mask.MustStep(3)))
	require.NoError(t, s.Toggle(ctx, mask.MustStep(3)))
	assert.Equal(t, 2, fake.Count())
	assert.Equal(t, []bool{false, false, true}, obs.computed)

	other := NewAES(fake, WithMemo(store))
	require.NoError(t, other.SetField(ctx, FieldPlaintext, testBlock))
	assert.Equal(t, 2, fake.Count())
	assert.Equal(t, s.Values(), other.Values())
}

func TestAESUnknownField(t *testing.T) {
	s := NewAES(&enginetest.Fake{})
	err := s.SetField(context.Background(), FieldK, "01")
	assert.True(t, errors.Is(err, errors.ErrUnknownField))
	assert.Equal(t, StateIdle, s.State())
}

func TestListeners(t *testing.T) {
	ctx := context.Background()
	obs := &recorder{}
	s := NewAES(&enginetest.Fake{}, WithObserver(obs), WithID("abc"), WithMask(0))

	var got []Snapshot
	cancel := s.Subscribe(func(snap Snapshot) { got = append(got, snap) })
	require.NoError(t, s.Recompute(ctx))
	require.NoError(t, s.SetField(ctx, FieldPlaintext, "xyz"))
	cancel()
	require.NoError(t, s.Recompute(ctx))

	require.Len(t, got, 2)
	assert.Equal(t, "abc", got[0].ID)
	assert.Equal(t, KindAES, got[0].Kind)
	assert.Equal(t, "0000000000000000", got[0].Mask)
	assert.Equal(t, StateComputed, got[0].State)
	assert.Equal(t, StateInvalidInput, got[1].State)
	// The observer is not a listener: it sees the rejection after cancel too.
	assert.Equal(t, [][]string{{FieldPlaintext}, {FieldPlaintext}}, obs.rejected)
}

func TestParseModes(t *testing.T) {
	m, err := ParseAESMode("Decrypt")
	require.NoError(t, err)
	assert.Equal(t, AESDecryption, m)
	_, err = ParseAESMode("sideways")
	assert.Error(t, err)

	e, err := ParseECDSAMode(" verify ")
	require.NoError(t, err)
	assert.Equal(t, ECDSAVerify, e)
	_, err = ParseECDSAMode("encrypt")
	assert.Error(t, err)

	assert.Equal(t, "invalid_input", StateInvalidInput.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestECDSASign(t *testing.T) {
	ctx := context.Background()
	fake := &enginetest.Fake{}
	s, err := NewECDSA(fake, curve.P256)
	require.NoError(t, err)

	require.NoError(t, s.SetField(ctx, FieldK, "0102"))
	require.NoError(t, s.SetField(ctx, FieldPrivateKey, "03"))
	require.NoError(t, s.SetMessage(ctx, "hello"))
	require.Equal(t, StateComputed, s.State())

	last := fake.Calls()[fake.Count()-1]
	assert.Equal(t, "sign", last.Op)
	assert.Equal(t, "P-256", last.Curve)
	require.Len(t, last.Sign.K, 32)
	assert.Equal(t, []uint8{0x01, 0x02}, last.Sign.K[30:])
	assert.Equal(t, "hello", last.Sign.Message)
	assert.Equal(t, engine.HashSHA256, last.Sign.Hash)

	values := s.Values()
	require.Len(t, values, 6)
	assert.Equal(t, strings.Repeat("0", 60)+"0102", values[4].Value)

	snap := s.Snapshot()
	assert.Equal(t, "P-256", snap.Curve)
	assert.Equal(t, "sha256", snap.Hash)
	assert.Equal(t, "sign", snap.Mode)
	assert.Empty(t, snap.Mask)
}

func TestECDSAVerifySizes(t *testing.T) {
	ctx := context.Background()
	fake := &enginetest.Fake{}
	s, err := NewECDSA(fake, curve.P521)
	require.NoError(t, err)
	require.NoError(t, s.SetMode(ctx, ECDSAVerify))
	require.NoError(t, s.SetHash(ctx, engine.HashSHA512))
	require.Equal(t, StateComputed, s.State())

	last := fake.Calls()[fake.Count()-1]
	assert.Equal(t, "verify", last.Op)
	assert.Len(t, last.Check.X, 66)
	assert.Len(t, last.Check.R, 66)
	assert.Equal(t, engine.HashSHA512, last.Check.Hash)
	assert.Len(t, s.Values(), 7)

	require.NoError(t, s.SetField(ctx, FieldR, strings.Repeat("f", 133)))
	assert.Equal(t, StateInvalidInput, s.State())
	assert.Contains(t, s.Feedback(), FieldR)
	assert.NotContains(t, s.Feedback(), FieldK)
}

func TestECDSASetCurve(t *testing.T) {
	ctx := context.Background()
	fake := &enginetest.Fake{}
	s, err := NewECDSA(fake, curve.P256)
	require.NoError(t, err)
	require.NoError(t, s.SetField(ctx, FieldK, strings.Repeat("f", 96)))
	assert.Equal(t, StateInvalidInput, s.State())

	require.NoError(t, s.SetCurve(ctx, curve.P384))
	assert.Equal(t, StateComputed, s.State())
	assert.Equal(t, "P-384", s.Curve().Name)

	err = s.SetCurve(ctx, curve.Params{Name: "broken"})
	assert.Error(t, err)
	assert.Equal(t, "P-384", s.Curve().Name)

	_, err = NewECDSA(fake, curve.Params{})
	assert.Error(t, err)
}

func TestSetFieldsAndLoad(t *testing.T) {
	ctx := context.Background()
	fake := &enginetest.Fake{}
	s := NewAES(fake)

	err := s.SetFields(ctx, map[string]string{FieldPlaintext: "ff", "iv": "00"})
	assert.True(t, errors.Is(err, errors.ErrUnknownField))
	raw, _ := s.Field(FieldPlaintext)
	assert.Empty(t, raw)
	assert.Zero(t, fake.Count())

	require.NoError(t, s.Load(ctx, AESInput{
		Mode:   AESDecryption,
		Fields: map[string]string{FieldCiphertext: testBlock, FieldDecryptionKey: testKey},
	}))
	assert.Equal(t, AESDecryption, s.Mode())
	assert.Equal(t, StateComputed, s.State())
	require.Equal(t, 1, fake.Count())
	assert.Equal(t, "decrypt", fake.Calls()[0].Op)

	c, err := NewECDSA(fake, curve.P256)
	require.NoError(t, err)
	require.NoError(t, c.Load(ctx, ECDSAInput{
		Mode:    ECDSAVerify,
		Hash:    engine.HashSHA384,
		Message: "hello",
		Fields:  map[string]string{FieldR: "01", FieldS: "02"},
	}))
	assert.Equal(t, ECDSAVerify, c.Mode())
	assert.Equal(t, "hello", c.Message())
	assert.Equal(t, engine.HashSHA384, c.Hash())
	assert.Equal(t, 2, fake.Count())
	assert.Equal(t, "verify", fake.Calls()[1].Op)
}
