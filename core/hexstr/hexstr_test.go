package hexstr

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/stepviz/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "lowercase", input: "deadbeef", want: "deadbeef"},
		{name: "uppercase folded", input: "DEADbeef", want: "deadbeef"},
		{name: "spaces stripped", input: "de ad\tbe\nef", want: "deadbeef"},
		{name: "unicode space stripped", input: "ab\u00a0cd\u2003ef", want: "abcdef"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: "  \t ", want: ""},
		{name: "non hex letter", input: "abcg", wantErr: true},
		{name: "colon separator", input: "de:ad", wantErr: true},
		{name: "dash separator", input: "de-ad", wantErr: true},
		{name: "0x prefix", input: "0xff", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrParseHex))
				assert.Equal(t, tt.input, errors.FromError(err).Meta("hex"))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(""))
	assert.True(t, Valid("0123456789abcdefABCDEF"))
	assert.False(t, Valid("ab cd"))
	assert.False(t, Valid("é"))
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse("xyz") })
	assert.NotPanics(t, func() { MustParse("00ff") })
}

func TestFromBytes(t *testing.T) {
	assert.Equal(t, "1ff", FromBytes([]byte{0x00, 0x01, 0xff}).String())
	assert.Equal(t, "", FromBytes([]byte{0, 0}).String())
	assert.True(t, FromBytes(nil).IsZero())
	assert.True(t, Empty().IsZero())
}

func TestConcat(t *testing.T) {
	h := MustParse("ab")
	require.NoError(t, h.Concat("CD"))
	assert.Equal(t, "abcd", h.String())

	err := h.Concat("e f")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParseHex))
	assert.Equal(t, "abcd", h.String(), "failed concat must not mutate")
}

func TestTextMarshaling(t *testing.T) {
	var h HexString
	require.NoError(t, h.UnmarshalText([]byte("AB CD")))
	assert.Equal(t, "abcd", h.String())

	b, err := h.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(b))

	assert.Error(t, h.UnmarshalText([]byte("zz")))
	assert.Equal(t, "abcd", h.String())
}

func TestToFixedWidthScenarios(t *testing.T) {
	got, err := MustParse("ff").ToBytes(1)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0xff}, got)

	got, err = MustParse("ff").ToBytes(2)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0x00, 0xff}, got)

	_, err = MustParse("ffff").ToBytes(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrOverflow))

	words, err := Empty().ToWords(4)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 0, 0, 0}, words)
}

func TestToFixedWidth(t *testing.T) {
	t.Run("odd digit count", func(t *testing.T) {
		got, err := MustParse("abc").ToBytes(2)
		require.NoError(t, err)
		assert.Equal(t, []uint8{0x0a, 0xbc}, got)
	})

	t.Run("partial leading word", func(t *testing.T) {
		got, err := MustParse("123456789").ToWords(2)
		require.NoError(t, err)
		assert.Equal(t, []uint32{0x1, 0x23456789}, got)
	})

	t.Run("halfwords", func(t *testing.T) {
		got, err := MustParse("abcdef").ToHalfwords(3)
		require.NoError(t, err)
		assert.Equal(t, []uint16{0x0000, 0x00ab, 0xcdef}, got)
	})

	t.Run("aes key words", func(t *testing.T) {
		got, err := MustParse("2b7e151628aed2a6abf7158809cf4f3c").ToWords(4)
		require.NoError(t, err)
		assert.Equal(t, []uint32{0x2b7e1516, 0x28aed2a6, 0xabf71588, 0x09cf4f3c}, got)
	})

	t.Run("leading zeros count toward overflow", func(t *testing.T) {
		_, err := MustParse("00ff").ToBytes(1)
		assert.True(t, errors.Is(err, errors.ErrOverflow))
	})

	t.Run("overflow metadata", func(t *testing.T) {
		_, err := MustParse("abcdef").ToWords(0)
		e := errors.FromError(err)
		assert.Equal(t, "abcdef", e.Meta("hex"))
		assert.Equal(t, "0", e.Meta("length"))
		assert.Equal(t, "32", e.Meta("size"))
	})

	t.Run("negative length", func(t *testing.T) {
		_, err := Empty().ToBytes(-1)
		assert.True(t, errors.Is(err, errors.ErrOverflow))
	})

	t.Run("zero length empty input", func(t *testing.T) {
		got, err := Empty().ToBytes(0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestWidth(t *testing.T) {
	assert.Equal(t, 8, Width[uint8]())
	assert.Equal(t, 16, Width[uint16]())
	assert.Equal(t, 32, Width[uint32]())
}

// The big-endian concatenation of the buffer equals the input left-padded
// to length*width/4 digits.
func TestToFixedWidthPadding(t *testing.T) {
	inputs := []string{"", "1", "ff", "abc", "0123456789abcdef", "fedcba98765", "80000000000000000000000000000001"}
	for _, in := range inputs {
		h := MustParse(in)
		for length := 0; length <= 6; length++ {
			checkPadding[uint8](t, h, length)
			checkPadding[uint16](t, h, length)
			checkPadding[uint32](t, h, length)
		}
	}
}

func checkPadding[T Element](t *testing.T, h HexString, length int) {
	t.Helper()
	size := Width[T]()
	got, err := ToFixedWidth[T](h, length)
	if h.Bits() > length*size {
		assert.True(t, errors.Is(err, errors.ErrOverflow), "hex=%s length=%d size=%d", h, length, size)
		return
	}
	require.NoError(t, err)
	require.Len(t, got, length)

	var b strings.Builder
	for _, v := range got {
		digits := new(big.Int).SetUint64(uint64(v)).Text(16)
		b.WriteString(strings.Repeat("0", size/4-len(digits)))
		b.WriteString(digits)
	}
	want := strings.Repeat("0", length*size/4-h.Len()) + h.String()
	assert.Equal(t, want, b.String(), "hex=%s length=%d size=%d", h, length, size)
}

func TestFromBytesRoundTrip(t *testing.T) {
	inputs := []string{"0", "00ab", "deadbeef", "000000000001"}
	for _, in := range inputs {
		h := MustParse(in)
		buf, err := h.ToBytes((h.Len() + 1) / 2)
		require.NoError(t, err)

		back := FromBytes(buf)
		want, _ := new(big.Int).SetString(in, 16)
		got := new(big.Int)
		if !back.IsZero() {
			got.SetString(back.String(), 16)
		}
		assert.Equal(t, 0, want.Cmp(got), "input %s", in)
	}
}

func BenchmarkToWords(b *testing.B) {
	h := MustParse("603deb1015ca71be2b73aef0857d77811f352c073b6108d72d9810a30914dff4")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = h.ToWords(8)
	}
}
