package hexstr

import (
	"math/bits"
	"strconv"

	"github.com/kochabx/stepviz/errors"
)

// Element is the set of unsigned widths a HexString converts into.
type Element interface {
	~uint8 | ~uint16 | ~uint32
}

// Width returns the bit width of T.
func Width[T Element]() int {
	return bits.Len64(uint64(^T(0)))
}

// ToFixedWidth converts h into exactly length elements of T, most
// significant element first. Unused leading elements are zero. It fails
// with an overflow error when 4*h.Len() exceeds length*Width[T]().
func ToFixedWidth[T Element](h HexString, length int) ([]T, error) {
	size := Width[T]()
	if length < 0 || h.Bits() > length*size {
		return nil, errors.Overflow(h.digits, length, size)
	}

	out := make([]T, length)
	digits := h.digits
	if len(digits)%2 != 0 {
		digits = "0" + digits
	}

	group := size / 4
	slot := length - 1
	for end := len(digits); end > 0; end -= group {
		start := max(end-group, 0)
		v, err := strconv.ParseUint(digits[start:end], 16, size)
		if err != nil {
			return nil, errors.ParseHex(h.digits).WithCause(err)
		}
		out[slot] = T(v)
		slot--
	}
	return out, nil
}

// ToBytes converts h into length 8-bit elements.
func (h HexString) ToBytes(length int) ([]uint8, error) {
	return ToFixedWidth[uint8](h, length)
}

// ToHalfwords converts h into length 16-bit elements.
func (h HexString) ToHalfwords(length int) ([]uint16, error) {
	return ToFixedWidth[uint16](h, length)
}

// ToWords converts h into length 32-bit elements.
func (h HexString) ToWords(length int) ([]uint32, error) {
	return ToFixedWidth[uint32](h, length)
}
