// Package mask holds the 64-bit transform mask that selects which algorithm
// steps an engine reports.
package mask

import (
	"fmt"
	"math/bits"
	"strconv"

	"github.com/kochabx/stepviz/errors"
)

// Size is the number of addressable steps.
const Size = 64

// Mask has bit i set when step i is enabled.
type Mask uint64

// Step is an index into a Mask. Build one with NewStep so it is always in range.
type Step uint8

// NewStep checks that i addresses a bit of the mask.
func NewStep(i int) (Step, error) {
	if i < 0 || i >= Size {
		return 0, errors.StepRange(i)
	}
	return Step(i), nil
}

// MustStep is NewStep for constant indices.
func MustStep(i int) Step {
	s, err := NewStep(i)
	if err != nil {
		panic(err)
	}
	return s
}

// Default returns a mask with every step enabled.
func Default() Mask {
	return ^Mask(0)
}

// Toggle flips step s.
func (m Mask) Toggle(s Step) Mask {
	return m ^ (1 << s)
}

// Enabled reports whether step s is set.
func (m Mask) Enabled(s Step) bool {
	return m&(1<<s) != 0
}

// Count returns how many of the first n steps are enabled.
func (m Mask) Count(n int) int {
	switch {
	case n <= 0:
		return 0
	case n >= Size:
		return bits.OnesCount64(uint64(m))
	}
	return bits.OnesCount64(uint64(m) & (1<<uint(n) - 1))
}

func (m Mask) Uint64() uint64 {
	return uint64(m)
}

// String renders the mask as 16 hex digits.
func (m Mask) String() string {
	return fmt.Sprintf("%016x", uint64(m))
}

// Parse reads a mask written as up to 16 hex digits.
func Parse(s string) (Mask, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, errors.ParseHex(s).WithCause(err)
	}
	return Mask(v), nil
}

func (m Mask) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mask) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
