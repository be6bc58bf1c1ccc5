package errors

import "strconv"

// Domain error codes. The leading three digits are the HTTP status class.
const (
	CodeParseHex        = 4001
	CodeOverflow        = 4002
	CodeStepRange       = 4003
	CodeUnknownField    = 4004
	CodeUnknownCurve    = 4005
	CodeInvalidInput    = 4006
	CodeNotFound        = 4040
	CodeTooManySessions = 4290
	CodeEngine          = 5001
	CodeStore           = 5002
)

const (
	msgParseHex     = "given string is not valid hex"
	msgOverflow     = "given hex string would overflow the length specified for the byte buffer"
	msgStepRange    = "step index is outside the transform mask"
	msgUnknownField = "unknown field"
	msgUnknownCurve = "unknown curve"
	msgEngine       = "engine call failed"
)

// Sentinels for errors.Is. Constructors below return copies that carry metadata.
var (
	ErrParseHex     = New(CodeParseHex, msgParseHex)
	ErrOverflow     = New(CodeOverflow, msgOverflow)
	ErrStepRange    = New(CodeStepRange, msgStepRange)
	ErrUnknownField = New(CodeUnknownField, msgUnknownField)
	ErrUnknownCurve = New(CodeUnknownCurve, msgUnknownCurve)
	ErrEngine       = New(CodeEngine, msgEngine)
)

// ParseHex reports that raw (the input before whitespace stripping) is not hex.
func ParseHex(raw string) *Error {
	return ErrParseHex.WithMetadata(map[string]string{"hex": raw})
}

// Overflow reports that hex needs more than length elements of size bits.
func Overflow(hex string, length, size int) *Error {
	return ErrOverflow.WithMetadata(map[string]string{
		"hex":    hex,
		"length": strconv.Itoa(length),
		"size":   strconv.Itoa(size),
	})
}

// StepRange reports a step index that does not fit the mask.
func StepRange(index int) *Error {
	return ErrStepRange.WithMetadata(map[string]string{"index": strconv.Itoa(index)})
}

// UnknownField reports a field name not present in a fixed field set.
func UnknownField(name string) *Error {
	return ErrUnknownField.WithMetadata(map[string]string{"field": name})
}

// UnknownCurve reports a curve name with no registered parameters.
func UnknownCurve(name string) *Error {
	return ErrUnknownCurve.WithMetadata(map[string]string{"curve": name})
}

// Engine wraps a failure returned by an external engine.
func Engine(op string, cause error) *Error {
	return ErrEngine.WithMetadata(map[string]string{"op": op}).WithCause(cause)
}

func BadRequest(format string, args ...any) *Error {
	return New(CodeInvalidInput, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(CodeNotFound, format, args...)
}

func Internal(format string, args ...any) *Error {
	return New(UnknownCode, format, args...)
}
