// Package filter 提供输入框的字符过滤，过滤只是辅助，最终仍以校验结果为准
package filter

import (
	"regexp"
	"strings"
	"unicode"
)

// Kind 过滤器类型
type Kind string

const (
	None     Kind = ""
	Digits   Kind = "digits"
	Integers Kind = "integers"
	Hex      Kind = "hex"
)

var (
	nonDigit     = regexp.MustCompile(`\D`)
	integerNoise = regexp.MustCompile(`^0+|[^\d.]`)
)

// ParseKind 解析过滤器名称，未知名称返回 false
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToLower(s)); k {
	case None, Digits, Integers, Hex:
		return k, true
	}
	return None, false
}

// DigitsOnly 删除所有非数字字符
func DigitsOnly(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// IntegersOnly 保留开头的负号，去掉前导零以及数字和小数点以外的字符
func IntegersOnly(s string) string {
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		return "-" + integerNoise.ReplaceAllString(rest, "")
	}
	return integerNoise.ReplaceAllString(s, "")
}

// HexOnly 保留十六进制字符和空白
func HexOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return r
		}
		return -1
	}, s)
}

// Apply 按类型过滤
func Apply(k Kind, s string) string {
	switch k {
	case Digits:
		return DigitsOnly(s)
	case Integers:
		return IntegersOnly(s)
	case Hex:
		return HexOnly(s)
	default:
		return s
	}
}
