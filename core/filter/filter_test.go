package filter

import (
	"testing"
)

func TestIntegersOnly(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "123", "123"},
		{"leading zeros", "000123", "123"},
		{"negative", "-0042", "-42"},
		{"letters removed", "12ab3", "123"},
		{"decimal kept", "3.14", "3.14"},
		{"inner zeros kept", "1002", "1002"},
		{"zeros after noise", "a007", "007"},
		{"empty", "", ""},
		{"only minus", "-", "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IntegersOnly(tt.input); got != tt.want {
				t.Errorf("IntegersOnly(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("-1a2.3 4"); got != "1234" {
		t.Errorf("DigitsOnly() = %q", got)
	}
}

func TestHexOnly(t *testing.T) {
	if got := HexOnly("de:ad be-ef\tXYZ"); got != "dead beef\t" {
		t.Errorf("HexOnly() = %q", got)
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		kind Kind
		in   string
		want string
	}{
		{None, "x1", "x1"},
		{Digits, "x1", "1"},
		{Integers, "-01x", "-1"},
		{Hex, "0xff", "0ff"},
	}
	for _, tt := range tests {
		if got := Apply(tt.kind, tt.in); got != tt.want {
			t.Errorf("Apply(%q, %q) = %q, want %q", tt.kind, tt.in, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	if k, ok := ParseKind("HEX"); !ok || k != Hex {
		t.Errorf("ParseKind(HEX) = %q, %v", k, ok)
	}
	if _, ok := ParseKind("base64"); ok {
		t.Error("ParseKind should reject unknown names")
	}
}
