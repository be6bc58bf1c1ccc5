package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/stepviz/errors"
)

type engineSettings struct {
	Command string `json:"command" validate:"required"`
	Mask    string `json:"mask" validate:"omitempty,hexmask"`
	Seed    string `json:"seed" validate:"omitempty,hexstr"`
	Workers int    `mapstructure:"workers" validate:"gte=1,lte=64"`
}

func TestValidatorCreation(t *testing.T) {
	assert.NotNil(t, Validate)
	assert.NotNil(t, New(WithTagName("validate"), WithLanguage("zh")).Engine())
}

func TestStruct(t *testing.T) {
	v := New()

	valid := engineSettings{Command: "engine", Mask: "ffff", Seed: "de ad BE ef", Workers: 2}
	require.NoError(t, v.Struct(&valid))

	invalid := engineSettings{Mask: "fffffffffffffffff", Seed: "xyz", Workers: 0}
	err := v.Struct(&invalid)
	require.Error(t, err)

	var ve *ValidationErrors
	require.True(t, errors.As(err, &ve))

	byField := make(map[string]FieldError)
	for _, f := range ve.Fields {
		byField[f.Field] = f
	}
	assert.Equal(t, "required", byField["command"].Tag)
	assert.Equal(t, "hexmask", byField["mask"].Tag)
	assert.Equal(t, "seed must be a hex string", byField["seed"].Message)
	assert.Equal(t, "gte", byField["workers"].Tag)
}

func TestChineseMessages(t *testing.T) {
	v := New(WithLanguage("zh"))
	err := v.Struct(&engineSettings{Command: "x", Seed: "zz", Workers: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "十六进制")
}

func TestVar(t *testing.T) {
	v := New()
	assert.NoError(t, v.Var("00ff", "hexstr"))
	assert.Error(t, v.Var("0x", "hexstr"))
	assert.NoError(t, v.Var("ffffffffffffffff", "hexmask"))
	assert.Error(t, v.Var("", "hexmask"))
}

func TestAsError(t *testing.T) {
	err := New().Struct(&engineSettings{Workers: 1})
	e := AsError(err)
	require.NotNil(t, e)
	assert.Equal(t, errors.CodeInvalidInput, e.Code)
	assert.NotEmpty(t, e.Meta("command"))

	assert.Nil(t, AsError(nil))
	assert.Equal(t, errors.UnknownCode, AsError(assert.AnError).Code)
}

func TestNilTarget(t *testing.T) {
	assert.Error(t, New().Struct(nil))
}
