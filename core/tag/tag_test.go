package tag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/stepviz/core/hexstr"
	"github.com/kochabx/stepviz/core/mask"
	"github.com/kochabx/stepviz/errors"
)

type engineMock struct {
	Command string        `default:"stepviz-engine"`
	Args    []string      `default:"--json,--quiet"`
	Timeout time.Duration `default:"5s"`
}

type settingsMock struct {
	Name    string           `default:"stepviz"`
	Port    int              `default:"8080"`
	Ratio   float64          `default:"0.5"`
	Enabled bool             `default:"true"`
	Limit   *uint32          `default:"16"`
	Mask    mask.Mask        `default:"00000000000000ff"`
	Seed    hexstr.HexString `default:"DEAD BEEF"`
	Engine  engineMock
	Engines []engineMock
	Backup  *engineMock
}

func TestApplyDefaults(t *testing.T) {
	s := &settingsMock{Port: 9090, Engines: []engineMock{{Command: "custom"}}}
	require.NoError(t, ApplyDefaults(s))

	assert.Equal(t, "stepviz", s.Name)
	assert.Equal(t, 9090, s.Port, "non-zero field must not be overwritten")
	assert.Equal(t, 0.5, s.Ratio)
	assert.True(t, s.Enabled)
	require.NotNil(t, s.Limit)
	assert.Equal(t, uint32(16), *s.Limit)
	assert.Equal(t, mask.Mask(0xff), s.Mask)
	assert.Equal(t, "deadbeef", s.Seed.String())

	assert.Equal(t, "stepviz-engine", s.Engine.Command)
	assert.Equal(t, []string{"--json", "--quiet"}, s.Engine.Args)
	assert.Equal(t, 5*time.Second, s.Engine.Timeout)

	assert.Equal(t, "custom", s.Engines[0].Command)
	assert.Equal(t, 5*time.Second, s.Engines[0].Timeout)

	require.NotNil(t, s.Backup)
	assert.Equal(t, "stepviz-engine", s.Backup.Command)
}

func TestApplyDefaultsInvalidTarget(t *testing.T) {
	var nilPtr *settingsMock
	tests := []any{settingsMock{}, nilPtr, new(int)}
	for _, target := range tests {
		assert.True(t, errors.Is(ApplyDefaults(target), ErrTargetMustBePointer))
	}
}

func TestApplyDefaultsFieldError(t *testing.T) {
	type bad struct {
		Inner struct {
			Port int `default:"eighty"`
		}
	}
	err := ApplyDefaults(&bad{})
	require.Error(t, err)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Inner.Port", fe.Path)
}

func TestWithTagName(t *testing.T) {
	type alt struct {
		Name string `fallback:"alt"`
	}
	a := &alt{}
	require.NoError(t, ApplyDefaults(a, WithTagName("fallback")))
	assert.Equal(t, "alt", a.Name)
}
