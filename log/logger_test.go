package log

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/stepviz/errors"
	"github.com/kochabx/stepviz/log/redact"
	"github.com/kochabx/stepviz/log/writer"
)

func TestLog(t *testing.T) {
	logger := New()
	logger.Debug().Msg("test debug message")
	logger.Info().Str("session", "aes-1").Msg("test info with field")
	logger.Error().Err(errors.Overflow("abcdef", 1, 8)).Msg("test error")
}

func TestGlobalLog(t *testing.T) {
	SetGlobalLevel(zerolog.InfoLevel)
	Debug().Msg("filtered")
	Info().Msg("test global info log")
	Warn().Err(errors.ParseHex("zz")).Msg("test global warn log")
	Error().Err(errors.Engine("encrypt", assert.AnError)).Msg("test global error log")
}

func TestLevelAndRedact(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf,
		WithLevel(zerolog.InfoLevel),
		WithRedact(redact.New(redact.KeyMaterial)),
	)

	logger.Debug().Msg("hidden")
	logger.Info().Str("encryption_key", "2b7e1516").Str("plaintext", "0011").Msg("recompute")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "2b7e1516")
	assert.Contains(t, out, `"encryption_key":"******"`)
	assert.Contains(t, out, `"plaintext":"0011"`)
	assert.NotNil(t, logger.Redactor())
}

func TestCaller(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, WithCaller()).Info().Msg("where")
	assert.Contains(t, buf.String(), "logger_test.go")
}

func TestFileLog(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewFile(FileConfig{
		Filepath:   dir,
		Filename:   "test",
		RotateMode: writer.RotateModeSize,
		Lumberjack: LumberjackConfig{MaxSize: 10, MaxBackups: 3},
	})
	require.NoError(t, err)

	logger.Info().Msg("test file log")
	require.NoError(t, logger.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestNewFromConfig(t *testing.T) {
	logger, err := NewFromConfig(Config{Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
	assert.NotNil(t, logger.Redactor())

	_, err = NewFromConfig(Config{Level: "loud"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "loud"))

	plain, err := NewFromConfig(Config{DisableRedact: true})
	require.NoError(t, err)
	assert.Nil(t, plain.Redactor())
}
