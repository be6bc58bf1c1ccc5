package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/stepviz/config"
	"github.com/kochabx/stepviz/store/memo"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "bytes",
			args: []string{"convert", "-n", "4", "block=a bc"},
			want: "block: 00 00 0a bc\n",
		},
		{
			name: "words",
			args: []string{"convert", "-n", "2", "-w", "32", "key=0102030405"},
			want: "key: 00000001 02030405\n",
		},
		{
			name:    "independent failures",
			args:    []string{"convert", "-n", "1", "a=ff", "b=fff", "c=xyz"},
			want:    "a: ff\nb: error: given hex string would overflow the length specified for the byte buffer\nc: error: given string is not valid hex\n",
			wantErr: true,
		},
		{
			name:    "bad width",
			args:    []string{"convert", "-w", "12", "a=ff"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if tt.want != "" {
				assert.Equal(t, tt.want, out)
			}
		})
	}
}

func TestCurvesCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stepviz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  command: /usr/local/bin/stepviz-engine
curves:
  - name: toy
    p: "17"
    a: "2"
    b: "2"
    gx: "5"
    gy: "1"
    n: "13"
`), 0o600))

	out, err := run(t, "curves", "--config", path)
	require.NoError(t, err)

	var curves []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &curves))
	names := make([]string, len(curves))
	for i, c := range curves {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"P-256", "P-384", "P-521", "toy"}, names)
}

func TestNewMemo(t *testing.T) {
	ctx := t.Context()

	s, err := newMemo(ctx, config.CacheConfig{Backend: "local", LocalBytes: 1 << 20}, nil)
	require.NoError(t, err)
	assert.IsType(t, &memo.Local{}, s)
	require.NoError(t, s.Close())

	s, err = newMemo(ctx, config.CacheConfig{Backend: "none"}, nil)
	require.NoError(t, err)
	assert.Equal(t, memo.Nop{}, s)
}
