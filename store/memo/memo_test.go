package memo

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/stepviz/errors"
	"github.com/kochabx/stepviz/store/redis"
)

type entry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func TestKey(t *testing.T) {
	a := Key([]byte("ab"), []byte("c"))
	b := Key([]byte("a"), []byte("bc"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Key([]byte("ab"), []byte("c")))
	assert.Len(t, a, 64)
}

func TestLocal(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(1 << 20)
	defer l.Close()

	_, ok, err := l.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Set(ctx, "k", []byte("v")))
	v, ok, err := l.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
	assert.NotZero(t, l.Entries())

	require.NoError(t, l.Set(ctx, "empty", nil))
	v, ok, err = l.Get(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)

	big := bytes.Repeat([]byte("x"), 200*1024)
	require.NoError(t, l.Set(ctx, "big", big))
	v, ok, err = l.Get(ctx, "big")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, big, v)
}

func TestLocalCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := NewLocal(1 << 20)
	assert.ErrorIs(t, l.Set(ctx, "k", nil), context.Canceled)
	_, _, err := l.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSON(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(1 << 20)
	values := []entry{{"Sub Bytes", "00ff"}, {"Shift Rows", ""}}

	require.NoError(t, SetJSON(ctx, l, "seq", values))
	got, ok, err := GetJSON[[]entry](ctx, l, "seq")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, values, got)

	require.NoError(t, l.Set(ctx, "junk", []byte("{")))
	_, ok, err = GetJSON[[]entry](ctx, l, "junk")
	assert.False(t, ok)
	assert.Equal(t, errors.CodeStore, errors.FromError(err).GetCode())
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var s Store = Nop{}
	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	_, ok, err := s.Get(ctx, "k")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("STEPVIZ_REDIS_ADDR")
	if addr == "" {
		t.Skip("STEPVIZ_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := redis.New(ctx, redis.Single(addr))
	require.NoError(t, err)

	s := NewRedis(client, "stepviz:test:", time.Minute)
	defer s.Close()

	key := Key([]byte(t.Name()), []byte(time.Now().String()))
	_, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, key, []byte("v")))
	v, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), v)
}
