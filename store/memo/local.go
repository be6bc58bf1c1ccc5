package memo

import (
	"context"

	"github.com/VictoriaMetrics/fastcache"
)

// present prefixes every stored value so an empty value is told apart
// from a miss.
const present byte = 1

// Local is an in-process cache bounded by maxBytes.
type Local struct {
	cache *fastcache.Cache
}

// NewLocal creates a Local cache. fastcache rounds maxBytes up to 32MB.
func NewLocal(maxBytes int) *Local {
	return &Local{cache: fastcache.New(maxBytes)}
}

func (l *Local) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	v := l.cache.GetBig(nil, []byte(key))
	if len(v) == 0 || v[0] != present {
		return nil, false, nil
	}
	return v[1:], true, nil
}

// Set stores value with SetBig, which splits values over the 64KB entry
// limit of plain Set into chunks.
func (l *Local) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := make([]byte, 0, len(value)+1)
	buf = append(buf, present)
	buf = append(buf, value...)
	l.cache.SetBig([]byte(key), buf)
	return nil
}

// Entries reports the number of fastcache entries, chunks included.
func (l *Local) Entries() uint64 {
	var s fastcache.Stats
	l.cache.UpdateStats(&s)
	return s.EntriesCount
}

func (l *Local) Close() error {
	l.cache.Reset()
	return nil
}
