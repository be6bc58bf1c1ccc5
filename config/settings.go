package config

import (
	"time"

	"github.com/kochabx/stepviz/core/curve"
	"github.com/kochabx/stepviz/core/mask"
	"github.com/kochabx/stepviz/engine"
	"github.com/kochabx/stepviz/engine/exec"
	"github.com/kochabx/stepviz/log"
	"github.com/kochabx/stepviz/session"
	"github.com/kochabx/stepviz/store/redis"
	"github.com/kochabx/stepviz/transport/websocket"
)

// Settings is the stepviz configuration file.
type Settings struct {
	Server   ServerConfig           `mapstructure:"server" json:"server"`
	Log      log.Config             `mapstructure:"log" json:"log"`
	Engine   exec.Config            `mapstructure:"engine" json:"engine"`
	Session  session.RegistryConfig `mapstructure:"session" json:"session"`
	Cache    CacheConfig            `mapstructure:"cache" json:"cache"`
	Defaults DefaultsConfig         `mapstructure:"defaults" json:"defaults"`
	Curves   []CurveConfig          `mapstructure:"curves" json:"curves" validate:"dive"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string           `mapstructure:"addr" json:"addr" default:":8080" validate:"required"`
	Mode            string           `mapstructure:"mode" json:"mode" default:"release" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration    `mapstructure:"read_timeout" json:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration    `mapstructure:"write_timeout" json:"write_timeout" default:"15s"`
	ShutdownTimeout time.Duration    `mapstructure:"shutdown_timeout" json:"shutdown_timeout" default:"30s"`
	AllowOrigins    []string         `mapstructure:"allow_origins" json:"allow_origins"`
	Metrics         bool             `mapstructure:"metrics" json:"metrics" default:"true"`
	WebSocket       websocket.Config `mapstructure:"websocket" json:"websocket"`
}

// CacheConfig selects the memo backend.
type CacheConfig struct {
	Backend string `mapstructure:"backend" json:"backend" default:"local" validate:"oneof=none local redis"`
	// LocalBytes fastcache 容量上限，最小 32MB
	LocalBytes int           `mapstructure:"local_bytes" json:"local_bytes" default:"33554432" validate:"gte=0"`
	Prefix     string        `mapstructure:"prefix" json:"prefix" default:"stepviz:memo:"`
	TTL        time.Duration `mapstructure:"ttl" json:"ttl" default:"24h"`
	Redis      redis.Config  `mapstructure:"redis" json:"redis"`
}

// DefaultsConfig seeds new sessions.
type DefaultsConfig struct {
	Mask  mask.Mask            `mapstructure:"mask" json:"mask" default:"ffffffffffffffff"`
	Curve string               `mapstructure:"curve" json:"curve" default:"P-256" validate:"required"`
	Hash  engine.HashAlgorithm `mapstructure:"hash" json:"hash" default:"sha256"`
}

// CurveConfig is a named curve given as hex parameters.
type CurveConfig struct {
	Name string `mapstructure:"name" json:"name" validate:"required"`
	P    string `mapstructure:"p" json:"p" validate:"required,hexstr"`
	A    string `mapstructure:"a" json:"a" validate:"hexstr"`
	B    string `mapstructure:"b" json:"b" validate:"required,hexstr"`
	Gx   string `mapstructure:"gx" json:"gx" validate:"required,hexstr"`
	Gy   string `mapstructure:"gy" json:"gy" validate:"required,hexstr"`
	N    string `mapstructure:"n" json:"n" validate:"required,hexstr"`
}

// Params parses the hex parameters.
func (c CurveConfig) Params() (curve.Params, error) {
	return curve.FromStrings(c.Name, c.P, c.A, c.B, c.Gx, c.Gy, c.N)
}

// Catalog builds the curve catalog: the presets plus every configured curve.
func (s *Settings) Catalog() (*curve.Catalog, error) {
	extra := make([]curve.Params, 0, len(s.Curves))
	for _, c := range s.Curves {
		p, err := c.Params()
		if err != nil {
			return nil, err
		}
		extra = append(extra, p)
	}
	return curve.NewCatalog(extra...)
}
