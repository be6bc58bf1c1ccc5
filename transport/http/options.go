package http

import (
	"time"

	"github.com/kochabx/stepviz/core/tag"
)

type Options struct {
	Metrics  MetricsOption
	Health   HealthOption
	Timeouts TimeoutOption
}

type MetricsOption struct {
	Enabled                   bool   `json:"enabled"`
	Path                      string `json:"path" default:"/metrics"`
	EnabledGoCollector        bool   `json:"enabled_go_collector"`
	EnabledBuildInfoCollector bool   `json:"enabled_build_info_collector"`
}

func (m *MetricsOption) init() error {
	return tag.ApplyDefaults(m)
}

type HealthOption struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path" default:"/health"`
	// Check 返回非 nil 时 /health 响应 503
	Check func() error `json:"-"`
}

func (h *HealthOption) init() error {
	return tag.ApplyDefaults(h)
}

type TimeoutOption struct {
	Read  time.Duration `json:"read" default:"15s"`
	Write time.Duration `json:"write" default:"15s"`
}

func (t *TimeoutOption) init() error {
	return tag.ApplyDefaults(t)
}
