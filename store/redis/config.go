package redis

import (
	"time"

	"github.com/kochabx/stepviz/core/tag"
)

// Config Redis 统一配置（支持单机/集群/哨兵模式）
type Config struct {
	// Addrs Redis 地址列表
	// 单机模式: ["localhost:6379"]
	// 集群模式: ["node1:6379", "node2:6379", "node3:6379"]
	// 哨兵模式: ["sentinel1:26379", "sentinel2:26379"]
	Addrs []string `mapstructure:"addrs" json:"addrs"`

	// MasterName 哨兵模式的主节点名称
	MasterName string `mapstructure:"master_name" json:"master_name"`

	Username string `mapstructure:"username" json:"username"`
	Password string `mapstructure:"password" json:"-"`

	// DB 数据库索引，集群模式忽略此字段
	DB int `mapstructure:"db" json:"db" validate:"gte=0,lte=15"`

	// Protocol 2: RESP2, 3: RESP3
	Protocol int `mapstructure:"protocol" json:"protocol" default:"3" validate:"oneof=2 3"`

	DialTimeout  time.Duration `mapstructure:"dial_timeout" json:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout" default:"3s"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout" default:"3s"`

	// PoolSize 0 表示使用默认值: 10 * runtime.GOMAXPROCS
	PoolSize     int           `mapstructure:"pool_size" json:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns" json:"min_idle_conns"`
	MaxIdleTime  time.Duration `mapstructure:"max_idle_time" json:"max_idle_time" default:"5m"`
	MaxLifetime  time.Duration `mapstructure:"max_lifetime" json:"max_lifetime"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout" json:"pool_timeout" default:"4s"`

	// MaxRetries -1 禁用重试，0 默认重试 3 次
	MaxRetries      int           `mapstructure:"max_retries" json:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff" json:"min_retry_backoff" default:"8ms"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff" json:"max_retry_backoff" default:"512ms"`

	// MaxRedirects 集群模式下的最大重定向次数
	MaxRedirects   int  `mapstructure:"max_redirects" json:"max_redirects" default:"3"`
	ReadOnly       bool `mapstructure:"read_only" json:"read_only"`
	RouteByLatency bool `mapstructure:"route_by_latency" json:"route_by_latency"`
	RouteRandomly  bool `mapstructure:"route_randomly" json:"route_randomly"`
}

// ApplyDefaults 应用默认值
func (c *Config) ApplyDefaults() error {
	return tag.ApplyDefaults(c)
}

// Single 创建单机模式配置
func Single(addr string) *Config {
	return &Config{Addrs: []string{addr}}
}

// Cluster 创建集群模式配置
func Cluster(addrs ...string) *Config {
	return &Config{Addrs: addrs}
}

// Sentinel 创建哨兵模式配置
func Sentinel(masterName string, addrs ...string) *Config {
	return &Config{Addrs: addrs, MasterName: masterName}
}

// Validate 验证配置是否有效
func (c *Config) Validate() error {
	if len(c.Addrs) == 0 {
		return ErrEmptyAddrs
	}
	if c.DialTimeout < 0 || c.ReadTimeout < 0 || c.WriteTimeout < 0 || c.PoolTimeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// IsSentinel 判断是否为哨兵模式
func (c *Config) IsSentinel() bool {
	return c.MasterName != ""
}

// IsCluster 判断是否为集群模式
func (c *Config) IsCluster() bool {
	return len(c.Addrs) > 1 && c.MasterName == ""
}

// Mode 返回客户端模式名称
func (c *Config) Mode() string {
	switch {
	case c.IsSentinel():
		return "sentinel"
	case c.IsCluster():
		return "cluster"
	default:
		return "single"
	}
}
