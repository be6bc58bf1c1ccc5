// Package websocket pushes JSON messages to a browser over a gorilla
// websocket connection, with ping/pong keepalive and a bounded send queue.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kochabx/stepviz/core/tag"
	"github.com/kochabx/stepviz/errors"
)

// Config WebSocket 连接配置
type Config struct {
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout" default:"10s"`
	PongWait     time.Duration `mapstructure:"pong_wait" json:"pong_wait" default:"60s"`
	// PingInterval 必须小于 PongWait
	PingInterval      time.Duration `mapstructure:"ping_interval" json:"ping_interval" default:"50s"`
	MaxMessageSize    int64         `mapstructure:"max_message_size" json:"max_message_size" default:"4096"`
	ReadBufferSize    int           `mapstructure:"read_buffer_size" json:"read_buffer_size" default:"1024"`
	WriteBufferSize   int           `mapstructure:"write_buffer_size" json:"write_buffer_size" default:"4096"`
	SendQueue         int           `mapstructure:"send_queue" json:"send_queue" default:"16" validate:"gt=0"`
	EnableCompression bool          `mapstructure:"enable_compression" json:"enable_compression"`
}

// ErrClosed 连接已关闭
var ErrClosed = errors.New(errors.UnknownCode, "websocket: connection closed")

// Conn 服务端连接，只向客户端推送消息
type Conn struct {
	conn    *websocket.Conn
	config  Config
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	closing atomic.Bool
}

// Upgrader 根据配置创建 websocket.Upgrader
func Upgrader(cfg Config, checkOrigin func(*http.Request) bool) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:    cfg.ReadBufferSize,
		WriteBufferSize:   cfg.WriteBufferSize,
		EnableCompression: cfg.EnableCompression,
		CheckOrigin:       checkOrigin,
	}
}

func (c *Config) init() error {
	// 未配置的字段取默认值
	return tag.ApplyDefaults(c)
}

// Upgrade 将 HTTP 请求升级为 WebSocket 连接
func Upgrade(u *websocket.Upgrader, w http.ResponseWriter, r *http.Request, cfg Config) (*Conn, error) {
	if err := cfg.init(); err != nil {
		return nil, errors.Wrap(err, errors.UnknownCode, "websocket: invalid config")
	}
	ws, err := u.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return &Conn{
		conn:   ws,
		config: cfg,
		send:   make(chan []byte, cfg.SendQueue),
		done:   make(chan struct{}),
	}, nil
}

// SendJSON 编码 v 并放入发送队列。队列已满时丢弃最旧的消息，
// 客户端只关心最新状态。
func (c *Conn) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	for {
		// done 优先于空闲的队列槽位
		select {
		case <-c.done:
			return ErrClosed
		default:
		}
		select {
		case <-c.done:
			return ErrClosed
		case c.send <- data:
			return nil
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

// Done 连接关闭时关闭
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Run 启动读写循环，阻塞直到 ctx 取消或连接断开
func (c *Conn) Run(ctx context.Context) error {
	errc := make(chan error, 2)
	go func() { errc <- c.readLoop() }()
	go func() { errc <- c.writeLoop(ctx) }()

	err := <-errc
	closing := c.closing.Load()
	c.Close()
	<-errc
	if closing {
		return nil
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close 发送关闭帧并关闭底层连接
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		c.closing.Store(true)
		close(c.done)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.config.WriteTimeout))
		err = c.conn.Close()
	})
	return err
}

// readLoop 丢弃客户端消息，只处理控制帧
func (c *Conn) readLoop() error {
	c.conn.SetReadLimit(c.config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return err
		}
	}
}

func (c *Conn) writeLoop(ctx context.Context) error {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return err
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}
