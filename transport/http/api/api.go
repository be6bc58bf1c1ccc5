// Package api serves the session registry over HTTP: session lifecycle,
// field edits, mode and mask changes, curve selection, stateless hex
// conversion and a WebSocket stream of snapshots.
package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/kochabx/stepviz/core/curve"
	"github.com/kochabx/stepviz/core/mask"
	"github.com/kochabx/stepviz/core/validator"
	"github.com/kochabx/stepviz/engine"
	"github.com/kochabx/stepviz/errors"
	"github.com/kochabx/stepviz/log"
	"github.com/kochabx/stepviz/session"
	"github.com/kochabx/stepviz/transport/websocket"
)

// Defaults seed every new session.
type Defaults struct {
	Mask  mask.Mask
	Curve string
	Hash  engine.HashAlgorithm
}

// Handler holds everything the routes need.
type Handler struct {
	registry    *session.Registry
	engine      engine.Engine
	catalog     *curve.Catalog
	defaults    Defaults
	sessionOpts []session.Option
	validate    validator.Validator
	upgrader    *gorillaws.Upgrader
	wsConfig    websocket.Config
	logger      *log.Logger
}

type Option func(*Handler)

func WithDefaults(d Defaults) Option {
	return func(h *Handler) {
		h.defaults = d
	}
}

// WithSessionOptions adds options to every session the handler creates,
// typically the memo store and the metrics observer.
func WithSessionOptions(opts ...session.Option) Option {
	return func(h *Handler) {
		h.sessionOpts = append(h.sessionOpts, opts...)
	}
}

func WithValidator(v validator.Validator) Option {
	return func(h *Handler) {
		h.validate = v
	}
}

// WithWebSocket configures the snapshot stream. allowOrigins follows the
// CORS list; an empty list accepts same-origin requests only.
func WithWebSocket(cfg websocket.Config, allowOrigins ...string) Option {
	return func(h *Handler) {
		h.wsConfig = cfg
		h.upgrader = websocket.Upgrader(cfg, checkOrigin(allowOrigins))
	}
}

func WithLogger(l *log.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// New returns a Handler. Register mounts it on a router.
func New(registry *session.Registry, eng engine.Engine, catalog *curve.Catalog, opts ...Option) *Handler {
	h := &Handler{
		registry: registry,
		engine:   eng,
		catalog:  catalog,
		defaults: Defaults{Mask: mask.Default(), Curve: curve.P256.Name, Hash: engine.HashSHA256},
		validate: validator.Validate,
		logger:   log.G,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.upgrader == nil {
		h.upgrader = websocket.Upgrader(h.wsConfig, nil)
	}
	return h
}

// Register mounts the routes under /v1.
func (h *Handler) Register(r gin.IRouter) {
	v1 := r.Group("/v1")

	v1.GET("/curves", h.listCurves)
	v1.POST("/hex/convert", h.convertHex)

	v1.POST("/sessions/aes", h.createAES)
	v1.POST("/sessions/ecdsa", h.createECDSA)

	s := v1.Group("/sessions/:id")
	s.GET("", h.getSession)
	s.DELETE("", h.deleteSession)
	s.PUT("/fields/:name", h.setField)
	s.PUT("/mode", h.setMode)
	s.POST("/recompute", h.recompute)
	s.POST("/mask/toggle/:step", h.toggleStep)
	s.PUT("/curve", h.setCurve)
	s.PUT("/hash", h.setHash)
	s.PUT("/message", h.setMessage)
	s.GET("/ws", h.stream)
}

// bind decodes the JSON body into req and validates it.
func (h *Handler) bind(c *gin.Context, req any) bool {
	return h.decode(c, req, false)
}

// bindOptional is bind for requests whose fields are all optional: an
// empty body decodes to the zero request.
func (h *Handler) bindOptional(c *gin.Context, req any) bool {
	return h.decode(c, req, true)
}

func (h *Handler) decode(c *gin.Context, req any, allowEmpty bool) bool {
	if err := c.ShouldBindJSON(req); err != nil && !(allowEmpty && errors.Is(err, io.EOF)) {
		respondError(c, errors.BadRequest("invalid request body: %v", err))
		return false
	}
	if err := h.validate.StructCtx(c.Request.Context(), req); err != nil {
		respondError(c, validator.AsError(err))
		return false
	}
	return true
}

func checkOrigin(allow []string) func(*http.Request) bool {
	if len(allow) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allow {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
