package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kochabx/stepviz/log"
	"github.com/kochabx/stepviz/transport"
	"github.com/kochabx/stepviz/transport/http/metrics"
)

var _ transport.Server = (*Server)(nil)

const (
	defaultName = "http"
	defaultAddr = ":8080"
)

// Meta is the metadata of the server.
type Meta struct {
	Name string
}

type Server struct {
	meta       Meta
	options    Options
	prometheus *metrics.Prometheus
	server     *http.Server
	logger     *log.Logger
}

type Option func(*Server)

func WithMeta(meta Meta) Option {
	return func(s *Server) {
		s.meta = meta
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMetricsOptions serves p's registry on metrics.Path. A nil p disables
// the endpoint.
func WithMetricsOptions(p *metrics.Prometheus, m MetricsOption) Option {
	return func(s *Server) {
		if err := m.init(); err != nil {
			s.logger.Error().Err(err).Send()
			return
		}
		s.options.Metrics = m
		s.prometheus = p
	}
}

func WithHealthOptions(health HealthOption) Option {
	return func(s *Server) {
		if err := health.init(); err != nil {
			s.logger.Error().Err(err).Send()
			return
		}
		s.options.Health = health
	}
}

func WithTimeoutOptions(timeouts TimeoutOption) Option {
	return func(s *Server) {
		if err := timeouts.init(); err != nil {
			s.logger.Error().Err(err).Send()
			return
		}
		s.options.Timeouts = timeouts
	}
}

func NewServer(addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		logger: log.G,
		server: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
	}
	_ = s.options.Timeouts.init()

	for _, opt := range opts {
		opt(s)
	}

	s.server.ReadTimeout = s.options.Timeouts.Read
	s.server.WriteTimeout = s.options.Timeouts.Write

	additionalHandlers(s)

	return s
}

// Handler returns the root handler, including the metrics and health routes.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Run() error {
	if s.meta.Name == "" {
		s.meta.Name = defaultName
	}

	if ok := transport.ValidateAddress(s.server.Addr); !ok {
		s.logger.Warn().Msgf("invalid address %s, using default address: %s", s.server.Addr, defaultAddr)
		s.server.Addr = defaultAddr
	}
	s.logger.Info().Msgf("%s server listening on %s", s.meta.Name, s.server.Addr)

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func additionalHandlers(s *Server) {
	if r, ok := s.server.Handler.(*gin.Engine); ok {
		handleMetrics(s, r)
		handleHealth(s, r)
	}
}

func handleMetrics(s *Server, r *gin.Engine) {
	if !s.options.Metrics.Enabled || s.prometheus == nil {
		return
	}
	if s.options.Metrics.EnabledGoCollector {
		s.prometheus.WithGoCollectorRuntimeMetrics()
	}
	if s.options.Metrics.EnabledBuildInfoCollector {
		s.prometheus.WithBuildInfoCollector()
	}

	r.GET(s.options.Metrics.Path, gin.WrapH(promhttp.HandlerFor(s.prometheus.Registry(), promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})))
}

func handleHealth(s *Server, r *gin.Engine) {
	if !s.options.Health.Enabled {
		return
	}
	check := s.options.Health.Check
	r.GET(s.options.Health.Path, func(c *gin.Context) {
		if check != nil {
			if err := check(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
