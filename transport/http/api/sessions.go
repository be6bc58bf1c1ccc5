package api

import (
	"context"
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/stepviz/core/curve"
	"github.com/kochabx/stepviz/core/filter"
	"github.com/kochabx/stepviz/core/mask"
	"github.com/kochabx/stepviz/engine"
	"github.com/kochabx/stepviz/errors"
	"github.com/kochabx/stepviz/session"
	stephttp "github.com/kochabx/stepviz/transport/http"
)

type createAESRequest struct {
	Mode   string            `json:"mode" validate:"omitempty,oneof=encryption decryption encrypt decrypt"`
	Mask   string            `json:"mask" validate:"omitempty,hexmask"`
	Fields map[string]string `json:"fields"`
}

type createECDSARequest struct {
	Mode    string            `json:"mode" validate:"omitempty,oneof=sign verify"`
	Curve   string            `json:"curve"`
	Hash    string            `json:"hash"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

type fieldRequest struct {
	Value string `json:"value"`
}

type modeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

type hashRequest struct {
	Hash string `json:"hash" validate:"required"`
}

type messageRequest struct {
	Message string `json:"message"`
}

type curveRequest struct {
	Name   string       `json:"name" validate:"required_without=Params"`
	Params *curveParams `json:"params" validate:"omitempty"`
}

type curveParams struct {
	P  string `json:"p" validate:"required,hexstr"`
	A  string `json:"a" validate:"hexstr"`
	B  string `json:"b" validate:"required,hexstr"`
	Gx string `json:"gx" validate:"required,hexstr"`
	Gy string `json:"gy" validate:"required,hexstr"`
	N  string `json:"n" validate:"required,hexstr"`
}

type fieldSetter interface {
	SetField(ctx context.Context, name, raw string) error
}

func respondError(c *gin.Context, err error) {
	stephttp.GinError(c, err)
}

func (h *Handler) newSessionOptions(extra ...session.Option) []session.Option {
	opts := slices.Clone(h.sessionOpts)
	opts = append(opts, session.WithLogger(h.logger))
	return append(opts, extra...)
}

// mutate runs fn under the session lock and answers with the resulting
// snapshot. Invalid field text is part of the snapshot, not an error.
func (h *Handler) mutate(c *gin.Context, fn func(ctx context.Context, s session.Session) error) {
	var snap session.Snapshot
	err := h.registry.Do(c.Param("id"), func(s session.Session) error {
		err := fn(c.Request.Context(), s)
		snap = s.Snapshot()
		return err
	})
	if err != nil {
		respondError(c, err)
		return
	}
	stephttp.GinJSON(c, snap)
}

// created answers 201 with the snapshot of a new session. A failed engine
// call still yields the session; any other failure removes it again.
func (h *Handler) created(c *gin.Context, id string, load func(ctx context.Context, s session.Session) error) {
	var snap session.Snapshot
	err := h.registry.Do(id, func(s session.Session) error {
		err := load(c.Request.Context(), s)
		snap = s.Snapshot()
		return err
	})
	if err != nil && snap.State != session.StateEngineFailed {
		_ = h.registry.Delete(id)
		respondError(c, err)
		return
	}
	stephttp.GinJSONStatus(c, http.StatusCreated, snap)
}

func (h *Handler) createAES(c *gin.Context) {
	var req createAESRequest
	if !h.bindOptional(c, &req) {
		return
	}
	mode := session.AESEncryption
	if req.Mode != "" {
		mode, _ = session.ParseAESMode(req.Mode)
	}
	m := h.defaults.Mask
	if req.Mask != "" {
		var err error
		if m, err = mask.Parse(req.Mask); err != nil {
			respondError(c, errors.BadRequest("invalid mask %q", req.Mask))
			return
		}
	}

	a, err := h.registry.NewAES(h.engine, h.newSessionOptions(session.WithMask(m))...)
	if err != nil {
		respondError(c, err)
		return
	}
	h.created(c, a.ID(), func(ctx context.Context, s session.Session) error {
		return s.(*session.AES).Load(ctx, session.AESInput{Mode: mode, Fields: req.Fields})
	})
}

func (h *Handler) createECDSA(c *gin.Context) {
	var req createECDSARequest
	if !h.bindOptional(c, &req) {
		return
	}
	mode := session.ECDSASign
	if req.Mode != "" {
		mode, _ = session.ParseECDSAMode(req.Mode)
	}
	hash := h.defaults.Hash
	if req.Hash != "" {
		var err error
		if hash, err = engine.ParseHashAlgorithm(req.Hash); err != nil {
			respondError(c, errors.BadRequest("%v", err))
			return
		}
	}
	name := req.Curve
	if name == "" {
		name = h.defaults.Curve
	}
	params, err := h.catalog.Lookup(name)
	if err != nil {
		respondError(c, err)
		return
	}

	e, err := h.registry.NewECDSA(h.engine, params, h.newSessionOptions(session.WithMask(h.defaults.Mask))...)
	if err != nil {
		respondError(c, err)
		return
	}
	h.created(c, e.ID(), func(ctx context.Context, s session.Session) error {
		return s.(*session.ECDSA).Load(ctx, session.ECDSAInput{
			Mode:    mode,
			Hash:    hash,
			Message: req.Message,
			Fields:  req.Fields,
		})
	})
}

func (h *Handler) getSession(c *gin.Context) {
	snap, err := h.registry.Snapshot(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	stephttp.GinJSON(c, snap)
}

func (h *Handler) deleteSession(c *gin.Context) {
	if err := h.registry.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	stephttp.GinJSON(c, nil)
}

// setField stores one field. The optional filter query strips characters
// the way the input boxes do before the value is stored.
func (h *Handler) setField(c *gin.Context) {
	kind, ok := filter.ParseKind(c.Query("filter"))
	if !ok {
		respondError(c, errors.BadRequest("unknown filter %q", c.Query("filter")))
		return
	}
	var req fieldRequest
	if !h.bind(c, &req) {
		return
	}
	raw := filter.Apply(kind, req.Value)
	name := c.Param("name")
	h.mutate(c, func(ctx context.Context, s session.Session) error {
		return s.(fieldSetter).SetField(ctx, name, raw)
	})
}

func (h *Handler) setMode(c *gin.Context) {
	var req modeRequest
	if !h.bind(c, &req) {
		return
	}
	h.mutate(c, func(ctx context.Context, s session.Session) error {
		switch s := s.(type) {
		case *session.AES:
			m, err := session.ParseAESMode(req.Mode)
			if err != nil {
				return errors.BadRequest("%v", err)
			}
			return s.SetMode(ctx, m)
		case *session.ECDSA:
			m, err := session.ParseECDSAMode(req.Mode)
			if err != nil {
				return errors.BadRequest("%v", err)
			}
			return s.SetMode(ctx, m)
		}
		return errors.Internal("unsupported session type %T", s)
	})
}

func (h *Handler) recompute(c *gin.Context) {
	h.mutate(c, func(ctx context.Context, s session.Session) error {
		return s.Recompute(ctx)
	})
}

func (h *Handler) toggleStep(c *gin.Context) {
	i, err := strconv.Atoi(c.Param("step"))
	if err != nil {
		respondError(c, errors.BadRequest("step must be an integer"))
		return
	}
	step, err := mask.NewStep(i)
	if err != nil {
		respondError(c, err)
		return
	}
	h.mutate(c, func(ctx context.Context, s session.Session) error {
		a, ok := s.(*session.AES)
		if !ok {
			return errors.BadRequest("session %s has no transform mask", s.ID())
		}
		return a.Toggle(ctx, step)
	})
}

func (h *Handler) setCurve(c *gin.Context) {
	var req curveRequest
	if !h.bind(c, &req) {
		return
	}
	params, err := h.resolveCurve(req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.ecdsa(c, func(ctx context.Context, s *session.ECDSA) error {
		return s.SetCurve(ctx, params)
	})
}

func (h *Handler) setHash(c *gin.Context) {
	var req hashRequest
	if !h.bind(c, &req) {
		return
	}
	hash, err := engine.ParseHashAlgorithm(req.Hash)
	if err != nil {
		respondError(c, errors.BadRequest("%v", err))
		return
	}
	h.ecdsa(c, func(ctx context.Context, s *session.ECDSA) error {
		return s.SetHash(ctx, hash)
	})
}

func (h *Handler) setMessage(c *gin.Context) {
	var req messageRequest
	if !h.bind(c, &req) {
		return
	}
	h.ecdsa(c, func(ctx context.Context, s *session.ECDSA) error {
		return s.SetMessage(ctx, req.Message)
	})
}

func (h *Handler) ecdsa(c *gin.Context, fn func(ctx context.Context, s *session.ECDSA) error) {
	h.mutate(c, func(ctx context.Context, s session.Session) error {
		e, ok := s.(*session.ECDSA)
		if !ok {
			return errors.BadRequest("session %s is not an ecdsa session", s.ID())
		}
		return fn(ctx, e)
	})
}

func (h *Handler) listCurves(c *gin.Context) {
	stephttp.GinJSON(c, gin.H{
		"curves": h.catalog.List(),
		"hashes": hashNames(),
	})
}

func hashNames() []string {
	var names []string
	for h := engine.HashNone; h <= engine.HashSHA512; h++ {
		names = append(names, h.String())
	}
	return names
}

// resolveCurve looks up a catalog curve or builds custom parameters. A
// custom curve keeps the given name, or "custom" when none is given.
func (h *Handler) resolveCurve(req curveRequest) (curve.Params, error) {
	if req.Params == nil {
		return h.catalog.Lookup(req.Name)
	}
	name := req.Name
	if name == "" {
		name = curve.Custom
	}
	p := req.Params
	return curve.FromStrings(name, p.P, p.A, p.B, p.Gx, p.Gy, p.N)
}
