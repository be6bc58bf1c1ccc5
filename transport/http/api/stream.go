package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/kochabx/stepviz/session"
	"github.com/kochabx/stepviz/transport/websocket"
)

// stream upgrades to a WebSocket and pushes the current snapshot followed
// by one snapshot per recompute. The stream ends when the client leaves or
// the session is deleted or evicted.
func (h *Handler) stream(c *gin.Context) {
	id := c.Param("id")
	done, err := h.registry.Done(id)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := websocket.Upgrade(h.upgrader, c.Writer, c.Request, h.wsConfig)
	if err != nil {
		// the upgrader has already answered the request
		h.logger.Debug().Err(err).Str("id", id).Msg("websocket upgrade failed")
		return
	}

	var unsubscribe func()
	err = h.registry.Do(id, func(s session.Session) error {
		unsubscribe = s.Subscribe(func(snap session.Snapshot) {
			_ = conn.SendJSON(snap)
		})
		return conn.SendJSON(s.Snapshot())
	})
	if err != nil {
		if unsubscribe != nil {
			h.unsubscribe(id, unsubscribe)
		}
		_ = conn.Close()
		return
	}
	defer h.unsubscribe(id, unsubscribe)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go func() {
		select {
		case <-done:
			_ = conn.Close()
		case <-ctx.Done():
		}
	}()

	h.logger.Debug().Str("id", id).Msg("snapshot stream opened")
	if err := conn.Run(ctx); err != nil {
		h.logger.Debug().Err(err).Str("id", id).Msg("snapshot stream closed")
	}
}

// unsubscribe removes a listener under the session lock. A session that is
// already gone needs no cleanup.
func (h *Handler) unsubscribe(id string, cancel func()) {
	_ = h.registry.Do(id, func(session.Session) error {
		cancel()
		return nil
	})
}
