package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"magiceraser/internal/domain"
	"magiceraser/internal/mask"
	"magiceraser/internal/middleware"
)

const (
	pointerReadLimit = 4 << 10
	pointerIdle      = 2 * time.Minute
)

func (a *App) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     a.checkOrigin,
	}
}

// checkOrigin accepts clients without an Origin header, configured origins
// and same-host pages.
func (a *App) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range a.AllowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" || o == origin {
			return true
		}
	}
	u, err := url.Parse(origin)
	return err == nil && strings.EqualFold(u.Host, r.Host)
}

type pointerAck struct {
	Seq      int                 `json:"seq"`
	State    domain.SessionState `json:"state"`
	Strokes  int                 `json:"strokes"`
	Painting bool                `json:"painting"`
	Error    *errorBody          `json:"error,omitempty"`
}

// PointerStream accepts one RawPointer JSON object per message and applies
// them in arrival order. Every message is acknowledged. Errors are reported
// in the ack and do not close the stream.
func (a *App) PointerStream(w http.ResponseWriter, r *http.Request) {
	s, ok := a.session(w, r)
	if !ok {
		return
	}
	conn, err := a.upgrader().Upgrade(w, r, nil)
	if err != nil {
		a.Logger.Warn().Err(err).Str("session_id", s.ID()).Msg("websocket upgrade")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(pointerReadLimit)

	locale := middleware.LocaleFromContext(r.Context())
	for seq := 1; ; seq++ {
		_ = conn.SetReadDeadline(time.Now().Add(pointerIdle))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.Logger.Debug().Err(err).Str("session_id", s.ID()).Msg("pointer stream closed")
			}
			// a dropped connection ends any stroke in progress
			_ = s.Pointer(mask.Up())
			return
		}

		var raw mask.RawPointer
		if err = json.Unmarshal(msg, &raw); err == nil {
			var ev mask.PointerEvent
			if ev, err = mask.Normalize(raw); err != nil {
				err = malformed(err)
			} else {
				err = s.Pointer(ev)
			}
		} else {
			err = malformed(err)
		}

		snap := s.Snapshot()
		ack := pointerAck{Seq: seq, State: snap.State, Strokes: snap.Strokes, Painting: snap.Painting}
		if err != nil {
			kind := domain.KindOf(err)
			ack.Error = &errorBody{Code: string(kind), Message: a.I18N.Kind(locale, kind)}
		}
		if err := conn.WriteJSON(ack); err != nil {
			return
		}
	}
}
