package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/redblue-backend/internal/engine"
	"github.com/DoyleJ11/redblue-backend/internal/hub"
	"github.com/DoyleJ11/redblue-backend/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	outboxSize   = 16
)

// Sessions is the slice of the session service the socket needs.
type Sessions interface {
	Exists(ctx context.Context, gameID string) (bool, error)
	DisconnectPlayer(ctx context.Context, gameID, playerName, token string) (engine.State, error)
}

type Options struct {
	// OriginPatterns allows cross-origin clients, e.g. "localhost:*".
	OriginPatterns []string
}

func Handler(sessions Sessions, h *hub.Hub, log *zap.Logger, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")
		ok, err := sessions.Exists(r.Context(), gameID)
		if err != nil {
			http.Error(w, "failed to load game", http.StatusInternalServerError)
			return
		}
		if !ok {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: opts.OriginPatterns})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		sub := h.Subscribe(gameID, outboxSize)
		if sub == nil {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}
		defer h.Unsubscribe(sub)

		log := log.With(zap.String("game_id", gameID))
		log.Debug("websocket connected")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for ev := range sub.C {
				if err := writeJSON(writeCtx, conn, types.EventMessage(ev)); err != nil {
					log.Debug("websocket write failed", zap.Error(err))
				}
			}
			// Closed by the hub: we fell behind or the hub stopped.
			if writeCtx.Err() == nil {
				conn.Close(websocket.StatusTryAgainLater, "subscription dropped")
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("websocket read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = writeJSON(r.Context(), conn, types.ErrorMessage("bad json"))
				continue
			}

			if cm.Type != types.ClientDisconnect {
				h.Publish(gameID, engine.ClientRelay{Payload: json.RawMessage(data)})
				continue
			}
			if cm.PlayerName == "" || cm.Token == "" {
				_ = writeJSON(r.Context(), conn, types.ErrorMessage("player_name and token are required"))
				continue
			}
			if _, err := sessions.DisconnectPlayer(r.Context(), gameID, cm.PlayerName, cm.Token); err != nil {
				_ = writeJSON(r.Context(), conn, types.ErrorMessage(err.Error()))
			}
		}
	}
}

func writeJSON(parent context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(parent, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
