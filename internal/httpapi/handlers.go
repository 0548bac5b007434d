package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/redblue-backend/internal/admin"
	"github.com/DoyleJ11/redblue-backend/internal/engine"
	"github.com/DoyleJ11/redblue-backend/internal/session"
)

// Sessions is the game API the handlers drive.
type Sessions interface {
	CreateGame(ctx context.Context, playerName string) (session.Created, error)
	JoinGame(ctx context.Context, code, playerName string) (session.Joined, error)
	SubmitChoice(ctx context.Context, gameID string, roundNumber int, playerName, token string, choice engine.Choice) error
	AbandonGame(ctx context.Context, gameID, playerName, token string) (session.Outcome, error)
	DisconnectPlayer(ctx context.Context, gameID, playerName, token string) (engine.State, error)
	DeleteGame(ctx context.Context, gameID, token string) error
	GetGame(ctx context.Context, gameID, token string) (*engine.Game, error)
	ListGames(ctx context.Context, page, pageSize int, state string) (session.List, error)
	Exists(ctx context.Context, gameID string) (bool, error)
}

type detail struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, detail{Detail: msg})
}

func statusFor(kind engine.Kind) int {
	switch kind {
	case engine.KindNotFound:
		return http.StatusNotFound
	case engine.KindValidation:
		return http.StatusBadRequest
	case engine.KindConflict:
		return http.StatusConflict
	case engine.KindUnauthorized, engine.KindPreconditionFailed:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := engine.KindOf(err)
	if kind == engine.KindInternal {
		log.Error("request failed", zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "internal server error")
		return
	}
	var e *engine.Error
	errors.As(err, &e)
	writeDetail(w, statusFor(kind), e.Message)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	_, token, _ := strings.Cut(r.Header.Get("Authorization"), " ")
	return strings.TrimSpace(token)
}

type playerRequest struct {
	PlayerName string `json:"player_name"`
	Token      string `json:"token"`
}

func CreateGame(svc Sessions, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Player1Name string `json:"player1_name"`
		}
		if !decode(w, r, &req) {
			return
		}
		created, err := svc.CreateGame(r.Context(), req.Player1Name)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, struct {
			GameID string `json:"game_id"`
			Code   string `json:"code"`
			Role   string `json:"role"`
			Token  string `json:"token"`
		}{created.GameID, created.JoinCode, created.Seat.Role(), created.Token})
	}
}

func JoinGame(svc Sessions, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Code       string `json:"code"`
			PlayerName string `json:"player_name"`
		}
		if !decode(w, r, &req) {
			return
		}
		joined, err := svc.JoinGame(r.Context(), req.Code, req.PlayerName)
		if err != nil {
			writeError(w, log, err)
			return
		}
		g := joined.Game
		writeJSON(w, http.StatusOK, struct {
			GameID       string       `json:"game_id"`
			Player1Name  *string      `json:"player1_name"`
			Player2Name  *string      `json:"player2_name"`
			Player1Score int          `json:"player1_score"`
			Player2Score int          `json:"player2_score"`
			GameState    engine.State `json:"game_state"`
			Role         string       `json:"role"`
			Token        string       `json:"token"`
		}{
			GameID:       g.ID,
			Player1Name:  optional(g.Seat1.Name),
			Player2Name:  optional(g.Seat2.Name),
			Player1Score: g.Seat1.Score,
			Player2Score: g.Seat2.Score,
			GameState:    g.State,
			Role:         joined.Seat.Role(),
			Token:        joined.Token,
		})
	}
}

func GetGame(svc Sessions, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := svc.GetGame(r.Context(), chi.URLParam(r, "gameID"), bearerToken(r))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, newGameView(g))
	}
}

func SubmitChoice(svc Sessions, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := strconv.Atoi(chi.URLParam(r, "round"))
		if err != nil {
			writeError(w, log, engine.ErrInvalidRound)
			return
		}
		var req struct {
			playerRequest
			Choice string `json:"choice"`
		}
		if !decode(w, r, &req) {
			return
		}
		err = svc.SubmitChoice(r.Context(), chi.URLParam(r, "gameID"), round, req.PlayerName, req.Token, engine.Choice(req.Choice))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Choice registered successfully"})
	}
}

func AbandonGame(svc Sessions, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playerRequest
		if !decode(w, r, &req) {
			return
		}
		out, err := svc.AbandonGame(r.Context(), chi.URLParam(r, "gameID"), req.PlayerName, req.Token)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Response     string       `json:"response"`
			GameState    engine.State `json:"game_state"`
			Player1Score int          `json:"player1_score"`
			Player2Score int          `json:"player2_score"`
		}{fmt.Sprintf("%s abandoned the game!", req.PlayerName), out.State, out.Score1, out.Score2})
	}
}

func DisconnectPlayer(svc Sessions, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playerRequest
		if !decode(w, r, &req) {
			return
		}
		state, err := svc.DisconnectPlayer(r.Context(), chi.URLParam(r, "gameID"), req.PlayerName, req.Token)
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Message   string       `json:"message"`
			GameState engine.State `json:"game_state"`
		}{fmt.Sprintf("%s disconnected from the game!", req.PlayerName), state})
	}
}

func DeleteGame(svc Sessions, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteGame(r.Context(), chi.URLParam(r, "gameID"), bearerToken(r)); err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Game deleted successfully."})
	}
}

func ListGames(svc Sessions, auth *admin.Auth, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if !auth.Authorize(q.Get("admin_token")) {
			writeDetail(w, http.StatusForbidden, "Invalid admin token.")
			return
		}
		page, ok := intParam(q.Get("page"), 1)
		if !ok {
			writeError(w, log, engine.ErrInvalidPage)
			return
		}
		pageSize, ok := intParam(q.Get("page_size"), 0)
		if !ok {
			writeDetail(w, http.StatusBadRequest, "page_size must be a number")
			return
		}
		list, err := svc.ListGames(r.Context(), page, pageSize, q.Get("game_state"))
		if err != nil {
			writeError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, newListView(list))
	}
}

func intParam(raw string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

func AdminLogin(auth *admin.Auth, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Password string `json:"password"`
		}
		if !decode(w, r, &req) {
			return
		}
		token, err := auth.Login(req.Password)
		switch {
		case errors.Is(err, admin.ErrDisabled):
			writeDetail(w, http.StatusForbidden, "Admin login is disabled.")
			return
		case err != nil:
			log.Warn("failed admin login", zap.String("remote", r.RemoteAddr))
			writeDetail(w, http.StatusUnauthorized, "Invalid password!")
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Message    string `json:"message"`
			AdminToken string `json:"admin_token"`
		}{"Successfully logged in!", token})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
