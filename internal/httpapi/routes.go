package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/redblue-backend/internal/admin"
	"github.com/DoyleJ11/redblue-backend/internal/hub"
	"github.com/DoyleJ11/redblue-backend/internal/logging"
	"github.com/DoyleJ11/redblue-backend/internal/ws"
)

type Deps struct {
	Sessions  Sessions
	Hub       *hub.Hub
	Admin     *admin.Auth
	Log       *zap.Logger
	WSOptions ws.Options
}

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(d.Log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", Healthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/admin/login", AdminLogin(d.Admin, d.Log))
		r.Get("/games", ListGames(d.Sessions, d.Admin, d.Log))

		r.Route("/game", func(r chi.Router) {
			r.Post("/create", CreateGame(d.Sessions, d.Log))
			r.Post("/join", JoinGame(d.Sessions, d.Log))
			r.Get("/{gameID}", GetGame(d.Sessions, d.Log))
			r.Post("/{gameID}/round/{round}/choice", SubmitChoice(d.Sessions, d.Log))
			r.Post("/{gameID}/abandon", AbandonGame(d.Sessions, d.Log))
			r.Post("/{gameID}/disconnect", DisconnectPlayer(d.Sessions, d.Log))
			r.Delete("/{gameID}/delete", DeleteGame(d.Sessions, d.Log))
		})
	})

	r.Get("/ws/game/{gameID}", ws.Handler(d.Sessions, d.Hub, d.Log, d.WSOptions))
	return r
}
