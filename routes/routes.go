package routes

import (
	_ "embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // alias, чтобы не конфликтовать с нашим middleware
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.json
var openAPIDoc []byte

type Options struct {
	JWTSecret       string
	OperatorKeyHash string
	AllowedOrigins  []string
	Logger          *slog.Logger
}

type Handlers struct {
	Auth      *handlers.AuthHandler
	Tier      *handlers.TierHandler
	Instance  *handlers.InstanceHandler
	Match     *handlers.MatchHandler
	Player    *handlers.PlayerHandler
	WebSocket *handlers.WebSocketHandler
}

func SetupRoutes(router chi.Router, opts Options, h Handlers) {
	authenticate := middleware.Authenticate([]byte(opts.JWTSecret), opts.Logger)
	operatorOnly := middleware.RequireOperatorKey(opts.OperatorKeyHash)

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.OperatorKeyHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(openAPIDoc)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// вебсокеты живут дольше таймаута остальных запросов
	router.Get("/ws/lobby", h.WebSocket.ServeLobby)
	router.Get("/ws/tiers/{tierID}/instances/{instanceID}", h.WebSocket.ServeInstance)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.With(operatorOnly).Post("/auth/tokens", h.Auth.IssueTokenHandler)

		r.Route("/tiers", func(r chi.Router) {
			r.Get("/", h.Tier.ListHandler)
			r.With(operatorOnly).Post("/", h.Tier.RegisterHandler)

			r.Route("/{tierID}", func(r chi.Router) {
				r.Get("/", h.Tier.GetHandler)
				r.Get("/instances", h.Instance.ListHandler)

				r.Route("/instances/{instanceID}", func(r chi.Router) {
					r.Get("/", h.Instance.GetHandler)
					r.Get("/events", h.Instance.EventsHandler)
					r.Get("/cycles/{cycle}", h.Instance.CycleHandler)

					r.Group(func(r chi.Router) {
						r.Use(authenticate)
						r.Post("/enroll", h.Instance.EnrollHandler)
						r.Post("/force-start", h.Instance.ForceStartHandler)
						r.Post("/claim-abandoned", h.Instance.ClaimAbandonedPoolHandler)
						r.Post("/reset-window", h.Instance.ResetEnrollmentWindowHandler)
					})
				})
			})
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/stalled", h.Match.StalledHandler)

			r.Route("/{matchID}", func(r chi.Router) {
				r.Get("/", h.Match.GetHandler)
				r.Post("/report", h.Match.ReportHandler)

				r.Group(func(r chi.Router) {
					r.Use(authenticate)
					r.Post("/moves", h.Match.MoveHandler)
					r.Post("/claim-timeout", h.Match.ClaimTimeoutHandler)
					r.Post("/force-eliminate", h.Match.ForceEliminateHandler)
					r.Post("/claim-slot", h.Match.ClaimSlotHandler)
				})
			})
		})

		r.Route("/players/{address}", func(r chi.Router) {
			r.Get("/", h.Player.GetHandler)
			r.Get("/records", h.Player.RecordsHandler)
			r.Get("/payouts", h.Player.PayoutsHandler)
			r.Get("/balance", h.Player.BalanceHandler)
		})

		r.Get("/leaderboard", h.Player.LeaderboardHandler)
		r.Get("/raffle", h.Player.RaffleHandler)
		r.Get("/raffle/history", h.Player.RaffleHistoryHandler)
		r.With(authenticate).Post("/raffle/execute", h.Player.ExecuteRaffleHandler)
	})
}
