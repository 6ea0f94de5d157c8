package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nexora-club/membership-backend/handlers"
	"github.com/nexora-club/membership-backend/middleware"
	"github.com/nexora-club/membership-backend/models"
	"github.com/nexora-club/membership-backend/services"
)

func SetupRoutes(
	router *chi.Mux,
	tokens services.TokenService,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	teamHandler *handlers.TeamHandler,
	taskHandler *handlers.TaskHandler,
	eventHandler *handlers.EventHandler,
	announcementHandler *handlers.AnnouncementHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(tokens)

	router.Get("/", healthCheck)

	router.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/google", authHandler.GoogleLogin)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Get("/me", authHandler.Me)
		})
	})

	router.Route("/api/users", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/{id}", userHandler.GetProfile)
		r.Put("/{id}", userHandler.UpdateProfile)
	})

	router.Route("/api/teams", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/school", teamHandler.ListBySchool)
		r.Get("/user/current", teamHandler.Current)
		r.Post("/", teamHandler.Create)
		r.Get("/{id}", teamHandler.Detail)
		r.Post("/{id}/join", teamHandler.Join)
		r.Post("/{id}/leave", teamHandler.Leave)

		r.Get("/{id}/tasks", taskHandler.List)
		r.Post("/{id}/tasks", taskHandler.Create)
		r.Put("/{id}/tasks/{taskID}", taskHandler.UpdateCompletion)
		r.Delete("/{id}/tasks/{taskID}", taskHandler.Delete)
	})

	router.Route("/api/events", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", eventHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authorize(models.RoleTeacher, models.RoleAdmin))
			r.Post("/", eventHandler.Create)
		})
		r.Delete("/{id}", eventHandler.Delete)
	})

	router.Route("/api/announcements", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", announcementHandler.List)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authorize(models.RoleTeacher, models.RoleAdmin))
			r.Post("/", announcementHandler.Create)
		})
		r.Delete("/{id}", announcementHandler.Delete)
	})

	router.Get("/ws/teams/{teamID}", webSocketHandler.ServeTeamFeed)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok","now":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
}
