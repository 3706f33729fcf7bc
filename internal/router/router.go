package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/user-tasks-api/internal/auth"
	"github.com/BuzzLyutic/user-tasks-api/internal/handler"
	"github.com/BuzzLyutic/user-tasks-api/internal/repo"
	"github.com/BuzzLyutic/user-tasks-api/pkg/respond"
)

type Deps struct {
	Store    repo.TaskRepository
	Tasks    *handler.TaskHandler
	Verifier *auth.Verifier
	Logger   *zap.Logger
}

// New собирает роутер: /health открыт, все /task маршруты - только после проверки токена
func New(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := d.Store.Ping(r.Context()); err != nil {
			d.Logger.Error("health check failed", zap.Error(err))
			respond.JSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/task", func(r chi.Router) {
		r.Use(auth.Middleware(d.Verifier, d.Logger))

		r.Get("/", d.Tasks.List)
		r.Get("/search", d.Tasks.Search)
		r.Post("/", d.Tasks.Create)
		r.Post("/all", d.Tasks.CreateMany)
		r.Post("/deleteMany", d.Tasks.DeleteMany)
		r.Put("/{id}", d.Tasks.Update)
		r.Delete("/{id}", d.Tasks.Delete)
	})

	return r
}
