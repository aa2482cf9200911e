package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/vidshare/internal/config"
	authsvc "github.com/ivankudzin/vidshare/internal/services/auth"
	tweetssvc "github.com/ivankudzin/vidshare/internal/services/tweets"
	userssvc "github.com/ivankudzin/vidshare/internal/services/users"
	videossvc "github.com/ivankudzin/vidshare/internal/services/videos"
	"github.com/ivankudzin/vidshare/internal/transport/http/handlers"
	"github.com/ivankudzin/vidshare/internal/transport/http/upload"
)

type Dependencies struct {
	AuthService  *authsvc.Service
	UserService  *userssvc.Service
	VideoService *videossvc.Service
	TweetService *tweetssvc.Service
	Staging      *upload.Staging
	Logger       *zap.Logger
	Config       config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.UserService, deps.AuthService)
	userHandler := handlers.NewUserHandler(deps.UserService, deps.Staging)
	videoHandler := handlers.NewVideoHandler(deps.VideoService, deps.Staging)
	tweetHandler := handlers.NewTweetHandler(deps.TweetService)
	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", userHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh-token", authHandler.Refresh)
			r.With(authMW).Post("/logout", authHandler.Logout)
			r.With(authMW).Get("/me", userHandler.Me)
			r.With(authMW).Patch("/me", userHandler.UpdateDetails)
			r.With(authMW).Patch("/me/avatar", userHandler.UpdateAvatar)
			r.With(authMW).Patch("/me/cover", userHandler.UpdateCover)
			r.With(authMW).Post("/me/password", userHandler.ChangePassword)
			r.Get("/{id}", userHandler.GetByID)
		})

		r.Route("/videos", func(r chi.Router) {
			r.With(authMW).Post("/", videoHandler.Publish)
			r.Get("/{id}", videoHandler.Get)
			r.With(authMW).Patch("/{id}", videoHandler.Update)
			r.With(authMW).Delete("/{id}", videoHandler.Delete)
		})

		r.Route("/tweets", func(r chi.Router) {
			r.With(authMW).Post("/", tweetHandler.Create)
			r.Get("/user/{userID}", tweetHandler.ListByUser)
			r.With(authMW).Patch("/{id}", tweetHandler.Update)
			r.With(authMW).Delete("/{id}", tweetHandler.Delete)
		})
	})
}
