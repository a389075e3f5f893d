package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/reelhouse/movie-catalog/internal/api/http/handlers"
	"github.com/reelhouse/movie-catalog/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Movies  *handlers.MoviesHandler
	Drafts  *handlers.DraftsHandler
	Persons *handlers.PersonsHandler
	Reviews *handlers.ReviewsHandler
	Clients *handlers.ClientBinder
}

// RegisterRoutes wires HTTP routes. Everything except health probes runs with
// the caller's session bound.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	web := app.Group("", cfg.Clients.Handle)
	web.Get("/login", cfg.Auth.LoginPage)
	web.Post("/login", cfg.Auth.Login)
	web.Post("/register", cfg.Auth.Register)
	web.Post("/logout", cfg.Auth.Logout)
	web.Get("/me", cfg.Auth.Me)

	web.Get("/", cfg.Movies.Home)
	web.Get("/movies", cfg.Movies.List)
	web.Get("/movies/search", cfg.Movies.Search)
	web.Get("/movies/:id", cfg.Movies.Detail)
	web.Get("/movies/:id/reviews", cfg.Reviews.ForMovie)
	web.Get("/reviews/:id", cfg.Reviews.Get)
	web.Get("/users/:id/reviews", cfg.Reviews.ForUser)

	member := auth.RequireSession()
	web.Get("/me/reviews", member, cfg.Reviews.Mine)
	web.Post("/movies/:id/reviews", member, cfg.Reviews.Create)
	web.Put("/reviews/:id", member, cfg.Reviews.Update)
	web.Patch("/reviews/:id", member, cfg.Reviews.Patch)
	web.Delete("/reviews/:id", member, cfg.Reviews.Delete)

	admin := web.Group("/admin", auth.RequireAdmin())
	admin.Post("/movies/drafts", cfg.Drafts.Create)
	admin.Get("/movies/drafts/:draftId", cfg.Drafts.Get)
	admin.Patch("/movies/drafts/:draftId", cfg.Drafts.Patch)
	admin.Delete("/movies/drafts/:draftId", cfg.Drafts.Delete)
	admin.Post("/movies/drafts/:draftId/genres/:genreId", cfg.Drafts.ToggleGenre)
	admin.Post("/movies/drafts/:draftId/credits", cfg.Drafts.AddCredit)
	admin.Delete("/movies/drafts/:draftId/credits/:index", cfg.Drafts.RemoveCredit)
	admin.Post("/movies/drafts/:draftId/persons", cfg.Drafts.CreatePerson)
	admin.Post("/movies/drafts/:draftId/submit", cfg.Drafts.Submit)

	admin.Get("/movies/:id", cfg.Movies.Edit)
	admin.Put("/movies/:id", cfg.Movies.Update)
	admin.Delete("/movies/:id", cfg.Movies.Delete)
	admin.Get("/movies/:id/cast", cfg.Movies.Cast)
	admin.Delete("/cast/:participationId", cfg.Movies.RemoveCast)
	admin.Get("/persons/search", cfg.Persons.Search)
	admin.Post("/persons", cfg.Persons.Create)
	admin.Get("/genres", cfg.Movies.Genres)
	admin.Get("/roles", cfg.Movies.Roles)
}
