// Package router déclare les routes de l'API.
package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ahouajeanluc-hub/cartes-backend/core/api/handler"
	"github.com/ahouajeanluc-hub/cartes-backend/core/api/middleware"
	authsvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/auth/service"
)

// Handlers regroupe les handlers injectés dans le routeur
type Handlers struct {
	Auth    *handler.AuthHandler
	Carte   *handler.CarteHandler
	Journal *handler.JournalHandler
}

// SetupRoutes enregistre toutes les routes sous /api.
// Les middlewares sont posés via Group().Use(): l'enregistrement inline
// (app.Get(path, mw, handler)) n'est pas fiable avec cette version de Fiber.
func SetupRoutes(app *fiber.App, users *authsvc.UtilisateurService, h Handlers) {
	api := app.Group("/api")

	// Routes publiques
	api.Post("/auth/login", h.Auth.Login)

	auth := middleware.Authenticated(users)
	admin := middleware.RequireAdmin()

	// Cartes: tout utilisateur authentifié. Le contrôle fin des colonnes
	// modifiables se fait dans le service selon le rôle.
	cartes := api.Group("/cartes")
	cartes.Use(auth)
	cartes.Get("/", h.Carte.List)
	cartes.Get("/statistiques", h.Carte.Statistiques)
	cartes.Post("/", h.Carte.Create)
	cartes.Post("/import", h.Carte.Import)
	cartes.Get("/:id", h.Carte.GetById)
	cartes.Put("/:id", h.Carte.Update)
	cartes.Delete("/:id", h.Carte.Delete)

	// Journal: consultation et annulation réservées à l'administration
	journal := api.Group("/journal")
	journal.Use(auth)
	journal.Use(admin)
	journal.Get("/", h.Journal.List)
	journal.Get("/statistiques", h.Journal.ActivityStats)
	journal.Get("/imports", h.Journal.ListBatches)
	journal.Post("/imports/:batchId/annuler", h.Journal.CancelBatch)
	journal.Post("/purge", h.Journal.Purge)
	journal.Get("/:id", h.Journal.Get)
	journal.Post("/:id/annuler", h.Journal.Undo)

	// Comptes: création réservée à l'administration
	utilisateurs := api.Group("/utilisateurs")
	utilisateurs.Use(auth)
	utilisateurs.Use(admin)
	utilisateurs.Post("/", h.Auth.CreateUtilisateur)
}
