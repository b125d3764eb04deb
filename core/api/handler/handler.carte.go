package handler

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ahouajeanluc-hub/cartes-backend/core/api/dto"
	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/internal/api/carte/models"
	cartesvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/carte/service"
)

// CarteHandler gère les routes des cartes
type CarteHandler struct {
	cartes *cartesvc.CarteService
}

// NewCarteHandler crée le handler des cartes
func NewCarteHandler(cartes *cartesvc.CarteService) *CarteHandler {
	return &CarteHandler{cartes: cartes}
}

func carteFromInput(input dto.CarteCreateInput) models.Carte {
	return models.Carte{
		LieuEnrolement: input.LieuEnrolement,
		SiteRetrait:    input.SiteRetrait,
		Rangement:      input.Rangement,
		Nom:            input.Nom,
		Prenoms:        input.Prenoms,
		DateNaissance:  input.DateNaissance,
		LieuNaissance:  input.LieuNaissance,
		Contact:        input.Contact,
		Delivrance:     input.Delivrance,
		ContactRetrait: input.ContactRetrait,
		DateDelivrance: input.DateDelivrance,
	}
}

func parseIDParam(c fiber.Ctx) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return primitive.NilObjectID, common.ErrInvalidFormat
	}
	return id, nil
}

// Create POST /cartes
func (h *CarteHandler) Create(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		actor, err := currentActor(c)
		if err != nil {
			return HandleErrorResponse(c, err)
		}

		var input dto.CarteCreateInput
		if err := ParseRequestBody(c, &input); err != nil {
			return HandleErrorResponse(c, err)
		}

		created, err := h.cartes.Create(c.Context(), carteFromInput(input), actor, c.IP())
		return HandleResponse(c, created, err)
	})
}

// List GET /cartes?page=&limit=&search=
func (h *CarteHandler) List(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		page := QueryInt64(c, "page", 1)
		limit := QueryInt64(c, "limit", 50)
		search := c.Query("search")

		result, err := h.cartes.List(c.Context(), page, limit, search)
		return HandleResponse(c, result, err)
	})
}

// GetById GET /cartes/:id
func (h *CarteHandler) GetById(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		id, err := parseIDParam(c)
		if err != nil {
			return HandleErrorResponse(c, err)
		}

		carte, err := h.cartes.GetById(c.Context(), id)
		return HandleResponse(c, carte, err)
	})
}

// Update PUT /cartes/:id — le corps est une map de colonnes; le service ne
// garde que celles autorisées pour le rôle de l'appelant
func (h *CarteHandler) Update(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		actor, err := currentActor(c)
		if err != nil {
			return HandleErrorResponse(c, err)
		}

		id, err := parseIDParam(c)
		if err != nil {
			return HandleErrorResponse(c, err)
		}

		var updates map[string]interface{}
		if err := ParseRequestBody(c, &updates); err != nil {
			return HandleErrorResponse(c, err)
		}

		updated, err := h.cartes.Update(c.Context(), id, updates, actor, c.IP())
		return HandleResponse(c, updated, err)
	})
}

// Delete DELETE /cartes/:id
func (h *CarteHandler) Delete(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		actor, err := currentActor(c)
		if err != nil {
			return HandleErrorResponse(c, err)
		}

		id, err := parseIDParam(c)
		if err != nil {
			return HandleErrorResponse(c, err)
		}

		err = h.cartes.Delete(c.Context(), id, actor, c.IP())
		return HandleResponse(c, fiber.Map{"id": id.Hex()}, err)
	})
}

// Import POST /cartes/import
func (h *CarteHandler) Import(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		actor, err := currentActor(c)
		if err != nil {
			return HandleErrorResponse(c, err)
		}

		var input dto.CarteImportInput
		if err := ParseRequestBody(c, &input); err != nil {
			return HandleErrorResponse(c, err)
		}

		cartes := make([]models.Carte, 0, len(input.Cartes))
		for _, item := range input.Cartes {
			cartes = append(cartes, carteFromInput(item))
		}

		result, err := h.cartes.ImportCartes(c.Context(), cartes, actor, c.IP())
		return HandleResponse(c, result, err)
	})
}

// Statistiques GET /cartes/statistiques
func (h *CarteHandler) Statistiques(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		stats, err := h.cartes.Statistiques(c.Context())
		return HandleResponse(c, stats, err)
	})
}
