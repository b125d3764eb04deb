package handler

import (
	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ahouajeanluc-hub/cartes-backend/core/api/dto"
	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	journalsvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/service"
)

// JournalHandler gère la consultation du journal d'audit, l'annulation
// unitaire, les lots d'import et la purge de rétention
type JournalHandler struct {
	journal *journalsvc.JournalService
	undo    *journalsvc.UndoEngine
	batches *journalsvc.BatchLedger
}

// NewJournalHandler crée le handler du journal
func NewJournalHandler(journal *journalsvc.JournalService, undo *journalsvc.UndoEngine, batches *journalsvc.BatchLedger) *JournalHandler {
	return &JournalHandler{
		journal: journal,
		undo:    undo,
		batches: batches,
	}
}

// List GET /journal — page filtrée du journal, la plus récente en premier
func (h *JournalHandler) List(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		filter := journalsvc.EntryFilter{
			DateDebut:      QueryInt64(c, "dateDebut", 0),
			DateFin:        QueryInt64(c, "dateFin", 0),
			NomUtilisateur: c.Query("nomUtilisateur"),
			ActionType:     c.Query("actionType"),
			TableName:      c.Query("tableName"),
		}
		page := QueryInt64(c, "page", 1)
		limit := QueryInt64(c, "limit", 50)

		result, err := h.journal.FindEntries(c.Context(), filter, page, limit)
		return HandleResponse(c, result, err)
	})
}

// Get GET /journal/:id — une entrée par identifiant
func (h *JournalHandler) Get(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		id, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return HandleErrorResponse(c, common.ErrInvalidFormat)
		}

		entry, err := h.journal.GetEntry(c.Context(), id)
		return HandleResponse(c, entry, err)
	})
}

// Undo POST /journal/:id/annuler — inverse l'action journalisée
func (h *JournalHandler) Undo(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		actor, err := currentActor(c)
		if err != nil {
			return HandleErrorResponse(c, err)
		}

		id, err := primitive.ObjectIDFromHex(c.Params("id"))
		if err != nil {
			return HandleErrorResponse(c, common.ErrInvalidFormat)
		}

		result, err := h.undo.Undo(c.Context(), id, actor, c.IP())
		return HandleResponse(c, result, err)
	})
}

// ListBatches GET /journal/imports — historique des lots d'import
func (h *JournalHandler) ListBatches(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		batches, err := h.batches.ListBatches(c.Context())
		return HandleResponse(c, batches, err)
	})
}

// CancelBatch POST /journal/imports/:batchId/annuler — supprime tout le lot
func (h *JournalHandler) CancelBatch(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		actor, err := currentActor(c)
		if err != nil {
			return HandleErrorResponse(c, err)
		}

		result, err := h.batches.CancelBatch(c.Context(), c.Params("batchId"), actor, c.IP())
		return HandleResponse(c, result, err)
	})
}

// ActivityStats GET /journal/statistiques — activité par type d'action
func (h *JournalHandler) ActivityStats(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		jours := QueryInt64(c, "jours", 30)

		stats, err := h.journal.ActivityStats(c.Context(), int(jours))
		return HandleResponse(c, stats, err)
	})
}

// Purge POST /journal/purge — supprime les entrées plus vieilles que la rétention
func (h *JournalHandler) Purge(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		var input dto.PurgeInput
		if err := ParseRequestBody(c, &input); err != nil {
			return HandleErrorResponse(c, err)
		}

		purged, err := h.journal.PurgeOlderThan(c.Context(), int(input.RetentionJours))
		return HandleResponse(c, fiber.Map{"entreesSupprimees": purged}, err)
	})
}
