// Package middleware contient les middlewares HTTP de l'API.
package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/core/logger"
	authmodels "github.com/ahouajeanluc-hub/cartes-backend/internal/api/auth/models"
	authsvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/auth/service"
)

// JSONResponse force charset=utf-8 sur les réponses d'erreur du middleware
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	c.Set("Content-Type", "application/json; charset=utf-8")
	return c.Status(statusCode).JSON(data)
}

// HandleErrorResponse renvoie l'erreur au client (dupliqué du handler pour
// éviter un cycle d'import)
func HandleErrorResponse(c fiber.Ctx, err error) error {
	var customErr *common.Error
	if errors.As(err, &customErr) {
		return JSONResponse(c, customErr.StatusCode, fiber.Map{
			"code":    customErr.Code.Code,
			"message": customErr.Message,
			"details": customErr.Details,
			"status":  "error",
		})
	}
	return JSONResponse(c, common.StatusInternalServerError, fiber.Map{
		"code":    common.ErrCodeInternalServer.Code,
		"message": err.Error(),
		"status":  "error",
	})
}

// Authenticated valide le token Bearer et pose l'utilisateur actif dans le
// contexte sous la clé "utilisateur"
func Authenticated(users *authsvc.UtilisateurService) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			logger.WithRequest(c).Warn("Header Authorization manquant")
			return HandleErrorResponse(c, common.ErrTokenMissing)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return HandleErrorResponse(c, common.ErrTokenInvalid)
		}

		user, err := users.VerifyToken(c.Context(), parts[1])
		if err != nil {
			logger.WithRequest(c).WithError(err).Warn("Token rejeté")
			return HandleErrorResponse(c, err)
		}

		c.Locals("utilisateur", user)
		return c.Next()
	}
}

// estAdministrateur reconnaît les rôles d'administration, intitulés composés
// compris ("Superviseur Abidjan")
func estAdministrateur(role string) bool {
	r := strings.ToLower(role)
	return strings.Contains(r, "administrateur") || strings.Contains(r, "superviseur")
}

// RequireAdmin réserve la route aux administrateurs et superviseurs.
// À poser après Authenticated.
func RequireAdmin() fiber.Handler {
	return func(c fiber.Ctx) error {
		user, ok := c.Locals("utilisateur").(*authmodels.Utilisateur)
		if !ok || user == nil {
			return HandleErrorResponse(c, common.ErrTokenMissing)
		}
		if !estAdministrateur(user.Role) {
			logger.WithRequest(c).WithFields(map[string]interface{}{
				"nomUtilisateur": user.NomUtilisateur,
				"role":           user.Role,
			}).Warn("Accès refusé: rôle insuffisant")
			return HandleErrorResponse(c, common.ErrRoleForbidden)
		}
		return c.Next()
	}
}
