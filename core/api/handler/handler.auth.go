package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ahouajeanluc-hub/cartes-backend/core/api/dto"
	authmodels "github.com/ahouajeanluc-hub/cartes-backend/internal/api/auth/models"
	authsvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/auth/service"
)

// AuthHandler gère la connexion et la gestion des comptes
type AuthHandler struct {
	users *authsvc.UtilisateurService
}

// NewAuthHandler crée le handler d'authentification
func NewAuthHandler(users *authsvc.UtilisateurService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Login POST /auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		var input dto.LoginInput
		if err := ParseRequestBody(c, &input); err != nil {
			return HandleErrorResponse(c, err)
		}

		result, err := h.users.Login(c.Context(), input.NomUtilisateur, input.MotDePasse, c.IP())
		return HandleResponse(c, result, err)
	})
}

// CreateUtilisateur POST /utilisateurs (réservé aux administrateurs)
func (h *AuthHandler) CreateUtilisateur(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		var input dto.UtilisateurCreateInput
		if err := ParseRequestBody(c, &input); err != nil {
			return HandleErrorResponse(c, err)
		}

		user := authmodels.Utilisateur{
			NomUtilisateur: input.NomUtilisateur,
			NomComplet:     input.NomComplet,
			Role:           input.Role,
			Agence:         input.Agence,
			Email:          input.Email,
		}
		created, err := h.users.Create(c.Context(), user, input.MotDePasse)
		return HandleResponse(c, created, err)
	})
}
