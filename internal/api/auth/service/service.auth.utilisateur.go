// Package authsvc - authentification et comptes utilisateurs.
package authsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/core/database"
	"github.com/ahouajeanluc-hub/cartes-backend/core/global"
	"github.com/ahouajeanluc-hub/cartes-backend/core/logger"
	basesvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/base/service"
	"github.com/ahouajeanluc-hub/cartes-backend/internal/api/auth/models"
	journalmodels "github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/models"
	journalsvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/service"
)

// Durée de validité d'une session
const tokenTTL = 24 * time.Hour

// Claims porte l'identité encodée dans le token JWT
type Claims struct {
	UtilisateurID  string `json:"id"`
	NomUtilisateur string `json:"nomUtilisateur"`
	jwt.RegisteredClaims
}

// LoginResult est la réponse d'une connexion réussie
type LoginResult struct {
	Token       string             `json:"token"`
	Utilisateur models.Utilisateur `json:"utilisateur"`
}

// UtilisateurService gère les comptes et l'authentification
type UtilisateurService struct {
	*basesvc.BaseServiceMongoImpl[models.Utilisateur]
	recorder *journalsvc.Recorder
}

// NewUtilisateurService crée le service des utilisateurs
func NewUtilisateurService(db *database.Handle, recorder *journalsvc.Recorder) *UtilisateurService {
	return &UtilisateurService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.Utilisateur](db.Collection(global.ColNames.Utilisateurs)),
		recorder:             recorder,
	}
}

// Actor fige l'identité d'un utilisateur pour le journal
func Actor(u *models.Utilisateur) journalmodels.Actor {
	id := u.ID
	return journalmodels.Actor{
		UtilisateurID:  &id,
		NomUtilisateur: u.NomUtilisateur,
		NomComplet:     u.NomComplet,
		Role:           u.Role,
		Agence:         u.Agence,
	}
}

// Create enregistre un nouveau compte avec le mot de passe haché en bcrypt
func (s *UtilisateurService) Create(ctx context.Context, u models.Utilisateur, motDePasse string) (*models.Utilisateur, error) {
	if err := global.Validate.Var(motDePasse, "required,strong_password"); err != nil {
		return nil, common.NewError(
			common.ErrCodeValidationInput,
			"Mot de passe trop faible: 8 caractères minimum avec majuscules, minuscules et chiffres",
			common.StatusBadRequest,
			nil,
		)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(motDePasse), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.NewError(common.ErrCodeInternalServer, "Erreur de hachage du mot de passe", common.StatusInternalServerError, err)
	}
	u.MotDePasse = string(hash)
	u.Actif = true

	created, err := s.InsertOne(ctx, u)
	if err != nil {
		if errors.Is(err, common.ErrMongoDuplicate) {
			return nil, common.NewError(common.ErrCodeValidationInput, "Ce nom d'utilisateur existe déjà", common.StatusConflict, nil)
		}
		return nil, err
	}
	return &created, nil
}

// Login vérifie les identifiants et délivre un token de session.
// La connexion réussie est journalisée (CONNEXION) en meilleur effort.
func (s *UtilisateurService) Login(ctx context.Context, nomUtilisateur, motDePasse, ip string) (*LoginResult, error) {
	user, err := s.FindOne(ctx, bson.M{"NomUtilisateur": nomUtilisateur}, nil)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// Même réponse qu'un mauvais mot de passe: ne pas révéler
			// l'existence du compte.
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.MotDePasse), []byte(motDePasse)); err != nil {
		logger.WithModule("auth").WithFields(map[string]interface{}{
			"nomUtilisateur": nomUtilisateur,
			"ip":             ip,
		}).Warn("Tentative de connexion avec mot de passe incorrect")
		return nil, common.ErrInvalidCredentials
	}

	if !user.Actif {
		return nil, common.ErrUserInactive
	}

	token, err := s.createToken(&user)
	if err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, journalsvc.RecordInput{
		ActionType: journalmodels.ActionConnexion,
		Actor:      Actor(&user),
		Details:    fmt.Sprintf("Connexion de %s", user.NomUtilisateur),
		AdresseIP:  ip,
	})

	user.MotDePasse = ""
	return &LoginResult{Token: token, Utilisateur: user}, nil
}

// createToken signe un JWT HS256 pour l'utilisateur
func (s *UtilisateurService) createToken(u *models.Utilisateur) (string, error) {
	now := time.Now()
	claims := Claims{
		UtilisateurID:  u.ID.Hex(),
		NomUtilisateur: u.NomUtilisateur,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(global.ServerConfig.JwtSecret))
	if err != nil {
		return "", common.NewError(common.ErrCodeAuthToken, "Erreur de génération du token", common.StatusInternalServerError, err)
	}
	return signed, nil
}

// VerifyToken valide un token de session et recharge l'utilisateur actif.
// Un compte désactivé entre l'émission du token et la requête est rejeté.
func (s *UtilisateurService) VerifyToken(ctx context.Context, tokenStr string) (*models.Utilisateur, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("méthode de signature inattendue: %v", t.Header["alg"])
		}
		return []byte(global.ServerConfig.JwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, common.ErrTokenInvalid
	}

	userID, err := primitive.ObjectIDFromHex(claims.UtilisateurID)
	if err != nil {
		return nil, common.ErrTokenInvalid
	}

	user, err := s.FindOneById(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, err
	}
	if !user.Actif {
		return nil, common.ErrUserInactive
	}

	return &user, nil
}
