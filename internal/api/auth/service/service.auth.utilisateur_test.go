package authsvc

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ahouajeanluc-hub/cartes-backend/config"
	"github.com/ahouajeanluc-hub/cartes-backend/core/global"
	"github.com/ahouajeanluc-hub/cartes-backend/internal/api/auth/models"
)

func TestCreateToken_ClaimsEtExpiration(t *testing.T) {
	global.ServerConfig = &config.Configuration{JwtSecret: "secret-de-test"}

	user := &models.Utilisateur{
		ID:             primitive.NewObjectID(),
		NomUtilisateur: "kouame",
		Role:           "Administrateur",
	}

	service := &UtilisateurService{}
	signed, err := service.createToken(user)
	require.NoError(t, err)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret-de-test"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, user.ID.Hex(), claims.UtilisateurID)
	assert.Equal(t, "kouame", claims.NomUtilisateur)

	// La session doit expirer dans ~24 heures
	restant := time.Until(claims.ExpiresAt.Time)
	assert.InDelta(t, (24 * time.Hour).Seconds(), restant.Seconds(), 60,
		"Le token doit expirer 24 heures après son émission")
}

func TestCreateToken_SignatureInvalideRejetee(t *testing.T) {
	global.ServerConfig = &config.Configuration{JwtSecret: "secret-de-test"}

	user := &models.Utilisateur{ID: primitive.NewObjectID(), NomUtilisateur: "kouame"}
	service := &UtilisateurService{}
	signed, err := service.createToken(user)
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(signed, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("autre-secret"), nil
	})
	assert.Error(t, err, "Un token signé avec un autre secret doit être rejeté")
}

func TestActor_FigeLIdentite(t *testing.T) {
	user := &models.Utilisateur{
		ID:             primitive.NewObjectID(),
		NomUtilisateur: "kouame",
		NomComplet:     "KOUAME Jean",
		Role:           "Opérateur",
		Agence:         "Abidjan",
	}

	actor := Actor(user)
	require.NotNil(t, actor.UtilisateurID)
	assert.Equal(t, user.ID, *actor.UtilisateurID)
	assert.Equal(t, "kouame", actor.NomUtilisateur)
	assert.Equal(t, "KOUAME Jean", actor.NomComplet)
	assert.Equal(t, "Opérateur", actor.Role)
	assert.Equal(t, "Abidjan", actor.Agence)
}
