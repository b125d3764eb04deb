// Package models - modèle utilisateur du domaine auth.
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Utilisateur définit un compte du système. Le rôle est un intitulé libre
// ("Administrateur", "Opérateur Abidjan", ...) interprété par le contrôle
// d'accès des colonnes.
type Utilisateur struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	NomUtilisateur string             `json:"nomUtilisateur" bson:"NomUtilisateur" index:"unique"`
	MotDePasse     string             `json:"-" bson:"MotDePasse"` // Hash bcrypt, jamais sérialisé
	NomComplet     string             `json:"nomComplet" bson:"NomComplet"`
	Role           string             `json:"role" bson:"Role"`
	Agence         string             `json:"agence,omitempty" bson:"Agence,omitempty"`
	Email          string             `json:"email,omitempty" bson:"Email,omitempty" index:"unique,sparse"`
	Actif          bool               `json:"actif" bson:"Actif"`
	CreatedAt      int64              `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt      int64              `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}
