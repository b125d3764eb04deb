package global

import (
	"github.com/ahouajeanluc-hub/cartes-backend/config"

	"github.com/go-playground/validator/v10"
)

// CollectionName contient les noms des collections MongoDB
type CollectionName struct {
	Journal      string // Collection du journal d'audit
	Cartes       string // Collection des cartes d'identité
	Utilisateurs string // Collection des utilisateurs
}

// Variables globales
var Validate *validator.Validate           // Validateur des données d'entrée
var ServerConfig *config.Configuration     // Configuration du serveur
var ColNames = CollectionName{             // Noms des collections
	Journal:      "journal",
	Cartes:       "cartes",
	Utilisateurs: "utilisateurs",
}
