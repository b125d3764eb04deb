package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Carte représente une carte d'identité suivie par le système.
// Les noms de colonnes (avec espaces et apostrophe) sont ceux du registre
// historique: ils sont persistés tels quels et ne doivent pas être renommés.
type Carte struct {
	ID primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`

	LieuEnrolement  string `json:"LIEU D'ENROLEMENT" bson:"LIEU D'ENROLEMENT"`
	SiteRetrait     string `json:"SITE DE RETRAIT" bson:"SITE DE RETRAIT"`
	Rangement       string `json:"RANGEMENT" bson:"RANGEMENT"`
	Nom             string `json:"NOM" bson:"NOM"`
	Prenoms         string `json:"PRENOMS" bson:"PRENOMS"`
	DateNaissance   string `json:"DATE DE NAISSANCE" bson:"DATE DE NAISSANCE"`
	LieuNaissance   string `json:"LIEU NAISSANCE" bson:"LIEU NAISSANCE"`
	Contact         string `json:"CONTACT" bson:"CONTACT"`
	Delivrance      string `json:"DELIVRANCE" bson:"DELIVRANCE"`
	ContactRetrait  string `json:"CONTACT DE RETRAIT" bson:"CONTACT DE RETRAIT"`
	DateDelivrance  string `json:"DATE DE DELIVRANCE" bson:"DATE DE DELIVRANCE"`

	// Lot d'import pour les cartes importées en masse. La clé JSON reprend le
	// nom BSON: les snapshots du journal sont sérialisés en JSON puis restaurés
	// champ à champ dans la collection, les deux noms doivent coïncider.
	ImportBatchID *string `json:"ImportBatchID,omitempty" bson:"ImportBatchID,omitempty" index:"single:1"`

	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Noms de colonnes modifiables, utilisés par le contrôle par rôle
var (
	// ColonnesToutes est l'ensemble complet des colonnes métier
	ColonnesToutes = []string{
		"LIEU D'ENROLEMENT",
		"SITE DE RETRAIT",
		"RANGEMENT",
		"NOM",
		"PRENOMS",
		"DATE DE NAISSANCE",
		"LIEU NAISSANCE",
		"CONTACT",
		"DELIVRANCE",
		"CONTACT DE RETRAIT",
		"DATE DE DELIVRANCE",
	}

	// ColonnesDelivrance est le sous-ensemble accessible aux opérateurs
	ColonnesDelivrance = []string{
		"DELIVRANCE",
		"CONTACT DE RETRAIT",
		"DATE DE DELIVRANCE",
	}
)

// SiteStat agrège les compteurs de cartes d'un site de retrait
type SiteStat struct {
	Site     string `json:"site" bson:"_id"`
	Total    int64  `json:"total" bson:"total"`
	Retires  int64  `json:"retires" bson:"retires"`
	Restants int64  `json:"restants" bson:"restants"`
}

// Statistiques porte les compteurs globaux et par site
type Statistiques struct {
	Total       int64               `json:"total"`
	Retires     int64               `json:"retires"`
	Disponibles int64               `json:"disponibles"`
	ParSite     map[string]SiteStat `json:"parSite"`
}
