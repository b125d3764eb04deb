package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Types d'action du journal. Les valeurs sont persistées telles quelles,
// elles ne doivent jamais changer.
const (
	ActionCreationCarte     = "CREATION_CARTE"
	ActionModificationCarte = "MODIFICATION_CARTE"
	ActionSuppressionCarte  = "SUPPRESSION_CARTE"
	ActionImportCarte       = "IMPORT_CARTE"
	ActionDebutImport       = "DEBUT_IMPORT"
	ActionFinImport         = "FIN_IMPORT"
	ActionErreurImport      = "ERREUR_IMPORT"
	ActionAnnulationImport  = "ANNULATION_IMPORT"
	ActionAnnulation        = "ANNULATION"
	ActionConnexion         = "CONNEXION"
)

// Actor identifie l'utilisateur à l'origine d'une action journalisée.
// Les champs d'identité sont figés dans l'entrée: ils reflètent l'utilisateur
// au moment de l'action, même si son compte change ensuite.
type Actor struct {
	UtilisateurID  *primitive.ObjectID `json:"utilisateurId,omitempty"` // nil pour les actions système
	NomUtilisateur string              `json:"nomUtilisateur"`
	NomComplet     string              `json:"nomComplet"`
	Role           string              `json:"role"`
	Agence         string              `json:"agence,omitempty"`
}

// JournalEntry est une entrée du journal d'audit. Le journal est append-only:
// aucune opération métier ne modifie ni ne supprime une entrée existante
// (seule exception: la purge de rétention).
type JournalEntry struct {
	ID primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"` // ID de l'entrée

	// ===== ACTEUR =====
	UtilisateurID  *primitive.ObjectID `json:"utilisateurId,omitempty" bson:"UtilisateurID,omitempty"` // Référence utilisateur (nullable)
	NomUtilisateur string              `json:"nomUtilisateur" bson:"NomUtilisateur" index:"single:1"`  // Login figé au moment de l'action
	NomComplet     string              `json:"nomComplet" bson:"NomComplet"`                           // Nom complet figé
	Role           string              `json:"role" bson:"Role"`                                       // Rôle figé
	Agence         string              `json:"agence,omitempty" bson:"Agence,omitempty"`               // Agence figée

	// ===== ACTION =====
	DateAction int64  `json:"dateAction" bson:"DateAction" index:"single,order:-1"` // Date de l'action (Unix ms)
	ActionType string `json:"actionType" bson:"ActionType" index:"single:1"`        // Type d'action (constantes Action*)

	// ===== CIBLE =====
	TableName string `json:"tableName,omitempty" bson:"TableName,omitempty"` // Collection cible
	RecordID  string `json:"recordId,omitempty" bson:"RecordId,omitempty"`   // ID de l'enregistrement cible (hex)

	// ===== SNAPSHOTS =====
	// Snapshots JSON sérialisés. Création: NewValue seul. Suppression:
	// OldValue seul. Modification: les deux.
	OldValue *string `json:"oldValue,omitempty" bson:"OldValue,omitempty"`
	NewValue *string `json:"newValue,omitempty" bson:"NewValue,omitempty"`

	// ===== IMPORT =====
	ImportBatchID *string `json:"importBatchId,omitempty" bson:"ImportBatchID,omitempty" index:"single:1"` // Lot d'import (uuid)

	// ===== METADONNEES =====
	AdresseIP     string `json:"adresseIP,omitempty" bson:"AdresseIP,omitempty"`         // IP du client
	DetailsAction string `json:"detailsAction,omitempty" bson:"DetailsAction,omitempty"` // Détail lisible

	// ===== TIMESTAMPS =====
	CreatedAt int64 `json:"createdAt,omitempty" bson:"createdAt,omitempty"` // Date d'insertion (Unix ms)
	UpdatedAt int64 `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// BatchSummary résume un lot d'import pour l'écran d'historique
type BatchSummary struct {
	ImportBatchID  string `json:"importBatchId" bson:"_id"`                // Identifiant du lot
	Count          int64  `json:"count" bson:"count"`                      // Nombre de cartes importées
	DateImport     int64  `json:"dateImport" bson:"dateImport"`            // Plus ancienne entrée du lot (Unix ms)
	NomUtilisateur string `json:"nomUtilisateur" bson:"nomUtilisateur"`    // Premier acteur du lot
	NomComplet     string `json:"nomComplet,omitempty" bson:"nomComplet"`  // Nom complet du premier acteur
}

// ActivityStat agrège l'activité par type d'action sur une fenêtre glissante
type ActivityStat struct {
	ActionType     string `json:"actionType" bson:"_id"`                  // Type d'action
	Count          int64  `json:"count" bson:"count"`                     // Nombre d'occurrences
	DerniereAction int64  `json:"derniereAction" bson:"derniereAction"`   // Dernière occurrence (Unix ms)
}
