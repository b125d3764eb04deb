package journalsvc

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ahouajeanluc-hub/cartes-backend/core/logger"
	"github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/models"
)

// EntryAppender est la surface d'écriture du journal vue par le recorder
type EntryAppender interface {
	Append(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error)
	AppendTx(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error)
}

// RecordInput décrit une action à journaliser
type RecordInput struct {
	ActionType    string       // Constante models.Action*
	Actor         models.Actor // Utilisateur à l'origine de l'action
	TableName     string       // Collection cible (vide pour CONNEXION, DEBUT_IMPORT, ...)
	RecordID      string       // ID hex de l'enregistrement cible
	OldValue      *string      // Snapshot JSON avant l'action
	NewValue      *string      // Snapshot JSON après l'action
	ImportBatchID *string      // Lot d'import
	Details       string       // Description lisible
	AdresseIP     string       // IP du client
}

// Snapshot sérialise une valeur en snapshot JSON pour le journal.
// Retourne nil si la valeur est nil: le champ restera absent de l'entrée.
func Snapshot(v interface{}) *string {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		// Un snapshot non sérialisable ne doit pas faire échouer l'action
		logger.WithError(err).Warn("Snapshot JSON impossible, champ omis")
		return nil
	}
	s := string(raw)
	return &s
}

// Recorder construit et écrit les entrées du journal.
// Deux modes: Record (meilleur effort, jamais bloquant pour l'appelant) et
// RecordTx (transactionnel, l'échec remonte et annule la transaction).
type Recorder struct {
	entries EntryAppender
}

// NewRecorder crée un recorder sur le store donné
func NewRecorder(entries EntryAppender) *Recorder {
	return &Recorder{entries: entries}
}

func buildEntry(in RecordInput) *models.JournalEntry {
	return &models.JournalEntry{
		UtilisateurID:  in.Actor.UtilisateurID,
		NomUtilisateur: in.Actor.NomUtilisateur,
		NomComplet:     in.Actor.NomComplet,
		Role:           in.Actor.Role,
		Agence:         in.Actor.Agence,
		DateAction:     time.Now().UnixMilli(),
		ActionType:     in.ActionType,
		TableName:      in.TableName,
		RecordID:       in.RecordID,
		OldValue:       in.OldValue,
		NewValue:       in.NewValue,
		ImportBatchID:  in.ImportBatchID,
		AdresseIP:      in.AdresseIP,
		DetailsAction:  in.Details,
	}
}

// Record journalise en meilleur effort: un échec d'écriture est loggé mais
// n'interrompt jamais l'action métier qui vient de réussir.
func (r *Recorder) Record(ctx context.Context, in RecordInput) {
	if _, err := r.entries.Append(ctx, buildEntry(in)); err != nil {
		logger.WithError(err).WithFields(map[string]interface{}{
			"actionType":     in.ActionType,
			"nomUtilisateur": in.Actor.NomUtilisateur,
			"tableName":      in.TableName,
			"recordId":       in.RecordID,
		}).Error("Échec d'écriture du journal (meilleur effort)")
	}
}

// RecordTx journalise dans la transaction portée par ctx. L'erreur remonte:
// l'action métier et son entrée de journal réussissent ou échouent ensemble.
func (r *Recorder) RecordTx(ctx context.Context, in RecordInput) (*models.JournalEntry, error) {
	return r.entries.AppendTx(ctx, buildEntry(in))
}
