package journalsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/core/logger"
	"github.com/ahouajeanluc-hub/cartes-backend/core/utility"
	"github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/models"
)

// EntryStore est la surface du journal vue par le moteur d'annulation
type EntryStore interface {
	GetEntry(ctx context.Context, id primitive.ObjectID) (*models.JournalEntry, error)
	AppendTx(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error)
}

// RecordStore est la surface d'accès aux enregistrements métier (cartes).
// Les méthodes d'écriture remontent common.ErrJournalRecordGone quand la
// cible a disparu.
type RecordStore interface {
	SetFields(ctx context.Context, table, id string, fields map[string]interface{}) error
	Insert(ctx context.Context, table string, doc map[string]interface{}) (string, error)
	Delete(ctx context.Context, table, id string) error
	CountByBatch(ctx context.Context, table, batchID string) (int64, error)
	DeleteByBatch(ctx context.Context, table, batchID string) (int64, error)
}

// TxnRunner exécute une fonction dans une transaction. fn reçoit le contexte
// de session à propager à toutes les opérations.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Champs jamais restaurés par une annulation de modification: identité et
// timestamps restent ceux du document vivant.
var nonRestorableFields = []string{"_id", "ID", "createdAt", "updatedAt", "created_at", "updated_at"}

func isNonRestorable(field string) bool {
	return utility.Contains(nonRestorableFields, field)
}

// UndoResult décrit l'issue d'une annulation
type UndoResult struct {
	EntryID     primitive.ObjectID `json:"entryId"`               // Entrée annulée
	ActionType  string             `json:"actionType"`            // Type de l'action annulée
	TableName   string             `json:"tableName"`             // Collection touchée
	RecordID    string             `json:"recordId"`              // Enregistrement d'origine
	NewRecordID string             `json:"newRecordId,omitempty"` // Nouvel ID si réinsertion
	Message     string             `json:"message"`               // Message pour l'opérateur
}

// UndoEngine inverse une action journalisée. Toutes les écritures (restauration
// de l'enregistrement + contre-entrée ANNULATION) se font dans une seule
// transaction: l'annulation est tout-ou-rien.
type UndoEngine struct {
	entries EntryStore
	records RecordStore
	txn     TxnRunner
}

// NewUndoEngine crée le moteur d'annulation
func NewUndoEngine(entries EntryStore, records RecordStore, txn TxnRunner) *UndoEngine {
	return &UndoEngine{
		entries: entries,
		records: records,
		txn:     txn,
	}
}

// decodeSnapshot parse un snapshot JSON. nil reste nil; un JSON illisible
// vaut ErrJournalCorruptEntry.
func decodeSnapshot(raw *string) (map[string]interface{}, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(*raw), &data); err != nil {
		return nil, common.ErrJournalCorruptEntry
	}
	return data, nil
}

// Undo annule l'action journalisée entryID et écrit la contre-entrée
// ANNULATION au nom de actor.
func (e *UndoEngine) Undo(ctx context.Context, entryID primitive.ObjectID, actor models.Actor, ip string) (*UndoResult, error) {
	entry, err := e.entries.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}

	oldData, err := decodeSnapshot(entry.OldValue)
	if err != nil {
		return nil, err
	}
	newData, err := decodeSnapshot(entry.NewValue)
	if err != nil {
		return nil, err
	}

	// Une entrée sans aucun snapshot est inexploitable, quel que soit le
	// type d'action: refus avant dispatch.
	if oldData == nil && newData == nil {
		return nil, common.ErrJournalCorruptEntry
	}

	result := &UndoResult{
		EntryID:    entry.ID,
		ActionType: entry.ActionType,
		TableName:  entry.TableName,
		RecordID:   entry.RecordID,
	}

	err = e.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		switch entry.ActionType {
		case models.ActionModificationCarte:
			if err := e.undoModification(txCtx, entry, oldData, result); err != nil {
				return err
			}
		case models.ActionCreationCarte:
			if err := e.undoCreation(txCtx, entry, result); err != nil {
				return err
			}
		case models.ActionSuppressionCarte:
			if err := e.undoSuppression(txCtx, entry, oldData, result); err != nil {
				return err
			}
		default:
			// Les actions sans inverse (imports, connexions) et les
			// annulations elles-mêmes sont refusées.
			return common.ErrJournalUnsupportedUndo
		}

		// Contre-entrée: snapshots inversés pour que la lecture du journal
		// montre le retour à l'état antérieur.
		counter := &models.JournalEntry{
			UtilisateurID:  actor.UtilisateurID,
			NomUtilisateur: actor.NomUtilisateur,
			NomComplet:     actor.NomComplet,
			Role:           actor.Role,
			Agence:         actor.Agence,
			DateAction:     time.Now().UnixMilli(),
			ActionType:     models.ActionAnnulation,
			TableName:      entry.TableName,
			RecordID:       entry.RecordID,
			OldValue:       entry.NewValue,
			NewValue:       entry.OldValue,
			AdresseIP:      ip,
			DetailsAction:  fmt.Sprintf("Annulation de l'action %s du %s", entry.ActionType, entry.NomUtilisateur),
		}
		if _, err := e.entries.AppendTx(txCtx, counter); err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		if common.IsTransientTransactionError(err) {
			return nil, common.ErrJournalWriteConflict
		}
		return nil, err
	}

	logger.WithModule("journal").WithFields(map[string]interface{}{
		"entryId":    entry.ID.Hex(),
		"actionType": entry.ActionType,
		"tableName":  entry.TableName,
		"recordId":   entry.RecordID,
		"annulePar":  actor.NomUtilisateur,
	}).Info("Action annulée")

	return result, nil
}

// undoModification restaure les champs du snapshot OldValue sur le document
// vivant. Identité et timestamps sont exclus; updatedAt est rafraîchi par le
// store.
func (e *UndoEngine) undoModification(ctx context.Context, entry *models.JournalEntry, oldData map[string]interface{}, result *UndoResult) error {
	if entry.TableName == "" || entry.RecordID == "" || oldData == nil {
		return common.ErrJournalCorruptEntry
	}

	fields := map[string]interface{}{}
	for key, value := range oldData {
		if isNonRestorable(key) {
			continue
		}
		fields[key] = value
	}
	if len(fields) == 0 {
		return common.ErrJournalNoModifiableFields
	}

	if err := e.records.SetFields(ctx, entry.TableName, entry.RecordID, fields); err != nil {
		return err
	}

	result.Message = "Modification annulée: valeurs précédentes restaurées"
	return nil
}

// undoCreation supprime l'enregistrement créé
func (e *UndoEngine) undoCreation(ctx context.Context, entry *models.JournalEntry, result *UndoResult) error {
	if entry.TableName == "" || entry.RecordID == "" {
		return common.ErrJournalCorruptEntry
	}

	if err := e.records.Delete(ctx, entry.TableName, entry.RecordID); err != nil {
		return err
	}

	result.Message = "Création annulée: enregistrement supprimé"
	return nil
}

// undoSuppression réinsère l'enregistrement depuis le snapshot OldValue.
// L'identité d'origine n'est pas réutilisée: le document réinséré reçoit un
// nouvel _id et des timestamps frais.
func (e *UndoEngine) undoSuppression(ctx context.Context, entry *models.JournalEntry, oldData map[string]interface{}, result *UndoResult) error {
	if entry.TableName == "" || oldData == nil {
		return common.ErrJournalCorruptEntry
	}

	doc := map[string]interface{}{}
	for key, value := range oldData {
		if key == "_id" || key == "ID" {
			continue
		}
		doc[key] = value
	}
	now := time.Now().UnixMilli()
	doc["createdAt"] = now
	doc["updatedAt"] = now

	newID, err := e.records.Insert(ctx, entry.TableName, doc)
	if err != nil {
		return err
	}

	result.NewRecordID = newID
	result.Message = "Suppression annulée: enregistrement restauré sous un nouvel identifiant"
	return nil
}
