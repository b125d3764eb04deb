package journalsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/core/global"
	"github.com/ahouajeanluc-hub/cartes-backend/core/logger"
	"github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/models"
)

// BatchEntryStore est la surface du journal vue par le registre des lots
type BatchEntryStore interface {
	AppendTx(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error)
	GroupByBatch(ctx context.Context) ([]models.BatchSummary, error)
}

// CancelBatchResult décrit l'issue d'une annulation de lot
type CancelBatchResult struct {
	ImportBatchID    string `json:"importBatchId"`    // Lot annulé
	CartesSupprimees int64  `json:"cartesSupprimees"` // Cartes supprimées
	Message          string `json:"message"`          // Avertissement pour l'opérateur
}

// BatchLedger gère les lots d'import: historique et annulation en masse.
type BatchLedger struct {
	entries BatchEntryStore
	records RecordStore
	txn     TxnRunner
}

// NewBatchLedger crée le registre des lots
func NewBatchLedger(entries BatchEntryStore, records RecordStore, txn TxnRunner) *BatchLedger {
	return &BatchLedger{
		entries: entries,
		records: records,
		txn:     txn,
	}
}

// ListBatches retourne l'historique des lots, le plus récent en premier
func (l *BatchLedger) ListBatches(ctx context.Context) ([]models.BatchSummary, error) {
	return l.entries.GroupByBatch(ctx)
}

// CancelBatch supprime toutes les cartes d'un lot d'import, puis trace une
// unique entrée ANNULATION_IMPORT. Les entrées IMPORT_CARTE du lot restent au
// journal: l'historique de l'import est conservé. Contrairement à l'annulation
// unitaire, les lignes supprimées ne sont pas journalisées une à une:
// l'opération est IRREVERSIBLE.
func (l *BatchLedger) CancelBatch(ctx context.Context, batchID string, actor models.Actor, ip string) (*CancelBatchResult, error) {
	if batchID == "" {
		return nil, common.ErrRequiredField
	}

	// Le lot se juge sur les cartes encore en base, pas sur les entrées du
	// journal: un lot dont toutes les cartes ont déjà disparu est vide.
	count, err := l.records.CountByBatch(ctx, global.ColNames.Cartes, batchID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, common.ErrJournalBatchEmpty
	}

	result := &CancelBatchResult{ImportBatchID: batchID}

	err = l.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		// La trace ANNULATION_IMPORT d'abord: si elle ne peut pas être
		// écrite, rien n'est supprimé.
		entry := &models.JournalEntry{
			UtilisateurID:  actor.UtilisateurID,
			NomUtilisateur: actor.NomUtilisateur,
			NomComplet:     actor.NomComplet,
			Role:           actor.Role,
			Agence:         actor.Agence,
			DateAction:     time.Now().UnixMilli(),
			ActionType:     models.ActionAnnulationImport,
			TableName:      global.ColNames.Cartes,
			ImportBatchID:  &batchID,
			AdresseIP:      ip,
			DetailsAction:  fmt.Sprintf("Annulation du lot d'import %s (%d cartes)", batchID, count),
		}
		if _, err := l.entries.AppendTx(txCtx, entry); err != nil {
			return err
		}

		deleted, err := l.records.DeleteByBatch(txCtx, global.ColNames.Cartes, batchID)
		if err != nil {
			return err
		}
		result.CartesSupprimees = deleted

		return nil
	})
	if err != nil {
		if common.IsTransientTransactionError(err) {
			return nil, common.ErrJournalWriteConflict
		}
		return nil, err
	}

	result.Message = "Lot d'import annulé. Cette opération est irréversible."

	logger.WithModule("journal").WithFields(map[string]interface{}{
		"importBatchId":    batchID,
		"cartesSupprimees": result.CartesSupprimees,
		"annulePar":        actor.NomUtilisateur,
	}).Warn("Lot d'import annulé (irréversible)")

	return result, nil
}
