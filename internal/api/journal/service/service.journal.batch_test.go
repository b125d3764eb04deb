package journalsvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/models"
)

// fakeBatchEntryStore étend le fake du journal avec l'historique des lots
type fakeBatchEntryStore struct {
	*fakeEntryStore
	summaries []models.BatchSummary
}

func newFakeBatchEntryStore() *fakeBatchEntryStore {
	return &fakeBatchEntryStore{fakeEntryStore: newFakeEntryStore()}
}

func (s *fakeBatchEntryStore) GroupByBatch(ctx context.Context) ([]models.BatchSummary, error) {
	return s.summaries, nil
}

func newTestLedger() (*BatchLedger, *fakeBatchEntryStore, *fakeRecordStore) {
	entries := newFakeBatchEntryStore()
	records := newFakeRecordStore()
	txn := &fakeTxnRunner{records: records, entries: entries.fakeEntryStore}
	return NewBatchLedger(entries, records, txn), entries, records
}

func TestCancelBatch_SupprimeLesCartesSansToucherAuJournal(t *testing.T) {
	ledger, entries, records := newTestLedger()

	batchID := "lot-test-1"
	for i := 0; i < 3; i++ {
		records.put("cartes", primitive.NewObjectID().Hex(), map[string]interface{}{
			"NOM":           "IMPORTEE",
			"ImportBatchID": batchID,
		})
		entries.put(&models.JournalEntry{
			ActionType:    models.ActionImportCarte,
			TableName:     "cartes",
			ImportBatchID: &batchID,
		})
	}
	// Une carte hors lot ne doit pas être touchée
	horsLot := primitive.NewObjectID().Hex()
	records.put("cartes", horsLot, map[string]interface{}{"NOM": "MANUELLE"})

	result, err := ledger.CancelBatch(context.Background(), batchID, testActor(), "127.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.CartesSupprimees)
	assert.NotEmpty(t, result.Message, "Le résultat doit avertir de l'irréversibilité")

	_, err = records.FindByID(context.Background(), "cartes", horsLot)
	assert.NoError(t, err, "Les cartes hors lot doivent survivre à l'annulation")

	// Le journal est append-only: les entrées IMPORT_CARTE du lot restent,
	// seule une trace ANNULATION_IMPORT s'y ajoute.
	assert.Len(t, entries.entries, 4, "Aucune entrée du journal ne doit être supprimée")
	require.Len(t, entries.appended, 1, "Une trace ANNULATION_IMPORT doit être écrite")
	trace := entries.appended[0]
	assert.Equal(t, models.ActionAnnulationImport, trace.ActionType)
	require.NotNil(t, trace.ImportBatchID)
	assert.Equal(t, batchID, *trace.ImportBatchID)
}

func TestCancelBatch_LotSansCartes(t *testing.T) {
	ledger, entries, _ := newTestLedger()

	// Les entrées IMPORT_CARTE existent encore, mais plus aucune carte: le
	// lot est vide au sens des enregistrements.
	batchID := "lot-deja-vide"
	entries.put(&models.JournalEntry{
		ActionType:    models.ActionImportCarte,
		TableName:     "cartes",
		ImportBatchID: &batchID,
	})

	_, err := ledger.CancelBatch(context.Background(), batchID, testActor(), "127.0.0.1")
	assert.ErrorIs(t, err, common.ErrJournalBatchEmpty)
	assert.Empty(t, entries.appended, "Aucune trace ne doit être écrite pour un lot vide")
}

func TestCancelBatch_LotInconnu(t *testing.T) {
	ledger, _, _ := newTestLedger()

	_, err := ledger.CancelBatch(context.Background(), "lot-inconnu", testActor(), "127.0.0.1")
	assert.ErrorIs(t, err, common.ErrJournalBatchEmpty)
}

func TestCancelBatch_IdentifiantManquant(t *testing.T) {
	ledger, _, _ := newTestLedger()

	_, err := ledger.CancelBatch(context.Background(), "", testActor(), "127.0.0.1")
	assert.ErrorIs(t, err, common.ErrRequiredField)
}

func TestCancelBatch_ToutOuRien(t *testing.T) {
	ledger, entries, records := newTestLedger()

	batchID := "lot-test-2"
	carteID := primitive.NewObjectID().Hex()
	records.put("cartes", carteID, map[string]interface{}{
		"NOM":           "IMPORTEE",
		"ImportBatchID": batchID,
	})

	// La trace ANNULATION_IMPORT échoue: rien ne doit être supprimé
	entries.failAppend = common.ErrMongoWrite

	_, err := ledger.CancelBatch(context.Background(), batchID, testActor(), "127.0.0.1")
	require.Error(t, err)

	_, err = records.FindByID(context.Background(), "cartes", carteID)
	assert.NoError(t, err, "Sans trace d'annulation, les cartes du lot doivent rester en place")
}

func TestListBatches_DelegueALAgregation(t *testing.T) {
	ledger, entries, _ := newTestLedger()

	entries.summaries = []models.BatchSummary{
		{ImportBatchID: "lot-b", Count: 5},
		{ImportBatchID: "lot-a", Count: 2},
	}

	batches, err := ledger.ListBatches(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entries.summaries, batches)
}
