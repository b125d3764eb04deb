package journalsvc

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/models"
)

// ====================================
// FAKES EN MEMOIRE
// ====================================

type fakeEntryStore struct {
	entries    map[primitive.ObjectID]*models.JournalEntry
	appended   []*models.JournalEntry
	failAppend error
}

func newFakeEntryStore() *fakeEntryStore {
	return &fakeEntryStore{entries: map[primitive.ObjectID]*models.JournalEntry{}}
}

func (s *fakeEntryStore) put(entry *models.JournalEntry) *models.JournalEntry {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	s.entries[entry.ID] = entry
	return entry
}

func (s *fakeEntryStore) GetEntry(ctx context.Context, id primitive.ObjectID) (*models.JournalEntry, error) {
	entry, ok := s.entries[id]
	if !ok {
		return nil, common.ErrJournalEntryNotFound
	}
	copied := *entry
	return &copied, nil
}

func (s *fakeEntryStore) AppendTx(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error) {
	if s.failAppend != nil {
		return nil, s.failAppend
	}
	entry.ID = primitive.NewObjectID()
	s.appended = append(s.appended, entry)
	s.entries[entry.ID] = entry
	return entry, nil
}

type fakeRecordStore struct {
	// table (minuscules) -> id hex -> document
	docs map[string]map[string]map[string]interface{}
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{docs: map[string]map[string]map[string]interface{}{}}
}

func (s *fakeRecordStore) table(name string) map[string]map[string]interface{} {
	key := strings.ToLower(name)
	if s.docs[key] == nil {
		s.docs[key] = map[string]map[string]interface{}{}
	}
	return s.docs[key]
}

func (s *fakeRecordStore) put(table, id string, doc map[string]interface{}) {
	s.table(table)[id] = doc
}

func (s *fakeRecordStore) FindByID(ctx context.Context, table, id string) (map[string]interface{}, error) {
	doc, ok := s.table(table)[id]
	if !ok {
		return nil, common.ErrJournalRecordGone
	}
	return doc, nil
}

func (s *fakeRecordStore) SetFields(ctx context.Context, table, id string, fields map[string]interface{}) error {
	doc, ok := s.table(table)[id]
	if !ok {
		return common.ErrJournalRecordGone
	}
	for key, value := range fields {
		doc[key] = value
	}
	return nil
}

func (s *fakeRecordStore) Insert(ctx context.Context, table string, doc map[string]interface{}) (string, error) {
	id := primitive.NewObjectID().Hex()
	s.table(table)[id] = doc
	return id, nil
}

func (s *fakeRecordStore) Delete(ctx context.Context, table, id string) error {
	if _, ok := s.table(table)[id]; !ok {
		return common.ErrJournalRecordGone
	}
	delete(s.table(table), id)
	return nil
}

func (s *fakeRecordStore) CountByBatch(ctx context.Context, table, batchID string) (int64, error) {
	var count int64
	for _, doc := range s.table(table) {
		if doc["ImportBatchID"] == batchID {
			count++
		}
	}
	return count, nil
}

func (s *fakeRecordStore) DeleteByBatch(ctx context.Context, table, batchID string) (int64, error) {
	var deleted int64
	for id, doc := range s.table(table) {
		if doc["ImportBatchID"] == batchID {
			delete(s.table(table), id)
			deleted++
		}
	}
	return deleted, nil
}

// fakeTxnRunner émule le tout-ou-rien: l'état des fakes est restauré si fn échoue
type fakeTxnRunner struct {
	records *fakeRecordStore
	entries *fakeEntryStore
}

func copyDocs(src map[string]map[string]map[string]interface{}) map[string]map[string]map[string]interface{} {
	out := map[string]map[string]map[string]interface{}{}
	for table, docs := range src {
		out[table] = map[string]map[string]interface{}{}
		for id, doc := range docs {
			copied := map[string]interface{}{}
			for k, v := range doc {
				copied[k] = v
			}
			out[table][id] = copied
		}
	}
	return out
}

func (r *fakeTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	savedDocs := copyDocs(r.records.docs)
	savedEntries := map[primitive.ObjectID]*models.JournalEntry{}
	for id, entry := range r.entries.entries {
		savedEntries[id] = entry
	}
	savedAppended := len(r.entries.appended)

	if err := fn(ctx); err != nil {
		r.records.docs = savedDocs
		r.entries.entries = savedEntries
		r.entries.appended = r.entries.appended[:savedAppended]
		return err
	}
	return nil
}

func newTestEngine() (*UndoEngine, *fakeEntryStore, *fakeRecordStore) {
	entries := newFakeEntryStore()
	records := newFakeRecordStore()
	txn := &fakeTxnRunner{records: records, entries: entries}
	return NewUndoEngine(entries, records, txn), entries, records
}

func testActor() models.Actor {
	id := primitive.NewObjectID()
	return models.Actor{
		UtilisateurID:  &id,
		NomUtilisateur: "kouame",
		NomComplet:     "KOUAME Jean",
		Role:           "Administrateur",
		Agence:         "Abidjan",
	}
}

func strPtr(s string) *string { return &s }

// ====================================
// TESTS
// ====================================

func TestUndo_Modification_RestaureLesValeurs(t *testing.T) {
	engine, entries, records := newTestEngine()

	recordID := primitive.NewObjectID().Hex()
	records.put("Cartes", recordID, map[string]interface{}{
		"NOM":        "NOUVEAU",
		"DELIVRANCE": "OUI",
		"createdAt":  int64(100),
	})

	entry := entries.put(&models.JournalEntry{
		ActionType:     models.ActionModificationCarte,
		TableName:      "Cartes",
		RecordID:       recordID,
		NomUtilisateur: "operateur1",
		OldValue:       strPtr(`{"NOM":"ANCIEN","DELIVRANCE":"","_id":"abc","createdAt":50,"updatedAt":60}`),
		NewValue:       strPtr(`{"NOM":"NOUVEAU","DELIVRANCE":"OUI"}`),
	})

	result, err := engine.Undo(context.Background(), entry.ID, testActor(), "127.0.0.1")
	require.NoError(t, err)

	doc, err := records.FindByID(context.Background(), "cartes", recordID)
	require.NoError(t, err)
	assert.Equal(t, "ANCIEN", doc["NOM"], "Le champ NOM doit retrouver sa valeur d'avant modification")
	assert.Equal(t, "", doc["DELIVRANCE"], "Le champ DELIVRANCE doit retrouver sa valeur d'avant modification")
	assert.Equal(t, int64(100), doc["createdAt"], "createdAt ne doit jamais être restauré depuis le snapshot")

	require.Len(t, entries.appended, 1, "Une contre-entrée ANNULATION doit être écrite")
	counter := entries.appended[0]
	assert.Equal(t, models.ActionAnnulation, counter.ActionType)
	assert.Equal(t, entry.NewValue, counter.OldValue, "La contre-entrée doit porter les snapshots inversés")
	assert.Equal(t, entry.OldValue, counter.NewValue, "La contre-entrée doit porter les snapshots inversés")
	assert.Equal(t, "kouame", counter.NomUtilisateur, "La contre-entrée est au nom de l'annulateur, pas de l'auteur d'origine")
	assert.Equal(t, entry.RecordID, result.RecordID)
}

func TestUndo_Creation_SupprimeLEnregistrement(t *testing.T) {
	engine, entries, records := newTestEngine()

	recordID := primitive.NewObjectID().Hex()
	records.put("Cartes", recordID, map[string]interface{}{"NOM": "CREE"})

	entry := entries.put(&models.JournalEntry{
		ActionType: models.ActionCreationCarte,
		TableName:  "Cartes",
		RecordID:   recordID,
		NewValue:   strPtr(`{"NOM":"CREE"}`),
	})

	_, err := engine.Undo(context.Background(), entry.ID, testActor(), "127.0.0.1")
	require.NoError(t, err)

	_, err = records.FindByID(context.Background(), "cartes", recordID)
	assert.ErrorIs(t, err, common.ErrJournalRecordGone, "L'enregistrement créé doit avoir disparu")
}

func TestUndo_Suppression_ReinsereSousNouvelIdentifiant(t *testing.T) {
	engine, entries, records := newTestEngine()

	ancienID := primitive.NewObjectID().Hex()
	entry := entries.put(&models.JournalEntry{
		ActionType: models.ActionSuppressionCarte,
		TableName:  "Cartes",
		RecordID:   ancienID,
		OldValue:   strPtr(`{"_id":"` + ancienID + `","NOM":"SUPPRIME","createdAt":50,"updatedAt":60}`),
	})

	result, err := engine.Undo(context.Background(), entry.ID, testActor(), "127.0.0.1")
	require.NoError(t, err)

	require.NotEmpty(t, result.NewRecordID, "La réinsertion doit retourner le nouvel identifiant")
	assert.NotEqual(t, ancienID, result.NewRecordID, "L'identifiant d'origine n'est jamais réutilisé")

	doc, err := records.FindByID(context.Background(), "cartes", result.NewRecordID)
	require.NoError(t, err)
	assert.Equal(t, "SUPPRIME", doc["NOM"])
	assert.NotEqual(t, int64(50), doc["createdAt"], "Le document réinséré reçoit des timestamps frais")
	_, hasOldID := doc["_id"]
	assert.False(t, hasOldID, "L'ancien _id ne doit pas être réinséré")
}

func TestUndo_TypesSansInverse(t *testing.T) {
	engine, entries, _ := newTestEngine()

	for _, actionType := range []string{
		models.ActionConnexion,
		models.ActionDebutImport,
		models.ActionFinImport,
		models.ActionImportCarte,
		models.ActionAnnulation,
		models.ActionAnnulationImport,
	} {
		entry := entries.put(&models.JournalEntry{
			ActionType: actionType,
			TableName:  "Cartes",
			NewValue:   strPtr(`{"NOM":"X"}`),
		})
		_, err := engine.Undo(context.Background(), entry.ID, testActor(), "127.0.0.1")
		assert.ErrorIs(t, err, common.ErrJournalUnsupportedUndo, "L'action %s ne doit pas être annulable", actionType)
	}
}

func TestUndo_SnapshotsTousNuls(t *testing.T) {
	engine, entries, records := newTestEngine()

	recordID := primitive.NewObjectID().Hex()
	records.put("Cartes", recordID, map[string]interface{}{"NOM": "CREE"})

	// Entrée CREATION_CARTE sans aucun snapshot: inexploitable, elle doit
	// être refusée avant dispatch, sans toucher à l'enregistrement.
	entry := entries.put(&models.JournalEntry{
		ActionType: models.ActionCreationCarte,
		TableName:  "Cartes",
		RecordID:   recordID,
	})

	_, err := engine.Undo(context.Background(), entry.ID, testActor(), "127.0.0.1")
	assert.ErrorIs(t, err, common.ErrJournalCorruptEntry)

	_, err = records.FindByID(context.Background(), "cartes", recordID)
	assert.NoError(t, err, "L'enregistrement ne doit pas être supprimé sur une entrée sans snapshot")
	assert.Empty(t, entries.appended, "Aucune contre-entrée ne doit être écrite")
}

func TestUndo_EntreeInexistante(t *testing.T) {
	engine, _, _ := newTestEngine()

	_, err := engine.Undo(context.Background(), primitive.NewObjectID(), testActor(), "127.0.0.1")
	assert.ErrorIs(t, err, common.ErrJournalEntryNotFound)
}

func TestUndo_SnapshotIllisible(t *testing.T) {
	engine, entries, _ := newTestEngine()

	entry := entries.put(&models.JournalEntry{
		ActionType: models.ActionModificationCarte,
		TableName:  "Cartes",
		RecordID:   primitive.NewObjectID().Hex(),
		OldValue:   strPtr(`{pas du json`),
	})

	_, err := engine.Undo(context.Background(), entry.ID, testActor(), "127.0.0.1")
	assert.ErrorIs(t, err, common.ErrJournalCorruptEntry)
}

func TestUndo_EnregistrementDisparu(t *testing.T) {
	engine, entries, _ := newTestEngine()

	entry := entries.put(&models.JournalEntry{
		ActionType: models.ActionModificationCarte,
		TableName:  "Cartes",
		RecordID:   primitive.NewObjectID().Hex(),
		OldValue:   strPtr(`{"NOM":"ANCIEN"}`),
	})

	_, err := engine.Undo(context.Background(), entry.ID, testActor(), "127.0.0.1")
	assert.ErrorIs(t, err, common.ErrJournalRecordGone)
}

func TestUndo_SnapshotSansChampRestaurable(t *testing.T) {
	engine, entries, records := newTestEngine()

	recordID := primitive.NewObjectID().Hex()
	records.put("Cartes", recordID, map[string]interface{}{"NOM": "X"})

	entry := entries.put(&models.JournalEntry{
		ActionType: models.ActionModificationCarte,
		TableName:  "Cartes",
		RecordID:   recordID,
		OldValue:   strPtr(`{"_id":"abc","createdAt":1,"updatedAt":2}`),
	})

	_, err := engine.Undo(context.Background(), entry.ID, testActor(), "127.0.0.1")
	assert.ErrorIs(t, err, common.ErrJournalNoModifiableFields)
}

func TestUndo_ToutOuRien(t *testing.T) {
	engine, entries, records := newTestEngine()

	recordID := primitive.NewObjectID().Hex()
	records.put("Cartes", recordID, map[string]interface{}{"NOM": "NOUVEAU"})

	entry := entries.put(&models.JournalEntry{
		ActionType: models.ActionModificationCarte,
		TableName:  "Cartes",
		RecordID:   recordID,
		OldValue:   strPtr(`{"NOM":"ANCIEN"}`),
	})

	// La contre-entrée échoue: la restauration doit être annulée avec elle
	entries.failAppend = common.ErrMongoWrite

	_, err := engine.Undo(context.Background(), entry.ID, testActor(), "127.0.0.1")
	require.Error(t, err)

	doc, err := records.FindByID(context.Background(), "cartes", recordID)
	require.NoError(t, err)
	assert.Equal(t, "NOUVEAU", doc["NOM"], "Sans contre-entrée, l'enregistrement ne doit pas être restauré")
}

func TestUndo_MemeCreationAnnuleeDeuxFois(t *testing.T) {
	engine, entries, records := newTestEngine()

	recordID := primitive.NewObjectID().Hex()
	records.put("Cartes", recordID, map[string]interface{}{"NOM": "CREE"})

	entry := entries.put(&models.JournalEntry{
		ActionType: models.ActionCreationCarte,
		TableName:  "Cartes",
		RecordID:   recordID,
		NewValue:   strPtr(`{"NOM":"CREE"}`),
	})

	_, err := engine.Undo(context.Background(), entry.ID, testActor(), "127.0.0.1")
	require.NoError(t, err)

	// Seconde annulation de la même entrée: la cible a déjà disparu, l'appel
	// doit le signaler plutôt que de réussir silencieusement.
	_, err = engine.Undo(context.Background(), entry.ID, testActor(), "127.0.0.1")
	assert.ErrorIs(t, err, common.ErrJournalRecordGone)
	assert.Len(t, entries.appended, 1, "Pas de seconde contre-entrée pour une annulation échouée")
}

func TestUndo_Suppression_ConserveLAppartenanceAuLot(t *testing.T) {
	engine, entries, records := newTestEngine()

	batchID := "lot-restauration"
	entry := entries.put(&models.JournalEntry{
		ActionType: models.ActionSuppressionCarte,
		TableName:  "Cartes",
		RecordID:   primitive.NewObjectID().Hex(),
		OldValue:   strPtr(`{"NOM":"IMPORTEE","ImportBatchID":"` + batchID + `"}`),
	})

	_, err := engine.Undo(context.Background(), entry.ID, testActor(), "127.0.0.1")
	require.NoError(t, err)

	// La carte restaurée doit rester rattachée à son lot: une annulation de
	// lot ultérieure doit pouvoir la retrouver.
	count, err := records.CountByBatch(context.Background(), "cartes", batchID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUndo_ResolutionTableInsensibleALaCasse(t *testing.T) {
	engine, entries, records := newTestEngine()

	recordID := primitive.NewObjectID().Hex()
	records.put("cartes", recordID, map[string]interface{}{"NOM": "NOUVEAU"})

	// Les entrées historiques portent "Cartes" capitalisé
	entry := entries.put(&models.JournalEntry{
		ActionType: models.ActionModificationCarte,
		TableName:  "Cartes",
		RecordID:   recordID,
		OldValue:   strPtr(`{"NOM":"ANCIEN"}`),
	})

	_, err := engine.Undo(context.Background(), entry.ID, testActor(), "127.0.0.1")
	require.NoError(t, err)

	doc, _ := records.FindByID(context.Background(), "cartes", recordID)
	assert.Equal(t, "ANCIEN", doc["NOM"])
}
