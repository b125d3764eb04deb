package journalsvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/models"
)

type fakeAppender struct {
	appended []*models.JournalEntry
	fail     error
}

func (a *fakeAppender) Append(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error) {
	if a.fail != nil {
		return nil, a.fail
	}
	a.appended = append(a.appended, entry)
	return entry, nil
}

func (a *fakeAppender) AppendTx(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error) {
	return a.Append(ctx, entry)
}

func TestSnapshot(t *testing.T) {
	assert.Nil(t, Snapshot(nil), "Snapshot(nil) doit rester nil")

	snap := Snapshot(map[string]string{"NOM": "KOUAME"})
	require.NotNil(t, snap)
	assert.JSONEq(t, `{"NOM":"KOUAME"}`, *snap)

	// Une valeur non sérialisable ne doit pas faire échouer l'appelant
	assert.Nil(t, Snapshot(make(chan int)))
}

func TestRecord_ConstruitLEntree(t *testing.T) {
	appender := &fakeAppender{}
	recorder := NewRecorder(appender)

	batchID := "lot-1"
	recorder.Record(context.Background(), RecordInput{
		ActionType:    models.ActionImportCarte,
		Actor:         testActor(),
		TableName:     "cartes",
		RecordID:      "abc",
		NewValue:      strPtr(`{"NOM":"X"}`),
		ImportBatchID: &batchID,
		Details:       "Import carte - X Y",
		AdresseIP:     "10.0.0.1",
	})

	require.Len(t, appender.appended, 1)
	entry := appender.appended[0]
	assert.Equal(t, models.ActionImportCarte, entry.ActionType)
	assert.Equal(t, "kouame", entry.NomUtilisateur)
	assert.Equal(t, "cartes", entry.TableName)
	assert.Equal(t, "abc", entry.RecordID)
	assert.Equal(t, &batchID, entry.ImportBatchID)
	assert.Equal(t, "10.0.0.1", entry.AdresseIP)
	assert.NotZero(t, entry.DateAction, "DateAction doit être posée automatiquement")
}

func TestRecord_MeilleurEffort(t *testing.T) {
	appender := &fakeAppender{fail: common.ErrMongoWrite}
	recorder := NewRecorder(appender)

	// L'échec d'écriture est avalé: Record ne doit jamais paniquer ni bloquer
	recorder.Record(context.Background(), RecordInput{
		ActionType: models.ActionConnexion,
		Actor:      testActor(),
	})
	assert.Empty(t, appender.appended)
}

func TestRecordTx_PropageLErreur(t *testing.T) {
	appender := &fakeAppender{fail: common.ErrMongoWrite}
	recorder := NewRecorder(appender)

	_, err := recorder.RecordTx(context.Background(), RecordInput{
		ActionType: models.ActionCreationCarte,
		Actor:      testActor(),
	})
	assert.ErrorIs(t, err, common.ErrMongoWrite, "En transaction, l'échec du journal doit remonter à l'appelant")
}
