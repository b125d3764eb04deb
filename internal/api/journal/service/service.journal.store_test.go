package journalsvc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildEntryFilter_Vide(t *testing.T) {
	filter := BuildEntryFilter(EntryFilter{})
	assert.Empty(t, filter, "Sans critère, le filtre doit être vide")
}

func TestBuildEntryFilter_PlageDeDates(t *testing.T) {
	filter := BuildEntryFilter(EntryFilter{DateDebut: 1000, DateFin: 2000})

	dateRange, ok := filter["DateAction"].(bson.M)
	require.True(t, ok, "La plage de dates doit porter sur DateAction")
	assert.Equal(t, int64(1000), dateRange["$gte"])
	assert.Equal(t, int64(2000), dateRange["$lte"])
}

func TestBuildEntryFilter_BorneUnique(t *testing.T) {
	filter := BuildEntryFilter(EntryFilter{DateDebut: 1000})

	dateRange := filter["DateAction"].(bson.M)
	assert.Equal(t, int64(1000), dateRange["$gte"])
	_, hasLte := dateRange["$lte"]
	assert.False(t, hasLte, "Sans borne haute, pas de $lte")
}

func TestBuildEntryFilter_NomUtilisateurInsensibleALaCasse(t *testing.T) {
	filter := BuildEntryFilter(EntryFilter{NomUtilisateur: "KOUAME"})

	regex, ok := filter["NomUtilisateur"].(primitive.Regex)
	require.True(t, ok, "Le filtre utilisateur doit être une regex")
	assert.Equal(t, "KOUAME", regex.Pattern)
	assert.Equal(t, "i", regex.Options, "La recherche par utilisateur est insensible à la casse")
}

func TestBuildEntryFilter_MetacaracteresNeutralises(t *testing.T) {
	filter := BuildEntryFilter(EntryFilter{NomUtilisateur: "a.b*c"})

	regex := filter["NomUtilisateur"].(primitive.Regex)
	assert.Equal(t, `a\.b\*c`, regex.Pattern, "Les métacaractères regex doivent être échappés")
}

func TestBuildEntryFilter_TableCouvreLesChampsHerites(t *testing.T) {
	filter := BuildEntryFilter(EntryFilter{TableName: "Cartes"})

	or, ok := filter["$or"].([]bson.M)
	require.True(t, ok, "Le filtre table doit couvrir les deux noms de champ")
	assert.Contains(t, or, bson.M{"TableName": "Cartes"})
	assert.Contains(t, or, bson.M{"TableAffectee": "Cartes"})
}

func TestBuildEntryFilter_ActionTypeExact(t *testing.T) {
	filter := BuildEntryFilter(EntryFilter{ActionType: "MODIFICATION_CARTE"})
	assert.Equal(t, "MODIFICATION_CARTE", filter["ActionType"])
}

func TestCanonical_CoalesceLesChampsHerites(t *testing.T) {
	raw := journalEntryRaw{
		TableAffectee: "Cartes",
		LigneAffectee: "abc123",
	}

	entry := raw.canonical()
	assert.Equal(t, "Cartes", entry.TableName, "TableAffectee doit remplir TableName absent")
	assert.Equal(t, "abc123", entry.RecordID, "LigneAffectee doit remplir RecordID absent")
}

func TestJournalEntryRaw_DecodeLesDocumentsHerites(t *testing.T) {
	// Document tel que stocké par l'ancien système: la cible est portée par
	// TableAffectee/LigneAffectee. Le décodage de liste passe par
	// journalEntryRaw précisément pour ne pas perdre ces champs.
	legacy := bson.M{
		"_id":            primitive.NewObjectID(),
		"NomUtilisateur": "kouame",
		"ActionType":     "MODIFICATION_CARTE",
		"DateAction":     int64(1000),
		"TableAffectee":  "Cartes",
		"LigneAffectee":  "abc123",
	}
	data, err := bson.Marshal(legacy)
	require.NoError(t, err)

	var raw journalEntryRaw
	require.NoError(t, bson.Unmarshal(data, &raw))

	entry := raw.canonical()
	assert.Equal(t, "Cartes", entry.TableName, "La cible héritée doit survivre au décodage d'une page")
	assert.Equal(t, "abc123", entry.RecordID)
	assert.Equal(t, "kouame", entry.NomUtilisateur)
}

func TestCanonical_LesChampsCanoniquesPriment(t *testing.T) {
	raw := journalEntryRaw{
		TableAffectee: "Ancien",
		LigneAffectee: "vieux",
	}
	raw.TableName = "Cartes"
	raw.RecordID = "nouveau"

	entry := raw.canonical()
	assert.Equal(t, "Cartes", entry.TableName)
	assert.Equal(t, "nouveau", entry.RecordID)
}
