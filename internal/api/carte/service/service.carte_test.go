package cartesvc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/internal/api/carte/models"
)

func TestColonnesAutorisees_RolesComplets(t *testing.T) {
	for _, role := range []string{
		"Administrateur",
		"administrateur",
		"Superviseur",
		"Chef d'équipe",
		"chef d'equipe",
		"Chef d'équipe Abidjan",
	} {
		colonnes, err := ColonnesAutorisees(role)
		require.NoError(t, err, "Le rôle %q doit être reconnu", role)
		assert.Equal(t, models.ColonnesToutes, colonnes, "Le rôle %q doit pouvoir modifier toutes les colonnes", role)
	}
}

func TestColonnesAutorisees_Operateur(t *testing.T) {
	for _, role := range []string{"Opérateur", "operateur", "Opérateur Yamoussoukro"} {
		colonnes, err := ColonnesAutorisees(role)
		require.NoError(t, err)
		assert.Equal(t, models.ColonnesDelivrance, colonnes, "L'opérateur ne modifie que les colonnes de délivrance")
	}
}

func TestColonnesAutorisees_RoleInconnu(t *testing.T) {
	_, err := ColonnesAutorisees("Stagiaire")
	assert.ErrorIs(t, err, common.ErrRoleForbidden)

	_, err = ColonnesAutorisees("")
	assert.ErrorIs(t, err, common.ErrRoleForbidden)
}

func TestFiltreColonnes_GardeLesColonnesAutorisees(t *testing.T) {
	updates := map[string]interface{}{
		"NOM":        "NOUVEAU",
		"DELIVRANCE": "OUI",
		"_id":        "abc",
		"Inconnue":   "x",
	}

	filtered := filtreColonnes(updates, models.ColonnesDelivrance)
	assert.Equal(t, map[string]interface{}{"DELIVRANCE": "OUI"}, filtered,
		"Seules les colonnes du rôle doivent passer; _id et colonnes inconnues sont écartés")
}

func TestFiltreColonnes_InsensibleALaCasse(t *testing.T) {
	updates := map[string]interface{}{
		"delivrance":         "OUI",
		"contact de retrait": "0102030405",
	}

	filtered := filtreColonnes(updates, models.ColonnesDelivrance)
	assert.Equal(t, "OUI", filtered["DELIVRANCE"], "Les clés sont réécrites sous leur nom canonique")
	assert.Equal(t, "0102030405", filtered["CONTACT DE RETRAIT"])
}

func TestBuildSearchFilter_Vide(t *testing.T) {
	assert.Empty(t, BuildSearchFilter(""), "Sans motif, pas de filtre")
}

func TestBuildSearchFilter_CouvreLesQuatreColonnes(t *testing.T) {
	filter := BuildSearchFilter("kouame")

	or, ok := filter["$or"].(bson.A)
	require.True(t, ok, "La recherche doit être un $or")
	require.Len(t, or, 4)

	colonnes := []string{}
	for _, clause := range or {
		m := clause.(bson.M)
		for col, value := range m {
			colonnes = append(colonnes, col)
			regex, ok := value.(primitive.Regex)
			require.True(t, ok)
			assert.Equal(t, "kouame", regex.Pattern)
			assert.Equal(t, "i", regex.Options)
		}
	}
	assert.ElementsMatch(t, []string{"NOM", "PRENOMS", "CONTACT", "SITE DE RETRAIT"}, colonnes)
}

func TestBuildSearchFilter_MetacaracteresNeutralises(t *testing.T) {
	filter := BuildSearchFilter("a.b")

	or := filter["$or"].(bson.A)
	regex := or[0].(bson.M)["NOM"].(primitive.Regex)
	assert.Equal(t, `a\.b`, regex.Pattern, "Le motif est cherché littéralement")
}

func TestCarte_CleDeLotIdentiqueEnJSONEtEnBSON(t *testing.T) {
	// Les snapshots du journal sont du JSON restauré champ à champ dans la
	// collection: la clé du lot doit porter le même nom des deux côtés, sinon
	// une carte restaurée échappe à l'annulation de son lot.
	batch := "lot-1"
	carte := models.Carte{Nom: "KOUAME", ImportBatchID: &batch}

	raw, err := json.Marshal(carte)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"ImportBatchID":"lot-1"`)
}
