// Package cartesvc gère le cycle de vie des cartes: CRUD journalisé,
// recherche paginée et statistiques par site de retrait.
package cartesvc

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/core/database"
	"github.com/ahouajeanluc-hub/cartes-backend/core/global"
	basemodels "github.com/ahouajeanluc-hub/cartes-backend/internal/api/base/models"
	basesvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/base/service"
	"github.com/ahouajeanluc-hub/cartes-backend/internal/api/carte/models"
	journalmodels "github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/models"
	journalsvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/service"
)

// ErrAucuneColonneModifiable: la requête de modification ne porte aucune
// colonne autorisée pour le rôle de l'appelant
var ErrAucuneColonneModifiable = common.NewError(
	common.ErrCodeValidationInput,
	"Aucune colonne modifiable pour ce rôle",
	common.StatusBadRequest,
	nil,
)

// CarteService expose les opérations métier sur les cartes. Chaque écriture
// est couplée à son entrée de journal dans une même transaction.
type CarteService struct {
	*basesvc.BaseServiceMongoImpl[models.Carte]
	recorder *journalsvc.Recorder
	txn      journalsvc.TxnRunner
}

// NewCarteService crée le service des cartes
func NewCarteService(db *database.Handle, recorder *journalsvc.Recorder, txn journalsvc.TxnRunner) *CarteService {
	return &CarteService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.Carte](db.Collection(global.ColNames.Cartes)),
		recorder:             recorder,
		txn:                  txn,
	}
}

// ColonnesAutorisees retourne les colonnes que le rôle donné peut modifier.
// La correspondance de rôle est insensible à la casse et tolère les intitulés
// composés ("Chef d'équipe Abidjan" reste un chef d'équipe).
func ColonnesAutorisees(role string) ([]string, error) {
	r := strings.ToLower(role)
	switch {
	case strings.Contains(r, "administrateur"),
		strings.Contains(r, "superviseur"),
		strings.Contains(r, "chef d'équipe"),
		strings.Contains(r, "chef d'equipe"):
		return models.ColonnesToutes, nil
	case strings.Contains(r, "opérateur"),
		strings.Contains(r, "operateur"):
		return models.ColonnesDelivrance, nil
	}
	return nil, common.ErrRoleForbidden
}

// filtreColonnes ne garde de updates que les colonnes autorisées. Les clés
// sont rapprochées sans tenir compte de la casse et réécrites sous leur nom
// canonique.
func filtreColonnes(updates map[string]interface{}, autorisees []string) map[string]interface{} {
	canonique := make(map[string]string, len(autorisees))
	for _, col := range autorisees {
		canonique[strings.ToLower(col)] = col
	}

	filtered := map[string]interface{}{}
	for key, value := range updates {
		if col, ok := canonique[strings.ToLower(key)]; ok {
			filtered[col] = value
		}
	}
	return filtered
}

// Create insère une carte et journalise CREATION_CARTE dans la même
// transaction: sans entrée de journal, pas de carte.
func (s *CarteService) Create(ctx context.Context, carte models.Carte, actor journalmodels.Actor, ip string) (*models.Carte, error) {
	var created models.Carte

	err := s.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.InsertOne(txCtx, carte)
		if err != nil {
			return err
		}

		_, err = s.recorder.RecordTx(txCtx, journalsvc.RecordInput{
			ActionType: journalmodels.ActionCreationCarte,
			Actor:      actor,
			TableName:  global.ColNames.Cartes,
			RecordID:   created.ID.Hex(),
			NewValue:   journalsvc.Snapshot(created),
			Details:    fmt.Sprintf("Création nouvelle carte - %s %s", created.Nom, created.Prenoms),
			AdresseIP:  ip,
		})
		return err
	})
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}

	return &created, nil
}

// GetById retourne une carte par son identifiant
func (s *CarteService) GetById(ctx context.Context, id primitive.ObjectID) (*models.Carte, error) {
	carte, err := s.FindOneById(ctx, id)
	if err != nil {
		return nil, err
	}
	return &carte, nil
}

// Update modifie les colonnes autorisées pour le rôle de l'appelant et
// journalise MODIFICATION_CARTE avec les snapshots avant/après.
func (s *CarteService) Update(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}, actor journalmodels.Actor, ip string) (*models.Carte, error) {
	autorisees, err := ColonnesAutorisees(actor.Role)
	if err != nil {
		return nil, err
	}

	fields := filtreColonnes(updates, autorisees)
	if len(fields) == 0 {
		return nil, ErrAucuneColonneModifiable
	}

	avant, err := s.FindOneById(ctx, id)
	if err != nil {
		return nil, err
	}

	var apres models.Carte
	err = s.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		apres, err = s.UpdateById(txCtx, id, fields)
		if err != nil {
			return err
		}

		_, err = s.recorder.RecordTx(txCtx, journalsvc.RecordInput{
			ActionType: journalmodels.ActionModificationCarte,
			Actor:      actor,
			TableName:  global.ColNames.Cartes,
			RecordID:   id.Hex(),
			OldValue:   journalsvc.Snapshot(avant),
			NewValue:   journalsvc.Snapshot(apres),
			Details:    fmt.Sprintf("Modification carte - %s %s", avant.Nom, avant.Prenoms),
			AdresseIP:  ip,
		})
		return err
	})
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}

	return &apres, nil
}

// Delete supprime une carte et journalise SUPPRESSION_CARTE avec le snapshot
// complet: c'est ce snapshot qui permet la restauration ultérieure.
func (s *CarteService) Delete(ctx context.Context, id primitive.ObjectID, actor journalmodels.Actor, ip string) error {
	carte, err := s.FindOneById(ctx, id)
	if err != nil {
		return err
	}

	err = s.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.DeleteById(txCtx, id); err != nil {
			return err
		}

		_, err := s.recorder.RecordTx(txCtx, journalsvc.RecordInput{
			ActionType: journalmodels.ActionSuppressionCarte,
			Actor:      actor,
			TableName:  global.ColNames.Cartes,
			RecordID:   id.Hex(),
			OldValue:   journalsvc.Snapshot(carte),
			Details:    fmt.Sprintf("Suppression carte - %s %s", carte.Nom, carte.Prenoms),
			AdresseIP:  ip,
		})
		return err
	})
	if err != nil {
		return common.ConvertMongoError(err)
	}

	return nil
}

// BuildSearchFilter construit le filtre de recherche plein-texte: motif
// insensible à la casse sur nom, prénoms, contact et site de retrait.
func BuildSearchFilter(search string) bson.M {
	if search == "" {
		return bson.M{}
	}

	pattern := regexp.QuoteMeta(search)
	return bson.M{
		"$or": bson.A{
			bson.M{"NOM": primitive.Regex{Pattern: pattern, Options: "i"}},
			bson.M{"PRENOMS": primitive.Regex{Pattern: pattern, Options: "i"}},
			bson.M{"CONTACT": primitive.Regex{Pattern: pattern, Options: "i"}},
			bson.M{"SITE DE RETRAIT": primitive.Regex{Pattern: pattern, Options: "i"}},
		},
	}
}

// List retourne une page de cartes, filtrée par le motif de recherche.
// Le tri par _id croissant garde l'ordre d'insertion stable entre les pages.
func (s *CarteService) List(ctx context.Context, page, limit int64, search string) (*basemodels.PaginateResult[models.Carte], error) {
	opts := options.Find().SetSort(bson.M{"_id": 1})
	return s.FindWithPagination(ctx, BuildSearchFilter(search), page, limit, opts)
}

// Statistiques calcule les compteurs globaux et l'agrégation par site.
// Une carte est "retirée" quand sa colonne DELIVRANCE est renseignée.
func (s *CarteService) Statistiques(ctx context.Context) (*models.Statistiques, error) {
	total, err := s.CountDocuments(ctx, nil)
	if err != nil {
		return nil, err
	}

	retires, err := s.CountDocuments(ctx, bson.M{
		"DELIVRANCE": bson.M{"$exists": true, "$nin": bson.A{"", nil}},
	})
	if err != nil {
		return nil, err
	}

	delivree := bson.M{"$and": bson.A{
		bson.M{"$ne": bson.A{"$DELIVRANCE", ""}},
		bson.M{"$ne": bson.A{"$DELIVRANCE", nil}},
	}}
	pipeline := []bson.M{
		{"$group": bson.M{
			"_id":     "$SITE DE RETRAIT",
			"total":   bson.M{"$sum": 1},
			"retires": bson.M{"$sum": bson.M{"$cond": bson.A{delivree, 1, 0}}},
		}},
		{"$sort": bson.M{"total": -1}},
	}

	cursor, err := s.Collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var sites []models.SiteStat
	if err := cursor.All(ctx, &sites); err != nil {
		return nil, common.ConvertMongoError(err)
	}

	parSite := make(map[string]models.SiteStat, len(sites))
	for _, site := range sites {
		site.Restants = site.Total - site.Retires
		if site.Site == "" {
			site.Site = "Non renseigné"
		}
		parSite[site.Site] = site
	}

	return &models.Statistiques{
		Total:       total,
		Retires:     retires,
		Disponibles: total - retires,
		ParSite:     parSite,
	}, nil
}
