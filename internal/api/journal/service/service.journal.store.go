// Package journalsvc implémente le journal d'audit: écriture des entrées,
// consultation filtrée, annulation d'actions et gestion des lots d'import.
package journalsvc

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/core/database"
	"github.com/ahouajeanluc-hub/cartes-backend/core/global"
	basemodels "github.com/ahouajeanluc-hub/cartes-backend/internal/api/base/models"
	basesvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/base/service"
	"github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/models"
)

// JournalService gère la collection du journal d'audit.
// Le journal est append-only: la purge de rétention est la seule suppression.
type JournalService struct {
	*basesvc.BaseServiceMongoImpl[models.JournalEntry]
}

// NewJournalService crée le service du journal
func NewJournalService(db *database.Handle) *JournalService {
	return &JournalService{
		BaseServiceMongoImpl: basesvc.NewBaseServiceMongo[models.JournalEntry](db.Collection(global.ColNames.Journal)),
	}
}

// journalEntryRaw décode une entrée brute en tolérant les noms de champs
// hérités de l'ancien système (TableAffectee/LigneAffectee). La réconciliation
// se fait uniquement ici, à la frontière de stockage: le reste du code ne
// voit que TableName/RecordId.
type journalEntryRaw struct {
	models.JournalEntry `bson:",inline"`
	TableAffectee       string `bson:"TableAffectee,omitempty"`
	LigneAffectee       string `bson:"LigneAffectee,omitempty"`
}

func (r *journalEntryRaw) canonical() *models.JournalEntry {
	entry := r.JournalEntry
	if entry.TableName == "" {
		entry.TableName = r.TableAffectee
	}
	if entry.RecordID == "" {
		entry.RecordID = r.LigneAffectee
	}
	return &entry
}

// GetEntry retourne une entrée par son ID, champs hérités réconciliés
func (s *JournalService) GetEntry(ctx context.Context, id primitive.ObjectID) (*models.JournalEntry, error) {
	var raw journalEntryRaw
	err := s.Collection().FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err != nil {
		converted := common.ConvertMongoError(err)
		if errors.Is(converted, common.ErrNotFound) {
			return nil, common.ErrJournalEntryNotFound
		}
		return nil, converted
	}
	return raw.canonical(), nil
}

// Append insère une entrée (hors transaction). La date d'action est posée
// si l'appelant ne l'a pas fournie.
func (s *JournalService) Append(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error) {
	if entry.DateAction == 0 {
		entry.DateAction = time.Now().UnixMilli()
	}
	created, err := s.InsertOne(ctx, *entry)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// AppendTx insère une entrée dans la transaction portée par ctx.
// ctx doit être un contexte de session MongoDB.
func (s *JournalService) AppendTx(ctx context.Context, entry *models.JournalEntry) (*models.JournalEntry, error) {
	return s.Append(ctx, entry)
}

// EntryFilter porte les critères de consultation du journal
type EntryFilter struct {
	DateDebut      int64  // Borne basse sur DateAction (Unix ms, 0 = pas de borne)
	DateFin        int64  // Borne haute sur DateAction (Unix ms, 0 = pas de borne)
	NomUtilisateur string // Sous-chaîne insensible à la casse sur le login
	ActionType     string // Type d'action exact
	TableName      string // Collection cible (nom canonique ou hérité)
}

// BuildEntryFilter construit le filtre MongoDB depuis les critères.
// Le filtre table couvre le champ canonique ET le champ hérité.
func BuildEntryFilter(f EntryFilter) bson.M {
	filter := bson.M{}

	if f.DateDebut > 0 || f.DateFin > 0 {
		dateRange := bson.M{}
		if f.DateDebut > 0 {
			dateRange["$gte"] = f.DateDebut
		}
		if f.DateFin > 0 {
			dateRange["$lte"] = f.DateFin
		}
		filter["DateAction"] = dateRange
	}

	if name := strings.TrimSpace(f.NomUtilisateur); name != "" {
		filter["NomUtilisateur"] = primitive.Regex{Pattern: escapeRegex(name), Options: "i"}
	}

	if f.ActionType != "" {
		filter["ActionType"] = f.ActionType
	}

	if f.TableName != "" {
		filter["$or"] = []bson.M{
			{"TableName": f.TableName},
			{"TableAffectee": f.TableName},
		}
	}

	return filter
}

// escapeRegex neutralise les métacaractères pour une recherche littérale
func escapeRegex(s string) string {
	special := `\.+*?()|[]{}^$`
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// FindEntries retourne une page d'entrées triées par date décroissante.
// La page est décodée en brut: la réconciliation des champs hérités doit voir
// les documents tels qu'ils sont stockés, avant que le décodage typé ne perde
// les anciens noms.
func (s *JournalService) FindEntries(ctx context.Context, f EntryFilter, page, limit int64) (*basemodels.PaginateResult[models.JournalEntry], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	filter := BuildEntryFilter(f)
	total, err := s.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "DateAction", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := s.Collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var raws []journalEntryRaw
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, common.ConvertMongoError(err)
	}

	items := make([]models.JournalEntry, 0, len(raws))
	for i := range raws {
		items = append(items, *raws[i].canonical())
	}

	totalPage := total / limit
	if total%limit != 0 {
		totalPage++
	}

	return &basemodels.PaginateResult[models.JournalEntry]{
		Page:      page,
		Limit:     limit,
		ItemCount: int64(len(items)),
		Items:     items,
		Total:     total,
		TotalPage: totalPage,
	}, nil
}

// GroupByBatch agrège les entrées IMPORT_CARTE par lot, lot le plus récent
// en premier.
func (s *JournalService) GroupByBatch(ctx context.Context) ([]models.BatchSummary, error) {
	pipeline := []bson.M{
		{"$match": bson.M{
			"ActionType":    models.ActionImportCarte,
			"ImportBatchID": bson.M{"$ne": nil},
		}},
		{"$sort": bson.M{"DateAction": 1}},
		{"$group": bson.M{
			"_id":            "$ImportBatchID",
			"count":          bson.M{"$sum": 1},
			"dateImport":     bson.M{"$min": "$DateAction"},
			"nomUtilisateur": bson.M{"$first": "$NomUtilisateur"},
			"nomComplet":     bson.M{"$first": "$NomComplet"},
		}},
		{"$sort": bson.M{"dateImport": -1}},
	}

	cursor, err := s.Collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var summaries []models.BatchSummary
	if err := cursor.All(ctx, &summaries); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	if summaries == nil {
		summaries = []models.BatchSummary{}
	}

	return summaries, nil
}

// ActivityStats agrège l'activité par type d'action sur les windowDays
// derniers jours, triée par volume décroissant.
func (s *JournalService) ActivityStats(ctx context.Context, windowDays int) ([]models.ActivityStat, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	since := time.Now().AddDate(0, 0, -windowDays).UnixMilli()

	pipeline := []bson.M{
		{"$match": bson.M{"DateAction": bson.M{"$gte": since}}},
		{"$group": bson.M{
			"_id":            "$ActionType",
			"count":          bson.M{"$sum": 1},
			"derniereAction": bson.M{"$max": "$DateAction"},
		}},
		{"$sort": bson.M{"count": -1}},
	}

	cursor, err := s.Collection().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, common.ConvertMongoError(err)
	}
	defer cursor.Close(ctx)

	var stats []models.ActivityStat
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, common.ConvertMongoError(err)
	}
	if stats == nil {
		stats = []models.ActivityStat{}
	}

	return stats, nil
}

// PurgeOlderThan supprime les entrées plus anciennes que retentionDays jours.
// C'est le balayage de rétention, hors du périmètre de l'annulation.
func (s *JournalService) PurgeOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, common.ErrInvalidInput
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays).UnixMilli()
	return s.DeleteMany(ctx, bson.M{"DateAction": bson.M{"$lt": cutoff}})
}
