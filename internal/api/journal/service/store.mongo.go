package journalsvc

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/core/database"
)

// MongoTxnRunner exécute les transactions via une session MongoDB.
type MongoTxnRunner struct {
	client  *mongo.Client
	timeout time.Duration
}

// NewMongoTxnRunner crée le runner transactionnel
func NewMongoTxnRunner(db *database.Handle) *MongoTxnRunner {
	return &MongoTxnRunner{
		client:  db.Client,
		timeout: 30 * time.Second,
	}
}

// WithTransaction exécute fn dans une transaction. Le contexte d'exécution
// est décorrélé de l'annulation du contexte appelant: une déconnexion du
// client HTTP pendant le commit ne doit pas avorter la transaction. Seul le
// timeout propre du runner borne l'opération.
func (r *MongoTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	session, err := r.client.StartSession()
	if err != nil {
		return common.ConvertMongoError(err)
	}
	defer session.EndSession(opCtx)

	_, err = session.WithTransaction(opCtx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// MongoRecordStore accède aux enregistrements métier par nom de collection.
// C'est l'implémentation MongoDB de RecordStore; toutes les méthodes
// respectent le contexte de session quand elles sont appelées en transaction.
type MongoRecordStore struct {
	db *database.Handle
}

// NewMongoRecordStore crée le store des enregistrements
func NewMongoRecordStore(db *database.Handle) *MongoRecordStore {
	return &MongoRecordStore{db: db}
}

// collection résout le nom de table d'une entrée de journal. Les entrées
// historiques portent des noms capitalisés ("Cartes"): la résolution est
// insensible à la casse.
func (s *MongoRecordStore) collection(table string) *mongo.Collection {
	return s.db.Collection(strings.ToLower(table))
}

func parseRecordID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// Un RecordId non décodable vient d'une entrée de journal inexploitable
		return primitive.NilObjectID, common.ErrJournalCorruptEntry
	}
	return objID, nil
}

// SetFields restaure les champs donnés et rafraîchit updatedAt.
// ErrJournalRecordGone si le document n'existe plus.
func (s *MongoRecordStore) SetFields(ctx context.Context, table, id string, fields map[string]interface{}) error {
	objID, err := parseRecordID(id)
	if err != nil {
		return err
	}

	set := bson.M{}
	for key, value := range fields {
		set[key] = value
	}
	set["updatedAt"] = time.Now().UnixMilli()

	result, err := s.collection(table).UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return common.ConvertMongoError(err)
	}
	if result.MatchedCount == 0 {
		return common.ErrJournalRecordGone
	}
	return nil
}

// Insert insère le document tel quel et retourne l'ID hex généré
func (s *MongoRecordStore) Insert(ctx context.Context, table string, doc map[string]interface{}) (string, error) {
	result, err := s.collection(table).InsertOne(ctx, doc)
	if err != nil {
		return "", common.ConvertMongoError(err)
	}
	objID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", common.ErrInvalidFormat
	}
	return objID.Hex(), nil
}

// Delete supprime le document. ErrJournalRecordGone s'il n'existe plus.
func (s *MongoRecordStore) Delete(ctx context.Context, table, id string) error {
	objID, err := parseRecordID(id)
	if err != nil {
		return err
	}

	result, err := s.collection(table).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return common.ConvertMongoError(err)
	}
	if result.DeletedCount == 0 {
		return common.ErrJournalRecordGone
	}
	return nil
}

// CountByBatch compte les documents portant l'identifiant de lot
func (s *MongoRecordStore) CountByBatch(ctx context.Context, table, batchID string) (int64, error) {
	count, err := s.collection(table).CountDocuments(ctx, bson.M{"ImportBatchID": batchID})
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return count, nil
}

// DeleteByBatch supprime tous les documents du lot
func (s *MongoRecordStore) DeleteByBatch(ctx context.Context, table, batchID string) (int64, error) {
	result, err := s.collection(table).DeleteMany(ctx, bson.M{"ImportBatchID": batchID})
	if err != nil {
		return 0, common.ConvertMongoError(err)
	}
	return result.DeletedCount, nil
}
