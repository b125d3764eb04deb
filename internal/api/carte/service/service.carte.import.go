package cartesvc

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/core/global"
	"github.com/ahouajeanluc-hub/cartes-backend/core/logger"
	"github.com/ahouajeanluc-hub/cartes-backend/internal/api/carte/models"
	journalmodels "github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/models"
	journalsvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/service"
)

// ImportResult décrit l'issue d'un import en masse
type ImportResult struct {
	ImportBatchID string `json:"importBatchId"` // Identifiant du lot
	Importees     int    `json:"importees"`     // Cartes insérées
	Message       string `json:"message"`
}

// ImportCartes importe un lot de cartes. Tout le lot et ses entrées de
// journal (DEBUT_IMPORT, une entrée IMPORT_CARTE par carte, FIN_IMPORT)
// s'insèrent dans une seule transaction: un import est tout-ou-rien.
// En cas d'échec, une entrée ERREUR_IMPORT est tracée en meilleur effort.
func (s *CarteService) ImportCartes(ctx context.Context, cartes []models.Carte, actor journalmodels.Actor, ip string) (*ImportResult, error) {
	if len(cartes) == 0 {
		return nil, common.ErrRequiredField
	}

	batchID := uuid.NewString()

	err := s.txn.WithTransaction(ctx, func(txCtx context.Context) error {
		_, err := s.recorder.RecordTx(txCtx, journalsvc.RecordInput{
			ActionType:    journalmodels.ActionDebutImport,
			Actor:         actor,
			ImportBatchID: &batchID,
			Details:       fmt.Sprintf("Début de l'import de %d cartes", len(cartes)),
			AdresseIP:     ip,
		})
		if err != nil {
			return err
		}

		for i := range cartes {
			cartes[i].ImportBatchID = &batchID
			created, err := s.InsertOne(txCtx, cartes[i])
			if err != nil {
				return err
			}

			_, err = s.recorder.RecordTx(txCtx, journalsvc.RecordInput{
				ActionType:    journalmodels.ActionImportCarte,
				Actor:         actor,
				TableName:     global.ColNames.Cartes,
				RecordID:      created.ID.Hex(),
				NewValue:      journalsvc.Snapshot(created),
				ImportBatchID: &batchID,
				Details:       fmt.Sprintf("Import carte - %s %s", created.Nom, created.Prenoms),
				AdresseIP:     ip,
			})
			if err != nil {
				return err
			}
		}

		_, err = s.recorder.RecordTx(txCtx, journalsvc.RecordInput{
			ActionType:    journalmodels.ActionFinImport,
			Actor:         actor,
			ImportBatchID: &batchID,
			Details:       fmt.Sprintf("Fin de l'import: %d cartes insérées", len(cartes)),
			AdresseIP:     ip,
		})
		return err
	})
	if err != nil {
		// La transaction est déjà annulée: la trace d'échec part hors
		// transaction, en meilleur effort.
		s.recorder.Record(ctx, journalsvc.RecordInput{
			ActionType:    journalmodels.ActionErreurImport,
			Actor:         actor,
			ImportBatchID: &batchID,
			Details:       fmt.Sprintf("Echec de l'import du lot %s: %v", batchID, err),
			AdresseIP:     ip,
		})

		logger.WithModule("carte").WithError(err).WithFields(map[string]interface{}{
			"importBatchId": batchID,
			"cartes":        len(cartes),
		}).Error("Import de cartes échoué")

		return nil, common.ConvertMongoError(err)
	}

	logger.WithModule("carte").WithFields(map[string]interface{}{
		"importBatchId": batchID,
		"importees":     len(cartes),
		"importePar":    actor.NomUtilisateur,
	}).Info("Lot de cartes importé")

	return &ImportResult{
		ImportBatchID: batchID,
		Importees:     len(cartes),
		Message:       fmt.Sprintf("%d cartes importées (lot %s)", len(cartes), batchID),
	}, nil
}
