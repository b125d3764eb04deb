package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ahouajeanluc-hub/cartes-backend/config"
	"github.com/ahouajeanluc-hub/cartes-backend/core/api/handler"
	"github.com/ahouajeanluc-hub/cartes-backend/core/api/router"
	"github.com/ahouajeanluc-hub/cartes-backend/core/database"
	"github.com/ahouajeanluc-hub/cartes-backend/core/global"
	"github.com/ahouajeanluc-hub/cartes-backend/core/logger"
	authmodels "github.com/ahouajeanluc-hub/cartes-backend/internal/api/auth/models"
	authsvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/auth/service"
	cartemodels "github.com/ahouajeanluc-hub/cartes-backend/internal/api/carte/models"
	cartesvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/carte/service"
	journalmodels "github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/models"
	journalsvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/service"
)

// Application porte les dépendances vivantes du serveur
type Application struct {
	DB      *database.Handle
	Users   *authsvc.UtilisateurService
	Journal *journalsvc.JournalService
	Cartes  *cartesvc.CarteService
	Routes  router.Handlers
}

// InitApplication initialise la configuration, la base et les services.
// L'ordre est important: config → validateur → MongoDB → index → services.
func InitApplication(ctx context.Context) (*Application, error) {
	cfg := config.NewConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration invalide, vérifier les variables d'environnement")
	}
	global.ServerConfig = cfg

	global.InitValidator()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	db, err := database.Connect(connectCtx, cfg.MongoDB_ConnectionURI, cfg.MongoDB_DBName)
	if err != nil {
		return nil, fmt.Errorf("connexion MongoDB impossible: %w", err)
	}

	// Les transactions ne créent pas les collections implicitement:
	// elles doivent exister avant la première écriture transactionnelle.
	collections := []string{
		global.ColNames.Journal,
		global.ColNames.Cartes,
		global.ColNames.Utilisateurs,
	}
	if err := db.EnsureDatabaseAndCollections(collections); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("création des collections impossible: %w", err)
	}

	indexed := []struct {
		collection string
		model      interface{}
	}{
		{global.ColNames.Journal, journalmodels.JournalEntry{}},
		{global.ColNames.Cartes, cartemodels.Carte{}},
		{global.ColNames.Utilisateurs, authmodels.Utilisateur{}},
	}
	for _, item := range indexed {
		if err := database.CreateIndexes(connectCtx, db.Collection(item.collection), item.model); err != nil {
			db.Close(ctx)
			return nil, fmt.Errorf("création des index de %s impossible: %w", item.collection, err)
		}
	}

	// Assemblage des services: le journal d'abord, tout le reste s'y adosse
	journal := journalsvc.NewJournalService(db)
	recorder := journalsvc.NewRecorder(journal)
	records := journalsvc.NewMongoRecordStore(db)
	txn := journalsvc.NewMongoTxnRunner(db)

	undo := journalsvc.NewUndoEngine(journal, records, txn)
	batches := journalsvc.NewBatchLedger(journal, records, txn)

	users := authsvc.NewUtilisateurService(db, recorder)
	cartes := cartesvc.NewCarteService(db, recorder, txn)

	app := &Application{
		DB:      db,
		Users:   users,
		Journal: journal,
		Cartes:  cartes,
		Routes: router.Handlers{
			Auth:    handler.NewAuthHandler(users),
			Carte:   handler.NewCarteHandler(cartes),
			Journal: handler.NewJournalHandler(journal, undo, batches),
		},
	}

	logger.GetAppLogger().WithFields(map[string]interface{}{
		"database":    cfg.MongoDB_DBName,
		"collections": collections,
	}).Info("Services initialisés")

	return app, nil
}

// StartRetentionPurge lance la purge périodique du journal si une rétention
// est configurée. La boucle s'arrête avec le contexte.
func (a *Application) StartRetentionPurge(ctx context.Context) {
	retention := global.ServerConfig.JournalRetentionDays
	if retention <= 0 {
		logger.GetAppLogger().Info("Purge de rétention du journal désactivée")
		return
	}

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purged, err := a.Journal.PurgeOlderThan(ctx, retention)
				if err != nil {
					logger.WithModule("journal").WithError(err).Error("Purge de rétention échouée")
					continue
				}
				if purged > 0 {
					logger.WithModule("journal").WithFields(map[string]interface{}{
						"entreesSupprimees": purged,
						"retentionJours":    retention,
					}).Info("Purge de rétention effectuée")
				}
			}
		}
	}()
}
