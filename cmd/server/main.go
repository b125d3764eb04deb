package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahouajeanluc-hub/cartes-backend/core/global"
	"github.com/ahouajeanluc-hub/cartes-backend/core/logger"
)

// initLogger configure le logger avant tout le reste: les étapes suivantes
// du démarrage loggent déjà.
func initLogger() {
	if err := logger.Init(nil); err != nil {
		panic(fmt.Sprintf("Initialisation du logger impossible: %v", err))
	}
	logger.GetAppLogger().Info("Logger initialisé")
}

func main() {
	initLogger()
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := InitApplication(ctx)
	if err != nil {
		logger.GetAppLogger().WithError(err).Fatal("Démarrage impossible")
	}

	application.StartRetentionPurge(ctx)

	app := InitFiberApp(application)

	log := logger.GetAppLogger()
	go func() {
		log.Infof("Serveur à l'écoute sur %s", global.ServerConfig.Address)
		if err := app.Listen(global.ServerConfig.Address); err != nil {
			log.WithError(err).Fatal("Le serveur s'est arrêté en erreur")
		}
	}()

	<-ctx.Done()
	log.Info("Signal d'arrêt reçu, fermeture en cours...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("Arrêt du serveur HTTP en erreur")
	}

	if err := application.DB.Close(shutdownCtx); err != nil {
		log.WithError(err).Error("Fermeture de la connexion MongoDB en erreur")
	}

	log.Info("Arrêt propre terminé")
}
