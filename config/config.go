package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Configuration contient les informations statiques nécessaires au démarrage
// de l'application : adresse d'écoute, secret JWT et connexion MongoDB.
type Configuration struct {
	Address               string `env:"ADDRESS" envDefault:":8080"`                // Adresse d'écoute du serveur
	JwtSecret             string `env:"JWT_SECRET,required"`                       // Secret de signature des tokens JWT
	MongoDB_ConnectionURI string `env:"MONGODB_CONNECTION_URI,required"`           // URI de connexion MongoDB
	MongoDB_DBName        string `env:"MONGODB_DBNAME" envDefault:"cartes"`        // Nom de la base de données
	CORS_Origins          string `env:"CORS_ORIGINS" envDefault:"*"`               // Origines autorisées (séparées par des virgules, * = toutes)
	CORS_AllowCredentials bool   `env:"CORS_ALLOW_CREDENTIALS" envDefault:"false"` // Autoriser l'envoi de credentials
	RateLimit_Max         int    `env:"RATE_LIMIT_MAX" envDefault:"100"`           // Nombre max de requêtes par fenêtre (0 = désactivé)
	RateLimit_Window      int    `env:"RATE_LIMIT_WINDOW" envDefault:"60"`         // Durée de la fenêtre (secondes)
	RateLimit_Enabled     bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`      // Activer/désactiver le rate limiting
	JournalRetentionDays  int    `env:"JOURNAL_RETENTION_DAYS" envDefault:"0"`     // Purge du journal au-delà de N jours (0 = jamais)
}

// getEnvPath retourne le chemin du fichier env selon l'environnement courant.
// On remonte l'arborescence jusqu'à trouver un dossier config/env.
func getEnvPath() string {
	envName := os.Getenv("GO_ENV")
	if envName == "" {
		envName = "development"
	}

	currentDir, err := os.Getwd()
	if err != nil {
		// fmt.Printf car le logger n'est pas encore initialisé ici
		fmt.Printf("Impossible de déterminer le répertoire courant: %v\n", err)
		return ""
	}

	for {
		envDir := filepath.Join(currentDir, "config", "env")
		if _, err := os.Stat(envDir); err == nil {
			return filepath.Join(envDir, fmt.Sprintf("%s.env", envName))
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return ""
		}
		currentDir = parentDir
	}
}

// NewConfig lit la configuration depuis le fichier env puis les variables
// d'environnement. Retourne nil si la configuration est inutilisable.
func NewConfig() *Configuration {
	envPath := getEnvPath()
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			// Non bloquant : les variables peuvent venir de l'environnement
			fmt.Printf("Impossible de charger le fichier env %s: %v\n", envPath, err)
		}
	}

	cfg := Configuration{}
	if err := env.Parse(&cfg); err != nil {
		fmt.Printf("Erreur lors du parsing de la configuration: %+v\n", err)
		return nil
	}

	return &cfg
}
