package logger

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"
)

// ContextKey est le type des clés de context
type ContextKey string

const (
	// RequestIDKey est la clé du request ID dans le context
	RequestIDKey ContextKey = "requestID"
	// UserIDKey est la clé de l'identifiant utilisateur dans le context
	UserIDKey ContextKey = "userID"
)

// WithContext retourne une entrée de log enrichie depuis le context
func WithContext(ctx context.Context) *logrus.Entry {
	logger := GetAppLogger()
	entry := logger.WithContext(ctx)

	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		entry = entry.WithField("request_id", requestID)
	}
	if userID := ctx.Value(UserIDKey); userID != nil {
		entry = entry.WithField("user_id", userID)
	}

	return entry
}

// WithRequest retourne une entrée de log enrichie depuis la requête Fiber
func WithRequest(c fiber.Ctx) *logrus.Entry {
	logger := GetAppLogger()
	entry := logger.WithContext(context.Background())

	// Le middleware requestid pose l'ID dans Locals, sinon dans les headers
	var requestID string
	if rid := c.Locals("requestid"); rid != nil {
		if ridStr, ok := rid.(string); ok {
			requestID = ridStr
		}
	}
	if requestID == "" {
		requestID = c.Get("X-Request-ID")
	}
	if requestID == "" {
		requestID = c.GetRespHeader("X-Request-ID")
	}
	if requestID != "" {
		entry = entry.WithField("request_id", requestID)
	}

	entry = entry.WithFields(logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"ip":     c.IP(),
	})

	return entry
}

// WithFields retourne une entrée de log avec des champs supplémentaires
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return GetAppLogger().WithFields(logrus.Fields(fields))
}

// WithError retourne une entrée de log portant une erreur
func WithError(err error) *logrus.Entry {
	return GetAppLogger().WithError(err)
}

// WithModule retourne une entrée de log avec le nom du module
// Module: nom du module (ex: "journal", "cartes", "auth")
func WithModule(module string) *logrus.Entry {
	return GetAppLogger().WithField("module", module)
}

// WithCollection retourne une entrée de log avec le nom de la collection
// Collection: nom de la collection MongoDB (ex: "journal", "cartes")
func WithCollection(collection string) *logrus.Entry {
	return GetAppLogger().WithField("collection", collection)
}
