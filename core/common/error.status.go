package common

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

// HTTP Status Code Constants
const (
	// Success Codes (2xx)
	StatusOK        = 200 // Succès
	StatusCreated   = 201 // Création réussie
	StatusAccepted  = 202 // Requête acceptée
	StatusNoContent = 204 // Succès sans contenu retourné

	// Client Error Codes (4xx)
	StatusBadRequest          = 400 // Requête invalide
	StatusUnauthorized        = 401 // Non authentifié
	StatusForbidden           = 403 // Accès refusé
	StatusNotFound            = 404 // Ressource introuvable
	StatusMethodNotAllowed    = 405 // Méthode HTTP non supportée
	StatusConflict            = 409 // Conflit de données
	StatusGone                = 410 // Ressource disparue
	StatusUnprocessableEntity = 422 // Entité non exploitable
	StatusTooManyRequests     = 429 // Trop de requêtes

	// Server Error Codes (5xx)
	StatusInternalServerError = 500 // Erreur serveur
	StatusNotImplemented      = 501 // Fonctionnalité non implémentée
	StatusServiceUnavailable  = 503 // Service indisponible
)

// Response Messages
const (
	MsgSuccess = "Opération réussie"
	MsgCreated = "Création réussie"

	MsgBadRequest    = "Requête invalide"
	MsgUnauthorized  = "Veuillez vous connecter"
	MsgForbidden     = "Accès refusé"
	MsgNotFound      = "Ressource introuvable"
	MsgConflict      = "Conflit de données"
	MsgInternalError = "Erreur système"

	MsgTokenMissing = "Token d'authentification manquant"
	MsgTokenInvalid = "Token invalide"
	MsgTokenExpired = "Token expiré"

	MsgValidationError = "Données invalides"
	MsgDatabaseError   = "Erreur d'accès à la base de données"
)

// ErrorCode définit un code d'erreur détaillé
type ErrorCode struct {
	Code        string // Code d'erreur (ex: AUTH_001)
	Category    string // Catégorie (ex: Authentication)
	SubCategory string // Sous-catégorie (ex: Token)
	Description string // Description détaillée
}

// Codes d'erreur organisés par hiérarchie
var (
	// System Errors (SYS_xxx)
	ErrCodeInternalServer = ErrorCode{
		Code:        "SYS_001",
		Category:    "System",
		SubCategory: "Internal",
		Description: "Erreur système interne",
	}

	// Authentication Errors (AUTH_xxx)
	ErrCodeAuth = ErrorCode{
		Code:        "AUTH",
		Category:    "Authentication",
		SubCategory: "General",
		Description: "Erreur d'authentification générale",
	}

	ErrCodeAuthToken = ErrorCode{
		Code:        "AUTH_001",
		Category:    "Authentication",
		SubCategory: "Token",
		Description: "Erreur liée au token",
	}

	ErrCodeAuthCredentials = ErrorCode{
		Code:        "AUTH_002",
		Category:    "Authentication",
		SubCategory: "Credentials",
		Description: "Erreur d'identifiants de connexion",
	}

	ErrCodeAuthRole = ErrorCode{
		Code:        "AUTH_003",
		Category:    "Authentication",
		SubCategory: "Role",
		Description: "Erreur liée au rôle de l'utilisateur",
	}

	// Validation Errors (VAL_xxx)
	ErrCodeValidation = ErrorCode{
		Code:        "VAL",
		Category:    "Validation",
		SubCategory: "General",
		Description: "Erreur de validation générale",
	}

	ErrCodeValidationInput = ErrorCode{
		Code:        "VAL_001",
		Category:    "Validation",
		SubCategory: "Input",
		Description: "Erreur sur les données d'entrée",
	}

	ErrCodeValidationFormat = ErrorCode{
		Code:        "VAL_002",
		Category:    "Validation",
		SubCategory: "Format",
		Description: "Erreur de format de données",
	}

	// Database Errors (DB_xxx)
	ErrCodeDatabase = ErrorCode{
		Code:        "DB",
		Category:    "Database",
		SubCategory: "General",
		Description: "Erreur base de données générale",
	}

	ErrCodeDatabaseConnection = ErrorCode{
		Code:        "DB_001",
		Category:    "Database",
		SubCategory: "Connection",
		Description: "Erreur de connexion à la base de données",
	}

	ErrCodeDatabaseQuery = ErrorCode{
		Code:        "DB_002",
		Category:    "Database",
		SubCategory: "Query",
		Description: "Erreur de requête",
	}

	// Business Logic Errors (BIZ_xxx)
	ErrCodeBusiness = ErrorCode{
		Code:        "BIZ",
		Category:    "Business",
		SubCategory: "General",
		Description: "Erreur métier générale",
	}

	ErrCodeBusinessOperation = ErrorCode{
		Code:        "BIZ_002",
		Category:    "Business",
		SubCategory: "Operation",
		Description: "Opération métier invalide",
	}

	// Journal Errors (JRN_xxx) — journal d'audit et annulation
	ErrCodeJournal = ErrorCode{
		Code:        "JRN",
		Category:    "Journal",
		SubCategory: "General",
		Description: "Erreur journal générale",
	}

	ErrCodeJournalEntry = ErrorCode{
		Code:        "JRN_001",
		Category:    "Journal",
		SubCategory: "Entry",
		Description: "Entrée de journal introuvable ou corrompue",
	}

	ErrCodeJournalUndo = ErrorCode{
		Code:        "JRN_002",
		Category:    "Journal",
		SubCategory: "Undo",
		Description: "Annulation impossible pour cette entrée",
	}

	ErrCodeJournalBatch = ErrorCode{
		Code:        "JRN_003",
		Category:    "Journal",
		SubCategory: "Batch",
		Description: "Erreur sur un lot d'import",
	}

	ErrCodeJournalConflict = ErrorCode{
		Code:        "JRN_004",
		Category:    "Journal",
		SubCategory: "Conflict",
		Description: "Conflit d'écriture pendant une transaction d'annulation",
	}
)

// Error définit la structure d'erreur détaillée
type Error struct {
	Code       ErrorCode // Code d'erreur détaillé
	Message    string    // Message d'erreur
	StatusCode int       // HTTP status code
	Details    any       // Informations supplémentaires
}

// Error retourne le message de l'erreur
func (e *Error) Error() string {
	return e.Message
}

// Is compare avec une erreur cible (support errors.Is)
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	if targetErr, ok := target.(*Error); ok {
		return e.Code.Code == targetErr.Code.Code && e.Message == targetErr.Message
	}
	return false
}

// NewError crée une erreur complète
func NewError(code ErrorCode, message string, statusCode int, details any) error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    details,
	}
}

// Custom errors
var (
	// Authentication Errors
	ErrInvalidCredentials = NewError(ErrCodeAuthCredentials, "Identifiants incorrects", StatusUnauthorized, nil)
	ErrTokenExpired       = NewError(ErrCodeAuthToken, "Session expirée", StatusUnauthorized, nil)
	ErrTokenInvalid       = NewError(ErrCodeAuthToken, "Token invalide", StatusUnauthorized, nil)
	ErrTokenMissing       = NewError(ErrCodeAuthToken, "Token d'authentification manquant", StatusUnauthorized, nil)
	ErrUserNotFound       = NewError(ErrCodeAuthCredentials, "Utilisateur introuvable", StatusNotFound, nil)
	ErrUserInactive       = NewError(ErrCodeAuthCredentials, "Compte utilisateur désactivé", StatusUnauthorized, nil)
	ErrRoleForbidden      = NewError(ErrCodeAuthRole, "Rôle insuffisant pour cette opération", StatusForbidden, nil)

	// Validation Errors
	ErrInvalidInput  = NewError(ErrCodeValidationInput, "Données d'entrée invalides", StatusBadRequest, nil)
	ErrInvalidFormat = NewError(ErrCodeValidationFormat, "Format de données invalide", StatusBadRequest, nil)
	ErrRequiredField = NewError(ErrCodeValidationInput, "Champ obligatoire manquant", StatusBadRequest, nil)

	// Database Errors
	ErrNotFound    = NewError(ErrCodeDatabaseQuery, "Données introuvables", StatusNotFound, nil)
	ErrDuplicate   = NewError(ErrCodeDatabaseQuery, "Données déjà existantes", StatusConflict, nil)
	ErrConnection  = NewError(ErrCodeDatabaseConnection, "Erreur de connexion à la base de données", StatusServiceUnavailable, nil)
	ErrTransaction = NewError(ErrCodeDatabaseQuery, "Erreur de transaction", StatusInternalServerError, nil)

	// Business Logic Errors
	ErrInvalidOperation = NewError(ErrCodeBusinessOperation, "Opération invalide", StatusBadRequest, nil)
)

// Erreurs du journal d'audit (taxonomie d'annulation).
// Chaque sentinelle porte le status HTTP que la couche handler renvoie telle quelle.
var (
	// L'entrée visée n'existe pas dans le journal
	ErrJournalEntryNotFound = NewError(ErrCodeJournalEntry, "Entrée de journal introuvable", StatusNotFound, nil)

	// Les snapshots de l'entrée ne sont pas du JSON exploitable
	ErrJournalCorruptEntry = NewError(ErrCodeJournalEntry, "Entrée de journal corrompue: snapshot illisible", StatusUnprocessableEntity, nil)

	// Le type d'action n'a pas d'inverse (DEBUT_IMPORT, CONNEXION, ANNULATION, ...)
	ErrJournalUnsupportedUndo = NewError(ErrCodeJournalUndo, "Ce type d'action ne peut pas être annulé", StatusUnprocessableEntity, nil)

	// L'enregistrement cible a disparu depuis l'action d'origine
	ErrJournalRecordGone = NewError(ErrCodeJournalUndo, "L'enregistrement cible n'existe plus", StatusGone, nil)

	// Le snapshot ne contient plus aucun champ restaurable
	ErrJournalNoModifiableFields = NewError(ErrCodeJournalUndo, "Aucun champ modifiable dans le snapshot", StatusUnprocessableEntity, nil)

	// Le lot d'import visé ne contient aucune entrée
	ErrJournalBatchEmpty = NewError(ErrCodeJournalBatch, "Aucune entrée pour ce lot d'import", StatusNotFound, nil)

	// Conflit d'écriture transactionnel: l'appelant peut réessayer
	ErrJournalWriteConflict = NewError(ErrCodeJournalConflict, "Conflit d'écriture, veuillez réessayer", StatusConflict, map[string]any{"retryable": true})
)

// MongoDB Specific Errors
var (
	ErrMongoConnection = NewError(ErrCodeDatabaseConnection, "Erreur de connexion MongoDB", StatusServiceUnavailable, nil)
	ErrMongoNetwork    = NewError(ErrCodeDatabaseConnection, "Erreur réseau MongoDB", StatusServiceUnavailable, nil)
	ErrMongoTimeout    = NewError(ErrCodeDatabaseConnection, "Timeout de connexion MongoDB", StatusServiceUnavailable, nil)
	ErrMongoAuth       = NewError(ErrCodeAuth, "Erreur d'authentification MongoDB", StatusUnauthorized, nil)
	ErrMongoQuery      = NewError(ErrCodeDatabaseQuery, "Erreur de requête MongoDB", StatusInternalServerError, nil)
	ErrMongoWrite      = NewError(ErrCodeDatabaseQuery, "Erreur d'écriture MongoDB", StatusInternalServerError, nil)
	ErrMongoDuplicate  = NewError(ErrCodeDatabaseQuery, "Données dupliquées dans MongoDB", StatusConflict, nil)
	ErrMongoSystem     = NewError(ErrCodeDatabase, "Erreur système MongoDB", StatusInternalServerError, nil)
)

// Code serveur MongoDB pour un conflit d'écriture intra-transaction
const mongoWriteConflictCode = 112

// IsTransientTransactionError détecte un conflit transactionnel réessayable.
// MongoDB pose le label TransientTransactionError sur la CommandError, ou
// renvoie le code 112 (WriteConflict). Ces erreurs ne doivent JAMAIS être
// interprétées comme une disparition de l'enregistrement cible.
func IsTransientTransactionError(err error) bool {
	if err == nil {
		return false
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if cmdErr.HasErrorLabel("TransientTransactionError") || cmdErr.Code == mongoWriteConflictCode {
			return true
		}
	}
	var wErr mongo.WriteException
	if errors.As(err, &wErr) {
		if wErr.HasErrorLabel("TransientTransactionError") {
			return true
		}
		for _, we := range wErr.WriteErrors {
			if we.Code == mongoWriteConflictCode {
				return true
			}
		}
	}
	return false
}

// ConvertMongoError convertit une erreur du driver MongoDB en erreur système
func ConvertMongoError(err error) error {
	if err == nil {
		return nil
	}

	// Ne pas reconvertir une erreur déjà typée (sentinelles du journal incluses)
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}

	// Les conflits transactionnels restent réessayables pour l'appelant
	if IsTransientTransactionError(err) {
		return ErrJournalWriteConflict
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}

	var mongoErr mongo.CommandError
	if errors.As(err, &mongoErr) {
		switch {
		case mongoErr.Code >= 100 && mongoErr.Code < 200:
			return ErrMongoConnection
		case mongoErr.Code >= 200 && mongoErr.Code < 300:
			return ErrMongoAuth
		case mongoErr.Code >= 300 && mongoErr.Code < 400:
			return ErrMongoQuery
		case mongoErr.Code >= 400 && mongoErr.Code < 500:
			return ErrMongoWrite
		case mongoErr.Code >= 500:
			return ErrMongoSystem
		}
	}

	if mongo.IsDuplicateKeyError(err) {
		return ErrMongoDuplicate
	}
	if mongo.IsNetworkError(err) {
		return ErrMongoNetwork
	}
	if mongo.IsTimeout(err) {
		return ErrMongoTimeout
	}

	return NewError(ErrCodeDatabase, MsgDatabaseError, StatusInternalServerError, err)
}
