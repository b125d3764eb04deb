// Package handler contient les handlers HTTP de l'API.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"runtime/debug"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/ahouajeanluc-hub/cartes-backend/core/common"
	"github.com/ahouajeanluc-hub/cartes-backend/core/global"
	authmodels "github.com/ahouajeanluc-hub/cartes-backend/internal/api/auth/models"
	authsvc "github.com/ahouajeanluc-hub/cartes-backend/internal/api/auth/service"
	journalmodels "github.com/ahouajeanluc-hub/cartes-backend/internal/api/journal/models"
)

// JSONResponse force charset=utf-8: les données portent des caractères accentués
func JSONResponse(c fiber.Ctx, statusCode int, data interface{}) error {
	c.Set("Content-Type", "application/json; charset=utf-8")
	return c.Status(statusCode).JSON(data)
}

// HandleResponse normalise la réponse: enveloppe succès ou erreur typée
func HandleResponse(c fiber.Ctx, data interface{}, err error) error {
	if err != nil {
		return HandleErrorResponse(c, err)
	}
	return JSONResponse(c, common.StatusOK, fiber.Map{
		"code":    common.StatusOK,
		"message": common.MsgSuccess,
		"data":    data,
		"status":  "success",
	})
}

// HandleErrorResponse renvoie l'erreur au client. Une erreur typée garde son
// status HTTP et son code; le reste devient une erreur système 500.
func HandleErrorResponse(c fiber.Ctx, err error) error {
	var customErr *common.Error
	if errors.As(err, &customErr) {
		return JSONResponse(c, customErr.StatusCode, fiber.Map{
			"code":    customErr.Code.Code,
			"message": customErr.Message,
			"details": customErr.Details,
			"status":  "error",
		})
	}
	return JSONResponse(c, common.StatusInternalServerError, fiber.Map{
		"code":    common.ErrCodeInternalServer.Code,
		"message": err.Error(),
		"status":  "error",
	})
}

// SafeHandler borne le handler avec un recover: le serveur répond toujours,
// même en cas de panic.
func SafeHandler(c fiber.Ctx, fn func() error) error {
	defer func() {
		if r := recover(); r != nil {
			debug.PrintStack()
			HandleErrorResponse(c, common.NewError(
				common.ErrCodeInternalServer,
				fmt.Sprintf("Erreur système inattendue: %v", r),
				common.StatusInternalServerError,
				nil,
			))
		}
	}()
	return fn()
}

// ParseRequestBody décode le corps JSON et valide les tags du DTO.
// Les cibles non-struct (map de colonnes libres) sont décodées sans validation.
func ParseRequestBody(c fiber.Ctx, input interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(c.Body()))
	decoder.UseNumber()
	if err := decoder.Decode(input); err != nil {
		return common.NewError(common.ErrCodeValidationFormat, common.MsgValidationError, common.StatusBadRequest, err)
	}

	val := reflect.ValueOf(input)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err)
	}
	return nil
}

// QueryInt64 lit un paramètre de query entier, avec valeur par défaut
func QueryInt64(c fiber.Ctx, key string, def int64) int64 {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return value
}

// currentUser retourne l'utilisateur authentifié posé par le middleware
func currentUser(c fiber.Ctx) (*authmodels.Utilisateur, error) {
	user, ok := c.Locals("utilisateur").(*authmodels.Utilisateur)
	if !ok || user == nil {
		return nil, common.ErrTokenMissing
	}
	return user, nil
}

// currentActor fige l'identité de l'utilisateur authentifié pour le journal
func currentActor(c fiber.Ctx) (journalmodels.Actor, error) {
	user, err := currentUser(c)
	if err != nil {
		return journalmodels.Actor{}, err
	}
	return authsvc.Actor(user), nil
}
