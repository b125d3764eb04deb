// Package models contient les types partagés de la couche repository (pagination, comptage).
package models

// PaginateResult représente un résultat paginé
type PaginateResult[T any] struct {
	// Page courante
	Page int64 `json:"page" bson:"page"`
	// Nombre d'éléments par page
	Limit int64 `json:"limit" bson:"limit"`
	// Nombre d'éléments dans la page courante
	ItemCount int64 `json:"itemCount" bson:"itemCount"`
	// Liste des éléments
	Items []T `json:"items" bson:"items"`
	// Nombre total d'éléments
	Total int64 `json:"total" bson:"total"`
	// Nombre total de pages
	TotalPage int64 `json:"totalPage" bson:"totalPage"`
}
