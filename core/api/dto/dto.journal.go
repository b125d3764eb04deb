package dto

// PurgeInput est le corps d'une purge de rétention
type PurgeInput struct {
	RetentionJours int64 `json:"retentionJours" validate:"required,min=1"`
}
