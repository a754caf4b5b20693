package models

// Task types from the seeded catalog.
const (
	TaskTypeAd     = "ad"
	TaskTypeSurvey = "survey"
	TaskTypeGame   = "game"
)

// Task is a catalog entry. Tasks are immutable once created.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Type        string `json:"type"`
}

type NewTask struct {
	Title       string `validate:"required"`
	Description string `validate:"required"`
	Points      int    `validate:"gt=0"`
	Type        string `validate:"oneof=ad survey game"`
}
