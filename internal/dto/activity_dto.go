package dto

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/skor-go-api/internal/models"
)

// ActivityListRequest filters the audit trail listing.
type ActivityListRequest struct {
	Page       int    `query:"page"`
	PageSize   int    `query:"page_size"`
	ActorID    uint   `query:"actor_id"`
	Action     string `query:"action"`
	EntityType string `query:"entity_type"`
}

// ActivityResponse serializes one audit entry.
type ActivityResponse struct {
	ID         uint                   `json:"id"`
	ActorID    uint                   `json:"actor_id"`
	ActorRole  string                 `json:"actor_role"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   *uint                  `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata"`
	CreatedAt  time.Time              `json:"created_at"`
}

// ActivityListResponse wraps paginated audit entries.
type ActivityListResponse struct {
	Items    []ActivityResponse `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

func metadataFromJSON(data datatypes.JSONMap) map[string]interface{} {
	if data == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}(data)
}

// NewActivityResponse converts a model into an activity DTO.
func NewActivityResponse(entry models.ActivityLog) ActivityResponse {
	return ActivityResponse{
		ID:         entry.ID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Metadata:   metadataFromJSON(entry.Metadata),
		CreatedAt:  entry.CreatedAt,
	}
}
