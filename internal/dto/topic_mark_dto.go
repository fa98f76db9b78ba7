package dto

import (
	"time"

	"github.com/noah-isme/skor-go-api/internal/models"
)

// TopicMarkResponse serializes the derived final mark for one student in one
// offering.
type TopicMarkResponse struct {
	OfferingID     uint      `json:"offering_id"`
	StudentID      uint      `json:"student_id"`
	FinalScore     float64   `json:"final_score"`
	IsPassed       bool      `json:"is_passed"`
	Comment        string    `json:"comment"`
	LastComputedAt time.Time `json:"last_computed_at"`
}

// TopicMarkListResponse lists all marks of an offering for class-wide views.
type TopicMarkListResponse struct {
	OfferingID uint                `json:"offering_id"`
	Marks      []TopicMarkResponse `json:"marks"`
	CacheHit   bool                `json:"cache_hit"`
}

// NewTopicMarkResponse converts a TopicMark model into a DTO.
func NewTopicMarkResponse(model models.TopicMark) TopicMarkResponse {
	return TopicMarkResponse{
		OfferingID:     model.OfferingID,
		StudentID:      model.StudentID,
		FinalScore:     model.FinalScore,
		IsPassed:       model.IsPassed,
		Comment:        model.Comment,
		LastComputedAt: model.LastComputedAt,
	}
}
