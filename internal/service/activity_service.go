package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/skor-go-api/internal/dto"
	"github.com/noah-isme/skor-go-api/internal/models"
	"github.com/noah-isme/skor-go-api/internal/repository"
)

// ActivityActor represents the authenticated actor performing a mutation.
type ActivityActor struct {
	ID   uint
	Role string
}

// ActivityEntry captures the details required to persist an audit entry.
type ActivityEntry struct {
	ActorID    uint
	ActorRole  string
	Action     string
	EntityType string
	EntityID   *uint
	Metadata   map[string]interface{}
}

// ActivityRecorder defines behaviour for recording audit logs. Services take
// the narrow interface so tests can pass nil or a spy.
type ActivityRecorder interface {
	Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error)
}

// ActivityService exposes methods to query and persist the audit trail.
type ActivityService interface {
	ActivityRecorder
	List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error)
}

type activityService struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

// NewActivityService constructs the audit trail service.
func NewActivityService(repo repository.ActivityLogRepository, logger zerolog.Logger) ActivityService {
	return &activityService{
		repo:   repo,
		logger: logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	if strings.TrimSpace(entry.Action) == "" {
		return dto.ActivityResponse{}, fmt.Errorf("action is required")
	}
	if strings.TrimSpace(entry.EntityType) == "" {
		return dto.ActivityResponse{}, fmt.Errorf("entity type is required")
	}

	model := models.ActivityLog{
		ActorID:    entry.ActorID,
		ActorRole:  normalizeRole(entry.ActorRole),
		Action:     strings.ToLower(strings.TrimSpace(entry.Action)),
		EntityType: strings.ToLower(strings.TrimSpace(entry.EntityType)),
		EntityID:   entry.EntityID,
		Metadata:   sanitizeMetadata(entry.Metadata),
	}

	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist activity log")
		return dto.ActivityResponse{}, err
	}

	return dto.NewActivityResponse(model), nil
}

func (s *activityService) List(ctx context.Context, req dto.ActivityListRequest) (dto.ActivityListResponse, error) {
	filter := repository.ActivityLogFilter{
		Page:       req.Page,
		PageSize:   req.PageSize,
		Action:     strings.TrimSpace(req.Action),
		EntityType: strings.TrimSpace(req.EntityType),
	}
	if req.ActorID > 0 {
		filter.ActorID = &req.ActorID
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return dto.ActivityListResponse{}, err
	}

	items := make([]dto.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.NewActivityResponse(entry))
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}

	return dto.ActivityListResponse{Items: items, Total: total, Page: page, PageSize: filter.PageSize}, nil
}

func normalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return "system"
	}
	return role
}

// sanitizeMetadata masks values under keys that look like personal contact
// data before they reach the audit table.
func sanitizeMetadata(metadata map[string]interface{}) datatypes.JSONMap {
	if metadata == nil {
		return datatypes.JSONMap{}
	}

	sanitized := datatypes.JSONMap{}
	for key, value := range metadata {
		if strings.Contains(strings.ToLower(key), "email") {
			sanitized[key] = "***"
			continue
		}
		sanitized[key] = value
	}

	return sanitized
}
