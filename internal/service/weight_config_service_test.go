package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/skor-go-api/internal/dto"
	"github.com/noah-isme/skor-go-api/internal/models"
	"github.com/noah-isme/skor-go-api/internal/repository"
)

type stubActivityRecorder struct {
	entries []ActivityEntry
}

func (s *stubActivityRecorder) Record(_ context.Context, entry ActivityEntry) (dto.ActivityResponse, error) {
	s.entries = append(s.entries, entry)
	return dto.ActivityResponse{Action: entry.Action, EntityType: entry.EntityType, EntityID: entry.EntityID}, nil
}

func floatPointer(v float64) *float64 {
	return &v
}

func uintPointer(v uint) *uint {
	return &v
}

func stringPointer(v string) *string {
	return &v
}

func setupWeightConfigService(t *testing.T) (*gorm.DB, WeightConfigService, *stubActivityRecorder) {
	t.Helper()

	dsn := fmt.Sprintf("file:weight_config_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Course{}, &models.AssessmentType{}, &models.CourseWeight{}))

	require.NoError(t, db.Create(&models.Course{ID: 1, Code: "CS101", Title: "Algorithms", MinPassingScore: 60}).Error)
	require.NoError(t, db.Create(&models.AssessmentType{ID: 1, Name: "Quiz"}).Error)
	require.NoError(t, db.Create(&models.AssessmentType{ID: 2, Name: "Exam"}).Error)

	weightRepo := repository.NewCourseWeightRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	typeRepo := repository.NewAssessmentTypeRepository(db)
	validate := validator.New(validator.WithRequiredStructEnabled())
	activity := &stubActivityRecorder{}

	svc := NewWeightConfigService(weightRepo, courseRepo, typeRepo, validate, activity, zerolog.Nop())

	return db, svc, activity
}

func TestWeightConfigServiceCreate(t *testing.T) {
	_, svc, activity := setupWeightConfigService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, dto.WeightConfigCreateRequest{
		AssessmentTypeID: 1,
		Weight:           0.3,
		Method:           "highest",
	}, ActivityActor{ID: 9, Role: "admin"})
	require.NoError(t, err)
	require.Equal(t, uint(1), created.CourseID)
	require.Equal(t, "Quiz", created.AssessmentType)
	require.InDelta(t, 0.3, created.Weight, 0.0001)
	require.Equal(t, "highest", created.Method)
	require.Equal(t, 1, created.Version)
	require.Len(t, activity.entries, 1)
	require.Equal(t, "weight_config.created", activity.entries[0].Action)

	_, err = svc.Create(ctx, 1, dto.WeightConfigCreateRequest{
		AssessmentTypeID: 1,
		Weight:           0.5,
		Method:           "latest",
	}, ActivityActor{ID: 9})
	require.ErrorIs(t, err, ErrDuplicateWeightConfig)
}

func TestWeightConfigServiceCreateRejectsBadInput(t *testing.T) {
	_, svc, _ := setupWeightConfigService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, dto.WeightConfigCreateRequest{
		AssessmentTypeID: 1,
		Weight:           1.5,
		Method:           "highest",
	}, ActivityActor{})
	require.Error(t, err)

	_, err = svc.Create(ctx, 1, dto.WeightConfigCreateRequest{
		AssessmentTypeID: 1,
		Weight:           0.5,
		Method:           "median",
	}, ActivityActor{})
	require.Error(t, err)

	_, err = svc.Create(ctx, 42, dto.WeightConfigCreateRequest{
		AssessmentTypeID: 1,
		Weight:           0.5,
		Method:           "highest",
	}, ActivityActor{})
	require.ErrorIs(t, err, ErrCourseNotFound)

	_, err = svc.Create(ctx, 1, dto.WeightConfigCreateRequest{
		AssessmentTypeID: 42,
		Weight:           0.5,
		Method:           "highest",
	}, ActivityActor{})
	require.ErrorIs(t, err, ErrAssessmentTypeNotFound)
}

func TestWeightConfigServiceUpdateVersioned(t *testing.T) {
	_, svc, _ := setupWeightConfigService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, dto.WeightConfigCreateRequest{
		AssessmentTypeID: 1,
		Weight:           0.3,
		Method:           "highest",
	}, ActivityActor{ID: 9})
	require.NoError(t, err)

	// A stale version must never overwrite a concurrent edit.
	_, err = svc.Update(ctx, created.ID, dto.WeightConfigUpdateRequest{
		Weight:  floatPointer(0.4),
		Version: 7,
	}, ActivityActor{ID: 9})
	require.ErrorIs(t, err, ErrWeightConfigConflict)

	updated, err := svc.Update(ctx, created.ID, dto.WeightConfigUpdateRequest{
		Weight:  floatPointer(0.4),
		Method:  stringPointer("average"),
		Version: created.Version,
	}, ActivityActor{ID: 9})
	require.NoError(t, err)
	require.InDelta(t, 0.4, updated.Weight, 0.0001)
	require.Equal(t, "average", updated.Method)
	require.Equal(t, created.Version+1, updated.Version)

	// The bumped version invalidates the original one.
	_, err = svc.Update(ctx, created.ID, dto.WeightConfigUpdateRequest{
		Weight:  floatPointer(0.5),
		Version: created.Version,
	}, ActivityActor{ID: 9})
	require.ErrorIs(t, err, ErrWeightConfigConflict)
}

func TestWeightConfigServiceUpdateTypeCollision(t *testing.T) {
	_, svc, _ := setupWeightConfigService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, dto.WeightConfigCreateRequest{AssessmentTypeID: 1, Weight: 0.3, Method: "highest"}, ActivityActor{})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, dto.WeightConfigCreateRequest{AssessmentTypeID: 2, Weight: 0.7, Method: "latest"}, ActivityActor{})
	require.NoError(t, err)

	_, err = svc.Update(ctx, first.ID, dto.WeightConfigUpdateRequest{
		AssessmentTypeID: uintPointer(2),
		Version:          first.Version,
	}, ActivityActor{})
	require.ErrorIs(t, err, ErrDuplicateWeightConfig)
}

func TestWeightConfigServiceListByCourse(t *testing.T) {
	_, svc, _ := setupWeightConfigService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, dto.WeightConfigCreateRequest{AssessmentTypeID: 1, Weight: 0.3, Method: "highest"}, ActivityActor{})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, dto.WeightConfigCreateRequest{AssessmentTypeID: 2, Weight: 0.5, Method: "latest"}, ActivityActor{})
	require.NoError(t, err)

	list, err := svc.ListByCourse(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, uint(1), list.CourseID)
	require.Len(t, list.Weights, 2)
	// The sum is reported, not enforced; callers apply their own policy.
	require.InDelta(t, 0.8, list.WeightSum, 0.0001)
}

func TestWeightConfigServiceDelete(t *testing.T) {
	db, svc, _ := setupWeightConfigService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, dto.WeightConfigCreateRequest{AssessmentTypeID: 1, Weight: 0.3, Method: "highest"}, ActivityActor{})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID, ActivityActor{ID: 9}))

	var count int64
	require.NoError(t, db.Model(&models.CourseWeight{}).Count(&count).Error)
	require.Zero(t, count)

	require.ErrorIs(t, svc.Delete(ctx, created.ID, ActivityActor{ID: 9}), ErrWeightConfigNotFound)
}
