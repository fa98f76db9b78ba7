package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/skor-go-api/internal/dto"
	"github.com/noah-isme/skor-go-api/internal/models"
	"github.com/noah-isme/skor-go-api/internal/repository"
)

func setupSubmissionScoringService(t *testing.T) (*gorm.DB, SubmissionScoringService, *stubRecomputer) {
	t.Helper()

	dsn := fmt.Sprintf("file:submission_scoring_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Submission{}, &models.SubmissionAnswer{}))

	recomputer := &stubRecomputer{}
	svc := NewSubmissionScoringService(repository.NewSubmissionRepository(db), recomputer, &stubActivityRecorder{}, zerolog.Nop())
	if concrete, ok := svc.(*submissionScoringService); ok {
		concrete.now = func() time.Time { return time.Date(2026, time.March, 12, 14, 0, 0, 0, time.UTC) }
	}

	return db, svc, recomputer
}

func TestSubmissionScoringServiceFinalize(t *testing.T) {
	db, svc, recomputer := setupSubmissionScoringService(t)
	ctx := context.Background()

	submission := models.Submission{
		OfferingID:       1,
		StudentID:        7,
		AssessmentTypeID: 2,
		AttemptIndex:     1,
		Status:           models.SubmissionStatusInProgress,
		Answers: []models.SubmissionAnswer{
			{QuestionPrompt: "Pick the sorted structures", CorrectOptions: "A,C", SelectedOptions: "c , a", MaxScore: 40},
			{QuestionPrompt: "Pick the balanced tree", CorrectOptions: "B", SelectedOptions: "A,B", MaxScore: 30},
			{QuestionPrompt: "Pick the hash table", CorrectOptions: "D", SelectedOptions: "", MaxScore: 30},
		},
	}
	require.NoError(t, db.Create(&submission).Error)

	finalized, err := svc.Finalize(ctx, submission.ID, ActivityActor{ID: 9, Role: "teacher"})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusFinalized, finalized.Status)
	require.NotNil(t, finalized.TotalScore)
	require.InDelta(t, 40.0, *finalized.TotalScore, 0.0001)
	require.NotNil(t, finalized.SubmittedAt)
	require.Equal(t, time.Date(2026, time.March, 12, 14, 0, 0, 0, time.UTC), finalized.SubmittedAt.UTC())

	require.Len(t, finalized.Answers, 3)
	require.True(t, *finalized.Answers[0].IsCorrect)
	require.InDelta(t, 40.0, *finalized.Answers[0].Score, 0.0001)
	require.False(t, *finalized.Answers[1].IsCorrect)
	require.Zero(t, *finalized.Answers[1].Score)
	require.False(t, *finalized.Answers[2].IsCorrect)

	// Graded answers and totals are persisted, not just returned.
	var stored models.Submission
	require.NoError(t, db.Preload("Answers").First(&stored, submission.ID).Error)
	require.Equal(t, models.SubmissionStatusFinalized, stored.Status)
	require.InDelta(t, 40.0, *stored.TotalScore, 0.0001)
	require.NotNil(t, stored.Answers[0].IsCorrect)

	require.Equal(t, [][2]uint{{1, 7}}, recomputer.calls)

	_, err = svc.Finalize(ctx, submission.ID, ActivityActor{ID: 9})
	require.ErrorIs(t, err, ErrSubmissionAlreadyFinal)
}

func TestSubmissionScoringServiceFinalizeNotFound(t *testing.T) {
	_, svc, _ := setupSubmissionScoringService(t)

	_, err := svc.Finalize(context.Background(), 42, ActivityActor{})
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSubmissionScoringServiceFinalizeSurvivesRecomputeFailure(t *testing.T) {
	db, svc, recomputer := setupSubmissionScoringService(t)
	ctx := context.Background()
	recomputer.err = fmt.Errorf("aggregation offline")

	submission := models.Submission{
		OfferingID:       1,
		StudentID:        7,
		AssessmentTypeID: 2,
		AttemptIndex:     1,
		Status:           models.SubmissionStatusInProgress,
		Answers: []models.SubmissionAnswer{
			{QuestionPrompt: "Q", CorrectOptions: "A", SelectedOptions: "A", MaxScore: 10},
		},
	}
	require.NoError(t, db.Create(&submission).Error)

	finalized, err := svc.Finalize(ctx, submission.ID, ActivityActor{ID: 9})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusFinalized, finalized.Status)
	require.Len(t, recomputer.calls, 1)
}

func TestSubmissionScoringServiceList(t *testing.T) {
	db, svc, _ := setupSubmissionScoringService(t)
	ctx := context.Background()

	submittedAt := time.Date(2026, time.March, 11, 10, 0, 0, 0, time.UTC)
	total := 55.0
	seed := []models.Submission{
		{OfferingID: 1, StudentID: 7, AssessmentTypeID: 2, AttemptIndex: 1, Status: models.SubmissionStatusFinalized, TotalScore: &total, SubmittedAt: &submittedAt},
		{OfferingID: 1, StudentID: 7, AssessmentTypeID: 2, AttemptIndex: 2, Status: models.SubmissionStatusInProgress},
		{OfferingID: 1, StudentID: 8, AssessmentTypeID: 2, AttemptIndex: 1, Status: models.SubmissionStatusInProgress},
	}
	for i := range seed {
		require.NoError(t, db.Create(&seed[i]).Error)
	}

	status := models.SubmissionStatusFinalized
	finalizedOnly, err := svc.List(ctx, dto.SubmissionFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, finalizedOnly, 1)
	require.Equal(t, 1, finalizedOnly[0].AttemptIndex)

	student := uint(7)
	byStudent, err := svc.List(ctx, dto.SubmissionFilter{StudentID: &student})
	require.NoError(t, err)
	require.Len(t, byStudent, 2)
}
