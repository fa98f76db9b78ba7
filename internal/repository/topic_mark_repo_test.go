package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/skor-go-api/internal/models"
)

func setupTopicMarkRepo(t *testing.T) (*gorm.DB, TopicMarkRepository) {
	t.Helper()

	dsn := fmt.Sprintf("file:topic_mark_repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.TopicMark{}))

	return db, NewTopicMarkRepository(db)
}

func TestTopicMarkRepositoryUpsertOverwritesInPlace(t *testing.T) {
	db, repo := setupTopicMarkRepo(t)
	ctx := context.Background()

	first := models.TopicMark{OfferingID: 1, StudentID: 7, FinalScore: 72, IsPassed: true, LastComputedAt: time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Upsert(ctx, &first))

	second := models.TopicMark{OfferingID: 1, StudentID: 7, FinalScore: 55, IsPassed: false, LastComputedAt: time.Date(2026, time.March, 11, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.Upsert(ctx, &second))

	var count int64
	require.NoError(t, db.Model(&models.TopicMark{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	stored, err := repo.Get(ctx, 1, 7)
	require.NoError(t, err)
	require.InDelta(t, 55, stored.FinalScore, 0.0001)
	require.False(t, stored.IsPassed)
	require.True(t, stored.LastComputedAt.Equal(second.LastComputedAt))
}

func TestTopicMarkRepositoryListByOffering(t *testing.T) {
	_, repo := setupTopicMarkRepo(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, &models.TopicMark{OfferingID: 1, StudentID: 9, FinalScore: 81, IsPassed: true, LastComputedAt: now}))
	require.NoError(t, repo.Upsert(ctx, &models.TopicMark{OfferingID: 1, StudentID: 7, FinalScore: 64, IsPassed: true, LastComputedAt: now}))
	require.NoError(t, repo.Upsert(ctx, &models.TopicMark{OfferingID: 2, StudentID: 7, FinalScore: 40, IsPassed: false, LastComputedAt: now}))

	marks, err := repo.ListByOffering(ctx, 1)
	require.NoError(t, err)
	require.Len(t, marks, 2)
	require.Equal(t, uint(7), marks[0].StudentID)
	require.Equal(t, uint(9), marks[1].StudentID)

	_, err = repo.Get(ctx, 3, 7)
	require.Error(t, err)
}
