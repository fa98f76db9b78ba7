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

func setupActivityService(t *testing.T) ActivityService {
	t.Helper()

	dsn := fmt.Sprintf("file:activity_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ActivityLog{}))

	return NewActivityService(repository.NewActivityLogRepository(db), zerolog.Nop())
}

func TestActivityServiceRecordNormalizes(t *testing.T) {
	svc := setupActivityService(t)
	ctx := context.Background()

	entityID := uint(12)
	recorded, err := svc.Record(ctx, ActivityEntry{
		ActorID:    9,
		ActorRole:  " Teacher ",
		Action:     " Gradebook.Score_Set ",
		EntityType: "Gradebook",
		EntityID:   &entityID,
		Metadata: map[string]interface{}{
			"column_id":     3,
			"student_email": "ana@example.com",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "teacher", recorded.ActorRole)
	require.Equal(t, "gradebook.score_set", recorded.Action)
	require.Equal(t, "gradebook", recorded.EntityType)
	// Contact data never reaches the audit table in the clear.
	require.Equal(t, "***", recorded.Metadata["student_email"])

	system, err := svc.Record(ctx, ActivityEntry{Action: "marks.recomputed", EntityType: "topic_mark"})
	require.NoError(t, err)
	require.Equal(t, "system", system.ActorRole)
}

func TestActivityServiceRecordRequiresActionAndEntity(t *testing.T) {
	svc := setupActivityService(t)
	ctx := context.Background()

	_, err := svc.Record(ctx, ActivityEntry{EntityType: "gradebook"})
	require.Error(t, err)

	_, err = svc.Record(ctx, ActivityEntry{Action: "gradebook.score_set"})
	require.Error(t, err)
}

func TestActivityServiceList(t *testing.T) {
	svc := setupActivityService(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		action := "weight_config.updated"
		if i%2 == 0 {
			action = "gradebook.score_set"
		}
		_, err := svc.Record(ctx, ActivityEntry{ActorID: uint(i%3 + 1), ActorRole: "admin", Action: action, EntityType: "gradebook"})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, dto.ActivityListRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 25, page.Total)
	require.Len(t, page.Items, 20)
	require.Equal(t, 1, page.Page)
	require.Equal(t, 20, page.PageSize)

	filtered, err := svc.List(ctx, dto.ActivityListRequest{Action: "gradebook.score_set", PageSize: 50})
	require.NoError(t, err)
	require.EqualValues(t, 13, filtered.Total)

	actor := uint(1)
	byActor, err := svc.List(ctx, dto.ActivityListRequest{ActorID: actor, PageSize: 50})
	require.NoError(t, err)
	require.EqualValues(t, 9, byActor.Total)
}
